package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"PhotoCurator/internal/activity"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/metrics"
	"PhotoCurator/internal/ports"
	"PhotoCurator/internal/registry"
	"PhotoCurator/internal/retry"
)

// savingsFactor discounts the naive reclaimable estimate.
const savingsFactor = 0.85

var (
	ErrAggregationInProgress = errors.New("aggregation already in progress")
	ErrNothingToAggregate    = errors.New("no analyzed items to aggregate")
)

const (
	stageCluster  = "cluster"
	stageOptimize = "optimize"
)

// AggregatorDeps wires the collection-level capabilities.
type AggregatorDeps struct {
	Registry  *registry.Registry
	Clusterer ports.Clusterer
	Optimizer ports.Optimizer
	Activity  *activity.Log
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
	Retry     retry.Policy
}

// Aggregator promotes a fully analyzed batch into albums and storage
// suggestions. It runs at most once per batch generation unless asked
// explicitly through Run.
type Aggregator struct {
	registry  *registry.Registry
	clusterer ports.Clusterer
	optimizer ports.Optimizer
	activity  *activity.Log
	metrics   *metrics.Recorder
	logger    *slog.Logger
	policy    retry.Policy

	mu          sync.Mutex
	running     bool
	generation  uint64
	attempted   uint64
	albums      []domain.Album
	suggestions []string
	savings     float64
}

// NewAggregator constructs the aggregation component.
func NewAggregator(deps AggregatorDeps) *Aggregator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		registry:  deps.Registry,
		clusterer: deps.Clusterer,
		optimizer: deps.Optimizer,
		activity:  deps.Activity,
		metrics:   deps.Metrics,
		logger:    logger,
		policy:    deps.Retry,
	}
}

// NewBatch starts a new batch generation and empties the album set.
func (a *Aggregator) NewBatch() {
	a.mu.Lock()
	a.generation++
	a.albums = nil
	a.mu.Unlock()
}

// Check runs an aggregation when every item has completed, the current
// batch has not been aggregated yet and nothing is in flight. The condition
// is evaluated again after each run, so a batch that settled while an older
// run was in flight is still aggregated.
func (a *Aggregator) Check(ctx context.Context) {
	for {
		gen, ok := a.claim()
		if !ok {
			return
		}
		a.run(ctx, gen)
	}
}

func (a *Aggregator) claim() (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	total, completed := a.registry.Counts()
	if a.running || total == 0 || completed != total || a.attempted == a.generation {
		return 0, false
	}
	a.running = true
	a.attempted = a.generation
	return a.generation, true
}

// Run aggregates the currently completed items on demand.
func (a *Aggregator) Run(ctx context.Context) error {
	if len(a.registry.Completed()) == 0 {
		return ErrNothingToAggregate
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAggregationInProgress
	}
	a.running = true
	a.attempted = a.generation
	gen := a.generation
	a.mu.Unlock()

	a.run(ctx, gen)
	a.Check(ctx)
	return nil
}

func (a *Aggregator) run(ctx context.Context, gen uint64) {
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	ready := a.registry.Completed()
	a.activity.Info(domain.AgentPlanner, "Contextual re-mapping in progress...")
	started := time.Now()

	albums, clusterErr := a.cluster(ctx, ready)
	suggestions, optimizeErr := a.optimize(ctx, ready)

	a.mu.Lock()
	stale := gen != a.generation
	if !stale {
		if clusterErr == nil {
			a.albums = albums
		}
		if optimizeErr == nil {
			a.suggestions = suggestions
			a.savings = estimateSavings(len(suggestions), ready)
		}
	}
	a.mu.Unlock()

	if stale {
		a.logger.Info("discard aggregation for superseded batch", "generation", gen)
		return
	}

	a.logger.Debug("aggregation finished",
		"items", len(ready),
		"cluster_ok", clusterErr == nil,
		"optimize_ok", optimizeErr == nil,
		"took", time.Since(started),
	)
	if clusterErr != nil {
		a.stageFailed(stageCluster, clusterErr)
	} else {
		a.activity.Success(domain.AgentMemory, fmt.Sprintf("Refined %d clusters.", len(albums)))
	}
	if optimizeErr != nil {
		a.stageFailed(stageOptimize, optimizeErr)
	} else {
		a.activity.Success(domain.AgentPlanner, fmt.Sprintf("Proposed %d storage optimizations.", len(suggestions)))
	}
}

func (a *Aggregator) cluster(ctx context.Context, ready []domain.Item) ([]domain.Album, error) {
	inputs := make([]domain.ClusterInput, 0, len(ready))
	for _, item := range ready {
		inputs = append(inputs, domain.ClusterInput{ID: item.ID, Result: *item.Result})
	}

	drafts, err := retry.Do(ctx, a.policy, func(ctx context.Context) ([]domain.AlbumDraft, error) {
		return a.clusterer.Cluster(ctx, inputs)
	}, a.onRetry(stageCluster))
	if err != nil {
		a.metrics.AggregationStage(stageCluster, metrics.OutcomeFailure)
		return nil, err
	}
	a.metrics.AggregationStage(stageCluster, metrics.OutcomeSuccess)
	return a.materialize(drafts), nil
}

// materialize drops members that do not reference a known item and albums
// left without members. The cover is the locator of the first member.
func (a *Aggregator) materialize(drafts []domain.AlbumDraft) []domain.Album {
	albums := make([]domain.Album, 0, len(drafts))
	for _, draft := range drafts {
		members := make([]domain.ItemID, 0, len(draft.Members))
		for _, id := range draft.Members {
			if _, ok := a.registry.Get(id); ok {
				members = append(members, id)
			} else {
				a.logger.Debug("drop unknown album member", "album", draft.Title, "item", id)
			}
		}
		if len(members) == 0 {
			a.logger.Debug("drop empty album", "album", draft.Title)
			continue
		}

		cover := ""
		if first, ok := a.registry.Get(members[0]); ok {
			cover = first.Locator
		}
		albums = append(albums, domain.Album{
			ID:          uuid.NewString(),
			Title:       draft.Title,
			Description: draft.Description,
			Category:    draft.Category,
			Members:     members,
			CoverURL:    cover,
		})
	}
	return albums
}

func (a *Aggregator) optimize(ctx context.Context, ready []domain.Item) ([]string, error) {
	inputs := make([]domain.OptimizeInput, 0, len(ready))
	for _, item := range ready {
		inputs = append(inputs, domain.OptimizeInput{ID: item.ID, Scene: item.Result.Scene, Objects: item.Result.Objects})
	}

	suggestions, err := retry.Do(ctx, a.policy, func(ctx context.Context) ([]string, error) {
		return a.optimizer.Optimize(ctx, inputs)
	}, a.onRetry(stageOptimize))
	if err != nil {
		a.metrics.AggregationStage(stageOptimize, metrics.OutcomeFailure)
		return nil, err
	}
	a.metrics.AggregationStage(stageOptimize, metrics.OutcomeSuccess)
	return suggestions, nil
}

func (a *Aggregator) onRetry(stage string) retry.Option {
	return retry.OnRetry(func(attempt int, delay time.Duration, err error) {
		a.metrics.Retry(stage)
		a.logger.Warn("aggregation stage throttled", "stage", stage, "attempt", attempt+1, "delay", delay, "error", err)
	})
}

func (a *Aggregator) stageFailed(stage string, err error) {
	a.logger.Error("aggregation stage failed", "stage", stage, "error", err)
	throttled := retry.IsTransient(err)
	switch {
	case stage == stageCluster && throttled:
		a.activity.Alert(domain.AgentOrchestrator, "Memory Agent throttled. Clustering delayed.")
	case stage == stageCluster:
		a.activity.Alert(domain.AgentOrchestrator, "Memory Agent could not refine clusters.")
	case throttled:
		a.activity.Alert(domain.AgentOrchestrator, "Planner throttled. Optimization delayed.")
	default:
		a.activity.Alert(domain.AgentOrchestrator, "Planner could not produce optimization suggestions.")
	}
}

func estimateSavings(suggestions int, ready []domain.Item) float64 {
	if suggestions == 0 || len(ready) == 0 {
		return 0
	}
	var total int64
	for _, item := range ready {
		total += item.Size
	}
	avg := float64(total) / float64(len(ready))
	return float64(suggestions) * avg * savingsFactor
}

// Aggregating reports whether a run is in flight.
func (a *Aggregator) Aggregating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Albums returns a copy of the current album set.
func (a *Aggregator) Albums() []domain.Album {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Album, 0, len(a.albums))
	for _, album := range a.albums {
		album.Members = append([]domain.ItemID(nil), album.Members...)
		out = append(out, album)
	}
	return out
}

// Suggestions returns the planner insights of the last successful run.
func (a *Aggregator) Suggestions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.suggestions...)
}

// Savings returns the last reclaimable-bytes estimate.
func (a *Aggregator) Savings() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.savings
}

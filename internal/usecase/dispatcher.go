package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"PhotoCurator/internal/activity"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/metrics"
	"PhotoCurator/internal/ports"
	"PhotoCurator/internal/registry"
	"PhotoCurator/internal/retry"
)

const defaultMaxInFlight = 4

// DispatcherDeps wires the collaborators of per-item analysis.
type DispatcherDeps struct {
	Registry    *registry.Registry
	Reader      ports.ContentReader
	Analyzer    ports.Analyzer
	Activity    *activity.Log
	Metrics     *metrics.Recorder
	Logger      *slog.Logger
	Retry       retry.Policy
	Stagger     time.Duration
	MaxInFlight int
	// Settled runs after every terminal transition.
	Settled func(ctx context.Context)
	Now     func() time.Time
}

// Dispatcher drives pending items through analysis once each. Successive
// items are released Stagger apart and at most MaxInFlight analyses run
// at the same time.
type Dispatcher struct {
	registry *registry.Registry
	reader   ports.ContentReader
	analyzer ports.Analyzer
	activity *activity.Log
	metrics  *metrics.Recorder
	logger   *slog.Logger
	policy   retry.Policy
	stagger  time.Duration
	slots    *semaphore.Weighted
	settled  func(ctx context.Context)
	now      func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher constructs the dispatch component. A zero or negative
// Stagger releases items back to back.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	stagger := max(deps.Stagger, 0)
	maxInFlight := deps.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		registry: deps.Registry,
		reader:   deps.Reader,
		analyzer: deps.Analyzer,
		activity: deps.Activity,
		metrics:  deps.Metrics,
		logger:   logger,
		policy:   deps.Retry,
		stagger:  stagger,
		slots:    semaphore.NewWeighted(int64(maxInFlight)),
		settled:  deps.Settled,
		now:      now,
	}
}

// Dispatch schedules ids in order and returns immediately. Items that are
// not pending when their turn comes are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, ids []domain.ItemID) {
	if len(ids) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for i, id := range ids {
			if i > 0 && !d.pause(ctx) {
				d.logger.Debug("dispatch abandoned", "remaining", len(ids)-i)
				return
			}
			if err := d.slots.Acquire(ctx, 1); err != nil {
				d.logger.Debug("dispatch abandoned", "remaining", len(ids)-i, "error", err)
				return
			}
			d.wg.Add(1)
			go func(id domain.ItemID) {
				defer d.wg.Done()
				settled := d.process(ctx, id)
				// The slot goes back before the settled hook, which may aggregate.
				d.slots.Release(1)
				if settled {
					d.notifySettled(ctx)
				}
			}(id)
		}
	}()
}

// Wait blocks until every dispatched item has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) pause(ctx context.Context) bool {
	if d.stagger == 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d.stagger)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// process reports whether the item was taken and left in a terminal state.
func (d *Dispatcher) process(ctx context.Context, id domain.ItemID) bool {
	item, ok := d.registry.Transition(id, domain.StatusAnalyzing, nil)
	if !ok {
		d.logger.Debug("skip item", "item", id)
		return false
	}

	d.metrics.InFlight(1)
	defer d.metrics.InFlight(-1)

	data, err := d.reader.Read(ctx, item)
	if err != nil {
		d.logger.Error("read item", "item", id, "name", item.Name, "error", err)
		d.registry.Transition(id, domain.StatusError, nil)
		d.metrics.Analysis(metrics.OutcomeError)
		d.activity.Alert(domain.AgentOrchestrator, fmt.Sprintf("File read error for %s.", item.Name))
		return true
	}

	req := domain.AnalysisRequest{ItemID: id, Name: item.Name, MediaType: item.MediaType, Data: data}
	result, err := retry.Do(ctx, d.policy, func(ctx context.Context) (domain.AnalysisResult, error) {
		return d.analyzer.Analyze(ctx, req)
	}, retry.OnRetry(func(attempt int, delay time.Duration, err error) {
		d.metrics.Retry("analyze")
		d.logger.Warn("analysis throttled", "item", id, "attempt", attempt+1, "delay", delay, "error", err)
	}))
	if err != nil {
		d.fail(item, err)
		return true
	}

	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = d.now()
	}
	if _, ok := d.registry.Transition(id, domain.StatusCompleted, &result); !ok {
		return true
	}
	d.metrics.Analysis(metrics.OutcomeCompleted)

	if result.IsSensitive {
		d.activity.Alert(domain.AgentPrivacyGuardian, fmt.Sprintf("AUTO-SECURE: Document detected in %s.", item.Name))
		return true
	}
	d.activity.Success(domain.AgentVision, fmt.Sprintf("Indexed %s: %s", item.Name, result.Scene))
	return true
}

func (d *Dispatcher) fail(item domain.Item, err error) {
	d.registry.Transition(item.ID, domain.StatusError, nil)
	if retry.IsTransient(err) {
		d.logger.Warn("analysis rate limited", "item", item.ID, "name", item.Name, "error", err)
		d.metrics.Analysis(metrics.OutcomeRateLimited)
		d.activity.Alert(domain.AgentOrchestrator, fmt.Sprintf("Quota reached while processing %s. Try again later.", item.Name))
		return
	}
	d.logger.Error("analysis failed", "item", item.ID, "name", item.Name, "error", err)
	d.metrics.Analysis(metrics.OutcomeError)
	d.activity.Alert(domain.AgentOrchestrator, fmt.Sprintf("Processing failed for %s.", item.Name))
}

func (d *Dispatcher) notifySettled(ctx context.Context) {
	if d.settled != nil {
		d.settled(ctx)
	}
}

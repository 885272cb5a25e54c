package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PhotoCurator/internal/activity"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/metrics"
	"PhotoCurator/internal/ports"
	"PhotoCurator/internal/registry"
	"PhotoCurator/internal/retry"
	"PhotoCurator/internal/vault"
	"PhotoCurator/internal/view"
)

// OrchestratorDeps wires all driven adapters into the orchestrator.
type OrchestratorDeps struct {
	Intelligence ports.Intelligence
	Reader       ports.ContentReader
	Activity     *activity.Log
	Metrics      *metrics.Recorder
	Logger       *slog.Logger
	Retry        retry.Policy
	Stagger      time.Duration
	MaxInFlight  int
	Passcode     string
	Now          func() time.Time
}

// Orchestrator owns the orchestration state and is the only place it is
// mutated from. Readers get copies.
type Orchestrator struct {
	registry   *registry.Registry
	activity   *activity.Log
	metrics    *metrics.Recorder
	logger     *slog.Logger
	dispatcher *Dispatcher
	aggregator *Aggregator
	search     *SearchMediator
	gate       *vault.Gate
}

// Stats summarizes the collection.
type Stats struct {
	Total       int
	Analyzed    int
	Failed      int
	Sensitive   int
	UsedBytes   int64
	Albums      int
	Suggestions int
	Savings     float64
}

// NewOrchestrator constructs the orchestration component.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	log := deps.Activity
	if log == nil {
		log = activity.NewLog(activity.DefaultMaxEntries, logger.With("component", "activity"))
	}

	reg := registry.New()
	o := &Orchestrator{
		registry: reg,
		activity: log,
		metrics:  deps.Metrics,
		logger:   logger,
		gate:     vault.NewGate(deps.Passcode),
	}
	o.aggregator = NewAggregator(AggregatorDeps{
		Registry:  reg,
		Clusterer: deps.Intelligence,
		Optimizer: deps.Intelligence,
		Activity:  log,
		Metrics:   deps.Metrics,
		Logger:    logger.With("component", "aggregator"),
		Retry:     deps.Retry,
	})
	o.search = NewSearchMediator(SearchDeps{
		Registry: reg,
		Searcher: deps.Intelligence,
		Activity: log,
		Metrics:  deps.Metrics,
		Logger:   logger.With("component", "search"),
		Retry:    deps.Retry,
	})
	o.dispatcher = NewDispatcher(DispatcherDeps{
		Registry:    reg,
		Reader:      deps.Reader,
		Analyzer:    deps.Intelligence,
		Activity:    log,
		Metrics:     deps.Metrics,
		Logger:      logger.With("component", "dispatcher"),
		Retry:       deps.Retry,
		Stagger:     deps.Stagger,
		MaxInFlight: deps.MaxInFlight,
		Settled:     o.aggregator.Check,
		Now:         deps.Now,
	})
	return o
}

// Ingest registers uploads as a new batch and schedules their analysis.
// It returns before any analysis has run.
func (o *Orchestrator) Ingest(ctx context.Context, uploads []domain.Upload) []domain.ItemID {
	if len(uploads) == 0 {
		return nil
	}

	ids := o.registry.Ingest(uploads)
	o.aggregator.NewBatch()
	o.metrics.Ingested(len(ids))
	o.activity.Info(domain.AgentOrchestrator, fmt.Sprintf("Detected %d items. Initializing security protocols.", len(ids)))
	o.logger.Debug("batch ingested", "items", len(ids))

	o.dispatcher.Dispatch(ctx, ids)
	return ids
}

// Wait blocks until every dispatched analysis, and any aggregation it
// triggered, has finished.
func (o *Orchestrator) Wait() {
	o.dispatcher.Wait()
}

// SetSensitivity overrides the sensitivity of a completed item.
func (o *Orchestrator) SetSensitivity(ctx context.Context, id domain.ItemID, sensitive bool) bool {
	item, changed := o.registry.SetSensitivity(id, sensitive)
	if !changed {
		return false
	}
	if sensitive {
		o.activity.Alert(domain.AgentPrivacyGuardian, fmt.Sprintf("Secured %s manually.", item.Name))
	} else {
		o.activity.Success(domain.AgentPrivacyGuardian, fmt.Sprintf("Released %s manually.", item.Name))
	}
	o.aggregator.Check(ctx)
	return true
}

// ToggleSensitivity flips the sensitivity of a completed item.
func (o *Orchestrator) ToggleSensitivity(ctx context.Context, id domain.ItemID) bool {
	item, ok := o.registry.Get(id)
	if !ok || item.Result == nil {
		return false
	}
	return o.SetSensitivity(ctx, id, !item.Result.IsSensitive)
}

// Search narrows the visible set. A blank query clears the filter.
func (o *Orchestrator) Search(ctx context.Context, query string) ([]domain.ItemID, error) {
	return o.search.Search(ctx, query)
}

// Reaggregate reruns clustering and planning over the completed items.
func (o *Orchestrator) Reaggregate(ctx context.Context) error {
	return o.aggregator.Run(ctx)
}

// SelectTab requests a tab and returns the tab in effect.
func (o *Orchestrator) SelectTab(tab view.Tab) view.Tab {
	return o.gate.SelectTab(tab)
}

// SetPasscodeInput stages passcode input for SubmitPasscode.
func (o *Orchestrator) SetPasscodeInput(value string) {
	o.gate.SetPasscodeInput(value)
}

// SubmitPasscode checks the staged input against the vault passcode.
func (o *Orchestrator) SubmitPasscode() bool {
	if o.gate.State() != vault.StateAwaitingPasscode {
		o.gate.SetPasscodeInput("")
		return o.gate.Unlocked()
	}
	return o.recordAttempt(o.gate.Submit())
}

// Unlock opens the privacy tab with code in one step.
func (o *Orchestrator) Unlock(code string) bool {
	o.gate.SelectTab(view.TabPrivacy)
	if o.gate.Unlocked() {
		return true
	}
	return o.recordAttempt(o.gate.Unlock(code))
}

func (o *Orchestrator) recordAttempt(granted bool) bool {
	if granted {
		o.activity.Success(domain.AgentPrivacyGuardian, "Vault access granted.")
		return true
	}
	o.activity.Alert(domain.AgentPrivacyGuardian, "Invalid passcode attempt.")
	return false
}

// CancelUnlock abandons a pending passcode prompt.
func (o *Orchestrator) CancelUnlock() {
	o.gate.Cancel()
}

// VaultState reports the vault gate position.
func (o *Orchestrator) VaultState() vault.State {
	return o.gate.State()
}

// View composes the currently visible items.
func (o *Orchestrator) View() view.Result {
	return view.Compose(o.registry.Snapshot(), o.gate.Tab(), o.search.Filter(), o.gate.Unlocked())
}

// Items returns every item in ingestion order.
func (o *Orchestrator) Items() []domain.Item {
	return o.registry.Snapshot()
}

// Item returns one item.
func (o *Orchestrator) Item(id domain.ItemID) (domain.Item, bool) {
	return o.registry.Get(id)
}

// Albums returns the album set of the last successful clustering.
func (o *Orchestrator) Albums() []domain.Album {
	return o.aggregator.Albums()
}

// Suggestions returns the planner insights of the last successful run.
func (o *Orchestrator) Suggestions() []string {
	return o.aggregator.Suggestions()
}

// Savings returns the estimated reclaimable bytes.
func (o *Orchestrator) Savings() float64 {
	return o.aggregator.Savings()
}

// Aggregating reports whether an aggregation is in flight.
func (o *Orchestrator) Aggregating() bool {
	return o.aggregator.Aggregating()
}

// Query returns the last search query.
func (o *Orchestrator) Query() string {
	return o.search.Query()
}

// Activity returns the activity log, newest first.
func (o *Orchestrator) Activity() []domain.ActivityEntry {
	return o.activity.Entries()
}

// Subscribe registers fn for every new activity entry.
func (o *Orchestrator) Subscribe(fn activity.Subscriber) {
	o.activity.Subscribe(fn)
}

// Stats summarizes the collection.
func (o *Orchestrator) Stats() Stats {
	var st Stats
	for _, item := range o.registry.Snapshot() {
		st.Total++
		st.UsedBytes += item.Size
		switch item.Status {
		case domain.StatusCompleted:
			st.Analyzed++
		case domain.StatusError:
			st.Failed++
		}
		if item.Sensitive() {
			st.Sensitive++
		}
	}
	st.Albums = len(o.aggregator.Albums())
	st.Suggestions = len(o.aggregator.Suggestions())
	st.Savings = o.aggregator.Savings()
	return st
}

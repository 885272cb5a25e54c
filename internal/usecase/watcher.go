package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/ports"
)

// Watcher polls an upload source on a schedule and ingests files it has not
// seen before as a new batch.
type Watcher struct {
	driver       ports.Scheduler
	source       ports.UploadSource
	orchestrator *Orchestrator
	logger       *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewWatcher returns a helper to start/stop recurring ingestion.
func NewWatcher(driver ports.Scheduler, source ports.UploadSource, orchestrator *Orchestrator, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		driver:       driver,
		source:       source,
		orchestrator: orchestrator,
		logger:       logger,
		seen:         map[string]struct{}{},
	}
}

// Start registers the poll job with the provided scheduler.
func (w *Watcher) Start(ctx context.Context) error {
	if w.driver == nil || w.source == nil || w.orchestrator == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := w.Poll(ctx); err != nil {
			w.logger.Error("poll sources", "trigger", trigger, "error", err)
		}
	}

	return w.driver.Start(ctx, job)
}

// Poll fetches the source once and ingests unseen uploads. It returns the
// ids of the new items.
func (w *Watcher) Poll(ctx context.Context) ([]domain.ItemID, error) {
	uploads, err := w.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	fresh := make([]domain.Upload, 0, len(uploads))
	for _, up := range uploads {
		if _, ok := w.seen[up.Locator]; ok {
			continue
		}
		w.seen[up.Locator] = struct{}{}
		fresh = append(fresh, up)
	}
	w.mu.Unlock()

	w.logger.Debug("poll done", "listed", len(uploads), "new", len(fresh))
	return w.orchestrator.Ingest(ctx, fresh), nil
}

// Stop gracefully tears down the underlying scheduler.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.driver == nil {
		return nil
	}

	return w.driver.Stop(ctx)
}

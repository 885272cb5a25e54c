// Package registry owns the canonical, insertion-ordered set of items and
// enforces their lifecycle transitions. It holds state only: callers log.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"PhotoCurator/internal/domain"
)

// Registry keeps items by id while preserving ingestion order.
type Registry struct {
	mu    sync.RWMutex
	order []domain.ItemID
	items map[domain.ItemID]*domain.Item
	now   func() time.Time
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{
		items: map[domain.ItemID]*domain.Item{},
		now:   time.Now,
	}
}

// Ingest assigns fresh ids to uploads and appends them as pending items.
func (r *Registry) Ingest(uploads []domain.Upload) []domain.ItemID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]domain.ItemID, 0, len(uploads))
	at := r.now()
	for _, up := range uploads {
		id := domain.ItemID(uuid.NewString())
		r.items[id] = &domain.Item{
			ID:         id,
			Name:       up.Name,
			Size:       up.Size,
			MediaType:  up.MediaType,
			Locator:    up.Locator,
			Status:     domain.StatusPending,
			IngestedAt: at,
		}
		r.order = append(r.order, id)
		ids = append(ids, id)
	}
	return ids
}

// Transition moves an item along the pipeline. A result is attached only on
// completion. Unknown ids and out-of-order transitions are ignored and
// reported through the boolean.
func (r *Registry) Transition(id domain.ItemID, next domain.Status, result *domain.AnalysisResult) (domain.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !item.Status.CanTransition(next) {
		return domain.Item{}, false
	}
	// A completed item always carries its result.
	if next == domain.StatusCompleted && result == nil {
		return domain.Item{}, false
	}

	item.Status = next
	if next == domain.StatusCompleted {
		res := result.Clone()
		item.Result = &res
	}
	return item.Clone(), true
}

// SetSensitivity overrides the sensitivity flag of a completed item. Marking
// an item sensitive replaces its risk category with the user-defined marker;
// releasing it keeps the prior category.
func (r *Registry) SetSensitivity(id domain.ItemID, sensitive bool) (domain.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.Status != domain.StatusCompleted || item.Result == nil {
		return domain.Item{}, false
	}
	if item.Result.IsSensitive == sensitive {
		return item.Clone(), false
	}

	item.Result.IsSensitive = sensitive
	if sensitive {
		item.Result.RiskClassification = domain.RiskUserDefined
	}
	return item.Clone(), true
}

// Get returns a copy of the item.
func (r *Registry) Get(id domain.ItemID) (domain.Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.Item{}, false
	}
	return item.Clone(), true
}

// Snapshot returns copies of all items in ingestion order.
func (r *Registry) Snapshot() []domain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	return out
}

// Completed returns copies of completed items in ingestion order.
func (r *Registry) Completed() []domain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Item
	for _, id := range r.order {
		if item := r.items[id]; item.Status == domain.StatusCompleted {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Counts returns the total and completed item counts.
func (r *Registry) Counts() (total, completed int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Status == domain.StatusCompleted {
			completed++
		}
	}
	return len(r.order), completed
}

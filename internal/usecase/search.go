package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"PhotoCurator/internal/activity"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/metrics"
	"PhotoCurator/internal/ports"
	"PhotoCurator/internal/registry"
	"PhotoCurator/internal/retry"
	"PhotoCurator/internal/view"
)

// SearchDeps wires the search capability.
type SearchDeps struct {
	Registry *registry.Registry
	Searcher ports.Searcher
	Activity *activity.Log
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
	Retry    retry.Policy
}

// SearchMediator narrows the visible set to the ids matched by the
// intelligence service.
type SearchMediator struct {
	registry *registry.Registry
	searcher ports.Searcher
	activity *activity.Log
	metrics  *metrics.Recorder
	logger   *slog.Logger
	policy   retry.Policy

	mu        sync.Mutex
	seq       uint64
	installed uint64
	filter    *view.Filter
	query     string
}

// NewSearchMediator constructs the search component.
func NewSearchMediator(deps SearchDeps) *SearchMediator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchMediator{
		registry: deps.Registry,
		searcher: deps.Searcher,
		activity: deps.Activity,
		metrics:  deps.Metrics,
		logger:   logger,
		policy:   deps.Retry,
	}
}

// Search replaces the active filter with the ids matching query. A blank
// query clears the filter without a remote call. On failure the previous
// filter stays in place. When searches overlap, the most recently issued
// one wins.
func (s *SearchMediator) Search(ctx context.Context, query string) ([]domain.ItemID, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if strings.TrimSpace(query) == "" {
		s.query = ""
		s.filter = nil
		s.installed = seq
		s.mu.Unlock()
		s.metrics.Search(metrics.OutcomeCleared)
		return nil, nil
	}
	s.mu.Unlock()

	s.activity.Info(domain.AgentNaturalLanguage, fmt.Sprintf("Analyzing categorical intent: %q", query))
	items := s.registry.Snapshot()
	contexts := make([]domain.SearchContext, 0, len(items))
	for _, item := range items {
		contexts = append(contexts, domain.SearchContext{ID: item.ID, Description: describe(item)})
	}

	ids, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]domain.ItemID, error) {
		return s.searcher.Search(ctx, query, contexts)
	}, retry.OnRetry(func(attempt int, delay time.Duration, err error) {
		s.metrics.Retry("search")
		s.logger.Warn("search throttled", "attempt", attempt+1, "delay", delay, "error", err)
	}))
	if err != nil {
		s.metrics.Search(metrics.OutcomeFailure)
		s.logger.Error("search failed", "query", query, "error", err)
		if retry.IsTransient(err) {
			s.activity.Alert(domain.AgentNaturalLanguage, "Search service throttled. Try again in a moment.")
		} else {
			s.activity.Alert(domain.AgentNaturalLanguage, "Search failed. Previous results kept.")
		}
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	s.mu.Lock()
	if seq > s.installed {
		s.filter = view.NewFilter(ids)
		s.query = query
		s.installed = seq
	}
	s.mu.Unlock()

	s.metrics.Search(metrics.OutcomeSuccess)
	s.activity.Success(domain.AgentNaturalLanguage, fmt.Sprintf("Matched %d results across categories.", len(ids)))
	return ids, nil
}

// Filter returns the active filter, nil when none.
func (s *SearchMediator) Filter() *view.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Query returns the query behind the active filter.
func (s *SearchMediator) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// describe flattens the descriptive, risk and affect fields of an item into
// the blob offered to search.
func describe(item domain.Item) string {
	if item.Result == nil {
		return item.Name
	}
	r := item.Result
	parts := []string{r.Scene}
	parts = append(parts, r.Objects...)
	if r.Text != "" {
		parts = append(parts, r.Text)
	}
	parts = append(parts,
		"emotion: "+r.DominantEmotion,
		"sentiment: "+string(r.Sentiment),
		fmt.Sprintf("risk: %t", r.IsSensitive),
	)
	if r.RiskClassification != "" {
		parts = append(parts, "classification: "+r.RiskClassification)
	}
	return strings.Join(parts, " ")
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"PhotoCurator/internal/activity"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/retry"
)

type fakeIntel struct {
	mu sync.Mutex

	analyze  func(call int, req domain.AnalysisRequest) (domain.AnalysisResult, error)
	cluster  func(items []domain.ClusterInput) ([]domain.AlbumDraft, error)
	optimize func(items []domain.OptimizeInput) ([]string, error)
	search   func(query string, items []domain.SearchContext) ([]domain.ItemID, error)

	analyzeCalls  map[string]int
	clusterCalls  int
	optimizeCalls int
	searchCalls   int
}

func newFakeIntel() *fakeIntel {
	return &fakeIntel{analyzeCalls: map[string]int{}}
}

func (f *fakeIntel) Analyze(_ context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	f.mu.Lock()
	f.analyzeCalls[req.Name]++
	call := f.analyzeCalls[req.Name]
	fn := f.analyze
	f.mu.Unlock()

	if fn == nil {
		return domain.AnalysisResult{Scene: "park", Objects: []string{"tree"}, DominantEmotion: "joy", Sentiment: domain.SentimentPositive}, nil
	}
	return fn(call, req)
}

func (f *fakeIntel) Cluster(_ context.Context, items []domain.ClusterInput) ([]domain.AlbumDraft, error) {
	f.mu.Lock()
	f.clusterCalls++
	fn := f.cluster
	f.mu.Unlock()

	if fn == nil {
		members := make([]domain.ItemID, 0, len(items))
		for _, it := range items {
			members = append(members, it.ID)
		}
		return []domain.AlbumDraft{{Title: "Everything", Members: members, Category: domain.CategoryEvent}}, nil
	}
	return fn(items)
}

func (f *fakeIntel) Optimize(_ context.Context, items []domain.OptimizeInput) ([]string, error) {
	f.mu.Lock()
	f.optimizeCalls++
	fn := f.optimize
	f.mu.Unlock()

	if fn == nil {
		return []string{"Remove duplicate park shots", "Archive blurry frames"}, nil
	}
	return fn(items)
}

func (f *fakeIntel) Search(_ context.Context, query string, items []domain.SearchContext) ([]domain.ItemID, error) {
	f.mu.Lock()
	f.searchCalls++
	fn := f.search
	f.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(query, items)
}

func (f *fakeIntel) calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzeCalls[name]
}

func (f *fakeIntel) counts() (cluster, optimize, search int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clusterCalls, f.optimizeCalls, f.searchCalls
}

type fakeReader struct {
	fail map[string]bool
}

func (r fakeReader) Read(_ context.Context, item domain.Item) ([]byte, error) {
	if r.fail[item.Name] {
		return nil, errors.New("permission denied")
	}
	return []byte(item.Name), nil
}

type rateLimitErr struct{}

func (rateLimitErr) Error() string   { return "RESOURCE_EXHAUSTED: quota" }
func (rateLimitErr) StatusCode() int { return 429 }

func fastPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 3, InitialDelay: time.Millisecond}
}

func newTestOrchestrator(intel *fakeIntel, reader fakeReader) *Orchestrator {
	return NewOrchestrator(OrchestratorDeps{
		Intelligence: intel,
		Reader:       reader,
		Activity:     activity.NewLog(200, nil),
		Retry:        fastPolicy(),
		MaxInFlight:  4,
	})
}

func uploads(sizes map[string]int64, names ...string) []domain.Upload {
	out := make([]domain.Upload, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Upload{Name: n, Size: sizes[n], MediaType: "image/jpeg", Locator: "/photos/" + n})
	}
	return out
}

func hasEntry(entries []domain.ActivityEntry, severity domain.Severity, substr string) bool {
	for _, e := range entries {
		if e.Severity == severity && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

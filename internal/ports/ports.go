package ports

import (
	"context"
	"time"

	"PhotoCurator/internal/domain"
)

// UploadSource lists raw files available for ingestion.
type UploadSource interface {
	Fetch(ctx context.Context) ([]domain.Upload, error)
}

// ContentReader loads the raw bytes of an ingested item.
type ContentReader interface {
	Read(ctx context.Context, item domain.Item) ([]byte, error)
}

// Analyzer classifies a single image.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}

// Clusterer groups completed items into album proposals.
type Clusterer interface {
	Cluster(ctx context.Context, items []domain.ClusterInput) ([]domain.AlbumDraft, error)
}

// Optimizer suggests storage optimizations for a collection.
type Optimizer interface {
	Optimize(ctx context.Context, items []domain.OptimizeInput) ([]string, error)
}

// Searcher matches a free-text query against item descriptions.
type Searcher interface {
	Search(ctx context.Context, query string, items []domain.SearchContext) ([]domain.ItemID, error)
}

// Intelligence bundles every capability of the external intelligence service.
type Intelligence interface {
	Analyzer
	Clusterer
	Optimizer
	Searcher
}

// Notifier forwards activity entries to an outbound channel (Telegram, etc.).
type Notifier interface {
	Notify(ctx context.Context, entry domain.ActivityEntry) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

package parser

import (
	"context"
	"fmt"
	"log/slog"

	"PhotoCurator/internal/config"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/ports"
	"PhotoCurator/internal/scanner"
)

// StrategySource implements UploadSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.UploadSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// Fetch iterates over configured sources and executes their scanners.
func (s *StrategySource) Fetch(ctx context.Context) ([]domain.Upload, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch uploads", "sources", len(s.sources))

	var aggregated []domain.Upload
	for _, src := range s.sources {
		loader := src.Loader
		if loader == "" {
			loader = "dir"
		}
		s.debug("process source", "source", src.Name, "scanner", loader, "path", src.Path)
		strategy, err := s.registry.Resolve(loader)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		results, err := strategy.Scan(ctx, scanner.Request{
			SourceName: src.Name,
			Path:       src.Path,
			Options:    src.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("scan source %s: %w", src.Name, err)
		}

		s.debug("source produced uploads", "source", src.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_uploads", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

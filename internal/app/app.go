package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"PhotoCurator/internal/activity"
	"PhotoCurator/internal/config"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/infrastructure/llm"
	"PhotoCurator/internal/infrastructure/ml"
	"PhotoCurator/internal/infrastructure/parser"
	"PhotoCurator/internal/infrastructure/scheduler"
	"PhotoCurator/internal/infrastructure/telegram"
	"PhotoCurator/internal/logging"
	"PhotoCurator/internal/metrics"
	"PhotoCurator/internal/ports"
	"PhotoCurator/internal/report"
	"PhotoCurator/internal/retry"
	"PhotoCurator/internal/scanner"
	"PhotoCurator/internal/usecase"
	"PhotoCurator/internal/view"
)

const notifyTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	scanners     *scanner.Registry
	orchestrator *usecase.Orchestrator
	metrics      *metrics.Recorder

	notifications sync.WaitGroup
}

// RunOptions describes a single ingestion pass.
type RunOptions struct {
	// Paths override the configured sources. Directories are scanned, HTML
	// pages have their images collected.
	Paths    []string
	Tab      view.Tab
	Query    string
	Passcode string
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	return newApplication(cfg, baseLogger, nil)
}

func newApplication(cfg config.Config, baseLogger *slog.Logger, intel ports.Intelligence) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewDirScanner())
	registry.Register(parser.NewPageScanner(nil, baseLogger.With("component", "scanner.html")))

	if intel == nil {
		intel = newIntelligence(cfg.Intelligence)
	}

	recorder := metrics.New()
	log := activity.NewLog(cfg.Activity.MaxEntries, baseLogger.With("component", "activity"))

	app := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		scanners: registry,
		metrics:  recorder,
	}

	tg := cfg.Notifications.Telegram
	if notifier := telegram.NewNotifier(tg.BotToken, tg.ChatID); notifier.Configured() {
		log.Subscribe(app.forwardAlerts(notifier))
	}

	app.orchestrator = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Intelligence: intel,
		Reader:       parser.NewContentReader(nil),
		Activity:     log,
		Metrics:      recorder,
		Logger:       baseLogger.With("component", "orchestrator"),
		Retry:        retry.Policy{MaxRetries: cfg.Retry.MaxRetries, InitialDelay: cfg.Retry.InitialDelay},
		Stagger:      cfg.Dispatch.Stagger,
		MaxInFlight:  cfg.Dispatch.MaxInFlight,
		Passcode:     cfg.Vault.Passcode,
	})
	return app
}

func newIntelligence(cfg config.IntelligenceConfig) ports.Intelligence {
	if cfg.Provider == config.ProviderChatGPT {
		return llm.NewChatGPTClient(cfg)
	}
	return ml.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
}

// Orchestrator exposes the orchestration state.
func (a *Application) Orchestrator() *usecase.Orchestrator {
	return a.orchestrator
}

// Run ingests every upload once, waits for analysis and aggregation to
// settle, then applies the requested search and tab.
func (a *Application) Run(ctx context.Context, opts RunOptions) (report.Data, error) {
	source := a.source(opts.Paths)
	uploads, err := source.Fetch(ctx)
	if err != nil {
		return report.Data{}, fmt.Errorf("fetch uploads: %w", err)
	}
	a.logger.Info("uploads listed", "count", len(uploads))

	a.orchestrator.Ingest(ctx, uploads)
	a.orchestrator.Wait()

	if opts.Query != "" {
		if _, err := a.orchestrator.Search(ctx, opts.Query); err != nil {
			a.logger.Warn("search failed", "query", opts.Query, "error", err)
		}
	}
	a.applyTab(opts.Tab, opts.Passcode)

	a.flush()
	return report.Snapshot(a.orchestrator), nil
}

// Watch polls the sources on the configured interval until ctx ends.
func (a *Application) Watch(ctx context.Context, paths []string) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Watch.Interval)
	watcher := usecase.NewWatcher(driver, a.source(paths), a.orchestrator, a.logger.With("component", "watcher"))

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	a.logger.Info("watching sources", "interval", a.cfg.Watch.Interval)
	srv := a.serveMetrics()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(stopCtx); err != nil {
			a.logger.Warn("stop metrics server", "error", err)
		}
	}
	if err := watcher.Stop(stopCtx); err != nil {
		a.logger.Warn("stop watcher", "error", err)
	}
	a.orchestrator.Wait()
	a.flush()
	return nil
}

// serveMetrics exposes /metrics on the configured address, if any.
func (a *Application) serveMetrics() *http.Server {
	if a.cfg.Metrics.Listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: a.cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server", "addr", srv.Addr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", srv.Addr)
	return srv
}

func (a *Application) source(paths []string) ports.UploadSource {
	sources := a.cfg.Sources
	if len(paths) > 0 {
		sources = make([]config.SourceConfig, 0, len(paths))
		for _, p := range paths {
			sources = append(sources, sourceForPath(p))
		}
	}
	return parser.NewStrategySource(a.scanners, sources, a.logger.With("component", "source"))
}

func sourceForPath(p string) config.SourceConfig {
	loader := "dir"
	lower := strings.ToLower(p)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") ||
		strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		loader = "html"
	}
	return config.SourceConfig{
		Name:    filepath.Base(p),
		Loader:  loader,
		Path:    p,
		Options: map[string]string{"recursive": "true"},
	}
}

func (a *Application) applyTab(tab view.Tab, passcode string) {
	if tab == "" {
		return
	}
	if tab == view.TabPrivacy {
		if passcode == "" {
			a.logger.Warn("privacy tab requested without passcode")
		} else {
			a.orchestrator.Unlock(passcode)
		}
		return
	}
	a.orchestrator.SelectTab(tab)
}

// forwardAlerts relays alert entries to notifier without blocking the log.
func (a *Application) forwardAlerts(notifier ports.Notifier) activity.Subscriber {
	return func(entry domain.ActivityEntry) {
		if entry.Severity != domain.SeverityAlert {
			return
		}
		a.notifications.Add(1)
		go func() {
			defer a.notifications.Done()
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if err := notifier.Notify(ctx, entry); err != nil {
				a.logger.Warn("notify", "agent", entry.Agent, "error", err)
			}
		}()
	}
}

// flush waits for pending notifications and writes the metrics textfile.
func (a *Application) flush() {
	a.notifications.Wait()
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("metrics textfile", "error", err)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"PhotoCurator/internal/app"
	"PhotoCurator/internal/config"
	"PhotoCurator/internal/logging"
	"PhotoCurator/internal/report"
	"PhotoCurator/internal/view"
)

type globalFlags struct {
	configPath string
	logLevel   string
	metricsOut string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "photocurator",
		Short: "Analyze, cluster and search a photo collection",
		Long: `photocurator sends each photo to an intelligence service for analysis,
groups the analyzed collection into albums and keeps sensitive documents
behind a passcode-protected vault.

Commands:
  run       Analyze the given directories or pages once and print a report
  watch     Poll the sources and analyze new photos as they appear`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML config (defaults to $PHOTOCURATOR_CONFIG)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging level")
	root.PersistentFlags().StringVar(&flags.metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newWatchCommand(flags))
	return root
}

func (g *globalFlags) load() config.Config {
	cfg := config.Load(g.configPath)
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.metricsOut != "" {
		cfg.Metrics.Textfile = g.metricsOut
	}
	return cfg
}

func newRunCommand(flags *globalFlags) *cobra.Command {
	var (
		tabName  string
		query    string
		passcode string
		activity int
	)
	cmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Analyze photos once and print the resulting view",
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := view.ParseTab(tabName)
			if err != nil {
				return err
			}

			cfg := flags.load()
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)
			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			data, err := app.New(cfg, logger).Run(ctx, app.RunOptions{
				Paths:    args,
				Tab:      tab,
				Query:    query,
				Passcode: passcode,
			})
			if err != nil {
				return err
			}
			data.ActivityLimit = activity
			return report.Render(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVar(&tabName, "tab", string(view.TabAll), "view to print: all, memories, privacy or emotion")
	cmd.Flags().StringVarP(&query, "query", "q", "", "natural-language search applied after analysis")
	cmd.Flags().StringVar(&passcode, "passcode", "", "vault passcode, required for the privacy tab")
	cmd.Flags().IntVar(&activity, "activity", 15, "number of activity entries to print (0 for all)")
	return cmd
}

func newWatchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path...]",
		Short: "Poll sources and analyze new photos until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.load()
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)
			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.New(cfg, logger)
			if err := application.Watch(ctx, args); err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), report.Snapshot(application.Orchestrator()))
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

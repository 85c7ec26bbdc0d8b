package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yorkulibraries/spacemetrics/internal/dashboard"
	"github.com/yorkulibraries/spacemetrics/internal/history"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Generate the static dashboard from recorded runs",
	Long:  "Render index.html and time_series_data.json from the run history database.",
	RunE:  runDashboard,
}

var dashboardDocsDir string

func init() {
	dashboardCmd.Flags().StringVar(&dashboardDocsDir, "docs-dir", "", "output directory for the static site (overrides config)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if dashboardDocsDir != "" {
		cfg.Dashboard.DocsDir = dashboardDocsDir
	}

	tz, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	store, err := history.NewStore(cfg.History.Path, &logger)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := dashboard.NewGenerator(store, cfg.Dashboard.DocsDir, cfg.Dashboard.RedCeilingDays, tz, logger)
	if err := gen.Generate(ctx); err != nil {
		return err
	}
	logger.Info().Str("docs_dir", cfg.Dashboard.DocsDir).Msg("dashboard written")
	return nil
}

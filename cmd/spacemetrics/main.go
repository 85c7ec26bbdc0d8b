package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yorkulibraries/spacemetrics/internal/config"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "spacemetrics",
	Short: "LibCal space booking capacity reporting",
	Long:  "spacemetrics pulls opening hours and bookings from the LibCal API and reports per-space utilization over forward-looking windows.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: SPACEMETRICS_CONFIG or configs/config.yaml)")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the YAML config and sets up the logger. Called by commands
// that need configuration.
func loadConfig() error {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger = zerolog.New(output).With().Timestamp().Logger()

	config.LoadDotenv()

	path := configPath
	if path == "" {
		path = os.Getenv("SPACEMETRICS_CONFIG")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

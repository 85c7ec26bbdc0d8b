package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/yorkulibraries/spacemetrics/internal/analyzer"
	"github.com/yorkulibraries/spacemetrics/internal/availability"
	"github.com/yorkulibraries/spacemetrics/internal/history"
	"github.com/yorkulibraries/spacemetrics/internal/libcal"
	"github.com/yorkulibraries/spacemetrics/internal/metrics"
	"github.com/yorkulibraries/spacemetrics/internal/report"
	"github.com/yorkulibraries/spacemetrics/internal/spaces"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the booking analysis and write reports",
	Long:  "Load the space roster, pull hours and bookings from LibCal, and write the console summary and dated CSV report.",
	RunE:  runAnalyze,
}

var (
	analyzeInput    string
	analyzeOutput   string
	analyzeWindow   int
	analyzeDuration float64
	analyzeExcel    bool
)

const leadTimeTopN = 10

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "roster CSV path (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "output CSV path template, {date} expands to YYYYMMDD (overrides config)")
	analyzeCmd.Flags().IntVar(&analyzeWindow, "window", 0, "analysis horizon in weeks (overrides config)")
	analyzeCmd.Flags().Float64Var(&analyzeDuration, "duration", 0, "next-slot search duration in hours (overrides config)")
	analyzeCmd.Flags().BoolVar(&analyzeExcel, "excel", false, "also write an .xlsx workbook next to the CSV")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	applyAnalyzeFlags()

	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}
	tz, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	roster, err := spaces.LoadRoster(cfg.Report.Input)
	if err != nil {
		return err
	}
	logger.Info().Int("spaces", len(roster)).Str("input", cfg.Report.Input).Msg("roster loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	if cfg.Monitoring.MetricsEnabled {
		if cfg.Monitoring.MetricsPort == 0 {
			cfg.Monitoring.MetricsPort = 9090
		}
		go metrics.Serve(ctx, cfg.Monitoring.MetricsPort, &logger)
	}

	client := libcal.NewClient(ctx, libcal.Options{
		BaseURL:           cfg.API.BaseURL,
		ClientID:          cfg.API.ClientID,
		ClientSecret:      cfg.API.ClientSecret,
		Timeout:           cfg.APITimeout(),
		RequestsPerSecond: cfg.Limits.RequestsPerSecond,
		HoursMaxDays:      cfg.Limits.HoursMaxDays,
		BookingsPageLimit: cfg.Limits.BookingsPageLimit,
		Timezone:          tz,
		Logger:            logger,
	})
	if cfg.Redis.Address != "" && cfg.Redis.CacheTTLSeconds > 0 {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		client.UseRedisCache(rdb, cfg.CacheTTL())
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis response cache enabled")
	}

	if err := client.VerifyToken(ctx); err != nil {
		return fmt.Errorf("verify API credentials: %w", err)
	}
	logger.Info().Msg("API token verified")

	slot := time.Duration(cfg.Analysis.DurationHours * float64(time.Hour))
	engine := availability.NewEngine(slot)
	a := analyzer.New(client, engine, tz, cfg.Analysis.WindowWeeks, logger)

	results, err := a.Run(ctx, roster)
	if err != nil {
		return err
	}

	groups := report.Rollup(results)
	report.ConsoleSummary(os.Stdout, groups)
	report.ConsoleLeadTimes(os.Stdout, report.LongestLeadTimes(results, leadTimeTopN))

	now := time.Now().In(tz)
	outPath := report.DatedPath(cfg.Report.Output, now)
	if err := report.WriteCSV(outPath, results); err != nil {
		return fmt.Errorf("write CSV report: %w", err)
	}
	logger.Info().Str("path", outPath).Int("spaces", len(results)).Msg("CSV report written")

	if cfg.Report.Excel {
		xlsxPath := excelPath(outPath)
		if err := report.WriteExcel(xlsxPath, groups, results); err != nil {
			return fmt.Errorf("write Excel report: %w", err)
		}
		logger.Info().Str("path", xlsxPath).Msg("Excel report written")
	}

	if cfg.History.Enabled {
		if err := recordHistory(ctx, now, results); err != nil {
			// History is a dashboard input, not a report output; the run
			// already produced its reports at this point.
			logger.Error().Err(err).Msg("record run history failed")
		}
	}
	return nil
}

func applyAnalyzeFlags() {
	if analyzeInput != "" {
		cfg.Report.Input = analyzeInput
	}
	if analyzeOutput != "" {
		cfg.Report.Output = analyzeOutput
	}
	if analyzeWindow > 0 {
		cfg.Analysis.WindowWeeks = analyzeWindow
	}
	if analyzeDuration > 0 {
		cfg.Analysis.DurationHours = analyzeDuration
	}
	if analyzeExcel {
		cfg.Report.Excel = true
	}
}

func excelPath(csvPath string) string {
	if len(csvPath) > 4 && csvPath[len(csvPath)-4:] == ".csv" {
		return csvPath[:len(csvPath)-4] + ".xlsx"
	}
	return csvPath + ".xlsx"
}

func recordHistory(ctx context.Context, now time.Time, results []analyzer.SpaceResult) error {
	store, err := history.NewStore(cfg.History.Path, &logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rows := historyRows(results)
	runID := uuid.NewString()
	slotMinutes := int(cfg.Analysis.DurationHours * 60)
	if err := store.RecordRun(ctx, runID, now, cfg.Analysis.WindowWeeks, slotMinutes, rows); err != nil {
		return err
	}
	logger.Info().Str("run_id", runID).Int("rows", len(rows)).Msg("run recorded")
	return nil
}

func historyRows(results []analyzer.SpaceResult) []history.Row {
	var rows []history.Row
	for _, res := range results {
		var next *string
		if res.NextAvailable != nil {
			s := res.NextAvailable.Format("2006-01-02 15:04")
			next = &s
		}
		for _, m := range res.Metrics {
			rows = append(rows, history.Row{
				SpaceID:       res.Space.SpaceID,
				SpaceName:     res.Space.SpaceName,
				CategoryName:  res.Space.CategoryName,
				LocationName:  res.Space.LocationName,
				Window:        m.Window.Name,
				BookingRate:   m.Rate,
				AvailableHrs:  m.AvailableHours,
				BookedHrs:     m.BookedHours,
				BookingCount:  m.BookingCount,
				NextAvailable: next,
			})
		}
	}
	return rows
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL        string `yaml:"base_url"`
		ClientID       string `yaml:"client_id"`
		ClientSecret   string `yaml:"client_secret"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`

	Timezone string `yaml:"timezone"`

	Limits struct {
		HoursMaxDays      int     `yaml:"hours_max_days"`
		BookingsPageLimit int     `yaml:"bookings_page_limit"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"limits"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		MetricsEnabled bool `yaml:"metrics_enabled"`
		MetricsPort    int  `yaml:"metrics_port"`
	} `yaml:"monitoring"`

	History struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"history"`

	Report struct {
		Input  string `yaml:"input"`
		Output string `yaml:"output"` // {date} expands to YYYYMMDD
		Excel  bool   `yaml:"excel"`
	} `yaml:"report"`

	Dashboard struct {
		DocsDir        string `yaml:"docs_dir"`
		RedCeilingDays int    `yaml:"red_ceiling_days"`
	} `yaml:"dashboard"`

	Analysis struct {
		WindowWeeks   int     `yaml:"window_weeks"`
		DurationHours float64 `yaml:"duration_hours"`
	} `yaml:"analysis"`
}

// LoadDotenv loads a .env file if one exists. Missing files are not an error;
// credentials commonly arrive through the real environment in CI.
func LoadDotenv() {
	_ = godotenv.Load()
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.History.Enabled {
		if err = os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://yorku.libcal.com/api/1.1"
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.Timezone == "" {
		c.Timezone = "America/Toronto"
	}
	if c.Limits.HoursMaxDays <= 0 {
		c.Limits.HoursMaxDays = 100
	}
	if c.Limits.BookingsPageLimit <= 0 {
		c.Limits.BookingsPageLimit = 150
	}
	if c.Limits.RequestsPerSecond <= 0 {
		c.Limits.RequestsPerSecond = 5
	}
	if c.History.Path == "" {
		c.History.Path = "data/history.db"
	}
	if c.Report.Input == "" {
		c.Report.Input = "input/spaces_to_analyze.csv"
	}
	if c.Report.Output == "" {
		c.Report.Output = "output/space_booking_analysis_{date}.csv"
	}
	if c.Dashboard.DocsDir == "" {
		c.Dashboard.DocsDir = "docs"
	}
	if c.Dashboard.RedCeilingDays <= 0 {
		c.Dashboard.RedCeilingDays = 14
	}
	if c.Analysis.WindowWeeks <= 0 {
		c.Analysis.WindowWeeks = 13
	}
	if c.Analysis.DurationHours <= 0 {
		c.Analysis.DurationHours = 3
	}
}

// ValidateCredentials checks that OAuth credentials are present before a run.
func (c *Config) ValidateCredentials() error {
	if c.API.ClientID == "" || c.API.ClientSecret == "" {
		return fmt.Errorf("oauth credentials not found: set LIBCAL_CLIENT_ID and LIBCAL_CLIENT_SECRET")
	}
	return nil
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

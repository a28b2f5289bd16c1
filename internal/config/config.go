package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"StonksBot/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingConfig is returned by Validate when a required value is absent.
var ErrMissingConfig = errors.New("missing configuration")

// Publish error policies.
const (
	PolicyAbort    = "abort"
	PolicyContinue = "continue"
)

// Run modes.
const (
	ModeOnce   = "once"
	ModeDaemon = "daemon"
)

// Config holds all application configuration.
type Config struct {
	Bluesky struct {
		Host     string `yaml:"host"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		AltText  string `yaml:"alt_text"`
	} `yaml:"bluesky"`
	DataSource struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		LookbackDays int    `yaml:"lookback_days"`
	} `yaml:"data_source"`
	Indices []model.Index `yaml:"indices"`
	Images  struct {
		Rising    string  `yaml:"rising"`
		Falling   string  `yaml:"falling"`
		MaxSizeKB float64 `yaml:"max_size_kb"`
	} `yaml:"images"`
	Run struct {
		Mode           string `yaml:"mode"`
		Cron           string `yaml:"cron"`
		DryRun         bool   `yaml:"dry_run"`
		OnPublishError string `yaml:"on_publish_error"`
	} `yaml:"run"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// DefaultIndices are posted when the config names none.
var DefaultIndices = []model.Index{
	{Symbol: "^DJI", Name: "Dow Jones"},
	{Symbol: "^GSPC", Name: "S&P 500"},
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file in the working directory is loaded into the
// environment first; variables already set to a non-empty value win.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BLUESKY_USERNAME"); v != "" {
		cfg.Bluesky.Username = v
	}
	if v := os.Getenv("BLUESKY_PASSWORD"); v != "" {
		cfg.Bluesky.Password = v
	}
	if v := os.Getenv("BLUESKY_HOST"); v != "" {
		cfg.Bluesky.Host = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("RUN_MODE"); v != "" {
		cfg.Run.Mode = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Run.Cron = v
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Run.DryRun = b
		}
	}
	if v := os.Getenv("PUBLISH_ERROR_POLICY"); v != "" {
		cfg.Run.OnPublishError = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if len(cfg.Indices) == 0 {
		cfg.Indices = append([]model.Index(nil), DefaultIndices...)
	}
	if cfg.Bluesky.Host == "" {
		cfg.Bluesky.Host = "https://bsky.social"
	}
	if cfg.Bluesky.AltText == "" {
		cfg.Bluesky.AltText = "Market Update"
	}
	if cfg.DataSource.LookbackDays == 0 {
		cfg.DataSource.LookbackDays = 5
	}
	if cfg.Images.Rising == "" {
		cfg.Images.Rising = "images/stonks.png"
	}
	if cfg.Images.Falling == "" {
		cfg.Images.Falling = "images/not_stonks.png"
	}
	if cfg.Images.MaxSizeKB == 0 {
		cfg.Images.MaxSizeKB = 970
	}
	if cfg.Run.Mode == "" {
		cfg.Run.Mode = ModeOnce
	}
	if cfg.Run.Cron == "" {
		cfg.Run.Cron = "0 30 16 * * 1-5"
	}
	if cfg.Run.OnPublishError == "" {
		cfg.Run.OnPublishError = PolicyAbort
	}

	return cfg, nil
}

// loadDotEnv copies values from the .env file into the environment for every
// variable that is unset or empty. A missing file is not an error.
func loadDotEnv(path string) error {
	vals, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	for k, v := range vals {
		if os.Getenv(k) != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("set %s from .env: %w", k, err)
		}
	}
	return nil
}

// Validate checks that all required fields are set. It runs before any
// network call so a missing credential is reported by name.
func (c *Config) Validate() error {
	if !c.Run.DryRun {
		if c.Bluesky.Username == "" {
			return fmt.Errorf("%w: BLUESKY_USERNAME (bluesky.username) is required", ErrMissingConfig)
		}
		if c.Bluesky.Password == "" {
			return fmt.Errorf("%w: BLUESKY_PASSWORD (bluesky.password) is required", ErrMissingConfig)
		}
	}
	if c.Images.Rising == "" || c.Images.Falling == "" {
		return fmt.Errorf("%w: images.rising and images.falling are required", ErrMissingConfig)
	}
	for i, idx := range c.Indices {
		if idx.Symbol == "" || idx.Name == "" {
			return fmt.Errorf("indices[%d]: symbol and name are required", i)
		}
	}
	if c.DataSource.LookbackDays < 2 {
		return fmt.Errorf("data_source.lookback_days must be at least 2")
	}
	if c.Images.MaxSizeKB <= 0 {
		return fmt.Errorf("images.max_size_kb must be positive")
	}
	switch c.Run.OnPublishError {
	case PolicyAbort, PolicyContinue:
	default:
		return fmt.Errorf("run.on_publish_error must be %q or %q, got %q", PolicyAbort, PolicyContinue, c.Run.OnPublishError)
	}
	switch c.Run.Mode {
	case ModeOnce, ModeDaemon:
	default:
		return fmt.Errorf("run.mode must be %q or %q, got %q", ModeOnce, ModeDaemon, c.Run.Mode)
	}
	return nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var envKeys = []string{
	"BLUESKY_USERNAME", "BLUESKY_PASSWORD", "BLUESKY_HOST", "DATA_BASE_URL", "DATA_API_KEY",
	"HTTPS_PROXY", "RUN_MODE", "CRON_SCHEDULE", "DRY_RUN", "PUBLISH_ERROR_POLICY", "SQLITE_PATH",
}

// isolate runs the test in an empty directory with all config env vars cleared.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Indices) != 2 || cfg.Indices[0].Symbol != "^DJI" || cfg.Indices[1].Name != "S&P 500" {
		t.Errorf("unexpected default indices %+v", cfg.Indices)
	}
	if cfg.Images.MaxSizeKB != 970 {
		t.Errorf("MaxSizeKB = %v, want 970", cfg.Images.MaxSizeKB)
	}
	if cfg.Images.Rising != "images/stonks.png" || cfg.Images.Falling != "images/not_stonks.png" {
		t.Errorf("unexpected image paths %+v", cfg.Images)
	}
	if cfg.Run.OnPublishError != PolicyAbort || cfg.Run.Mode != ModeOnce {
		t.Errorf("unexpected run defaults %+v", cfg.Run)
	}
	if cfg.DataSource.LookbackDays != 5 {
		t.Errorf("LookbackDays = %d, want 5", cfg.DataSource.LookbackDays)
	}
	if cfg.Bluesky.AltText != "Market Update" {
		t.Errorf("AltText = %q", cfg.Bluesky.AltText)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
bluesky:
  username: file-user
  password: file-pass
indices:
  - symbol: "^IXIC"
    name: Nasdaq
images:
  max_size_kb: 500
run:
  on_publish_error: continue
`)
	t.Setenv("BLUESKY_PASSWORD", "env-pass")
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bluesky.Username != "file-user" {
		t.Errorf("Username = %q", cfg.Bluesky.Username)
	}
	if cfg.Bluesky.Password != "env-pass" {
		t.Errorf("env override not applied: %q", cfg.Bluesky.Password)
	}
	if len(cfg.Indices) != 1 || cfg.Indices[0].Name != "Nasdaq" {
		t.Errorf("Indices = %+v", cfg.Indices)
	}
	if cfg.Images.MaxSizeKB != 500 || cfg.Run.OnPublishError != PolicyContinue || !cfg.Run.DryRun {
		t.Errorf("file values not applied: %+v %+v", cfg.Images, cfg.Run)
	}
}

func TestLoad_DotEnvFillsEmptyVars(t *testing.T) {
	// isolate leaves the credential variables set to "".
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "BLUESKY_USERNAME=dotenv-user\nBLUESKY_PASSWORD=dotenv-pass\n")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bluesky.Username != "dotenv-user" || cfg.Bluesky.Password != "dotenv-pass" {
		t.Errorf("dotenv not applied: %q / %q", cfg.Bluesky.Username, cfg.Bluesky.Password)
	}
}

func TestLoad_DotEnvDoesNotOverrideSetVars(t *testing.T) {
	dir := isolate(t)
	t.Setenv("BLUESKY_USERNAME", "env-user")
	writeFile(t, filepath.Join(dir, ".env"), "BLUESKY_USERNAME=dotenv-user\nBLUESKY_PASSWORD=dotenv-pass\n")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bluesky.Username != "env-user" {
		t.Errorf("Username = %q, want env-user", cfg.Bluesky.Username)
	}
	if cfg.Bluesky.Password != "dotenv-pass" {
		t.Errorf("Password = %q, want dotenv-pass", cfg.Bluesky.Password)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "indices: [unterminated")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = cfg.Validate()
	if !errors.Is(err, ErrMissingConfig) || !strings.Contains(err.Error(), "BLUESKY_USERNAME") {
		t.Errorf("err = %v, want missing BLUESKY_USERNAME", err)
	}

	cfg.Bluesky.Username = "user"
	err = cfg.Validate()
	if !errors.Is(err, ErrMissingConfig) || !strings.Contains(err.Error(), "BLUESKY_PASSWORD") {
		t.Errorf("err = %v, want missing BLUESKY_PASSWORD", err)
	}

	cfg.Bluesky.Password = "pass"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_DryRunNeedsNoCredentials(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Run.DryRun = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	dir := isolate(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"policy", func(c *Config) { c.Run.OnPublishError = "retry" }, "on_publish_error"},
		{"mode", func(c *Config) { c.Run.Mode = "forever" }, "run.mode"},
		{"lookback", func(c *Config) { c.DataSource.LookbackDays = 1 }, "lookback_days"},
		{"max size", func(c *Config) { c.Images.MaxSizeKB = -1 }, "max_size_kb"},
		{"index name", func(c *Config) { c.Indices[0].Name = "" }, "indices[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(dir, "missing.yaml"))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			cfg.Bluesky.Username, cfg.Bluesky.Password = "u", "p"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

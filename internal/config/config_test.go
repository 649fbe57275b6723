package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("missing file reported as found")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Matching.Threshold != defaultThreshold {
		t.Errorf("threshold = %g", cfg.Matching.Threshold)
	}
	if cfg.Parallel.Workers != defaultWorkers {
		t.Errorf("workers = %d", cfg.Parallel.Workers)
	}
	if !cfg.Matching.UseISBN {
		t.Error("use_isbn default = false")
	}
	if cfg.Input.Shelf != defaultShelf {
		t.Errorf("shelf = %q", cfg.Input.Shelf)
	}
}

func TestDefaultPriceCeiling(t *testing.T) {
	cfg := Default()
	if got := cfg.PriceCeilingCents(); got != 5000 {
		t.Errorf("PriceCeilingCents = %d, want 5000", got)
	}

	// An explicit zero turns the flag off; only an absent key keeps the
	// default.
	path := writeConfig(t, "[matching]\nprice_ceiling = 0.0\n")
	loaded, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.PriceCeilingCents(); got != 0 {
		t.Errorf("explicit zero ceiling = %d cents, want 0", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[input]
shelf = "owned"

[matching]
threshold = 75.5
require_author_match = true
price_ceiling = 12.99

[parallel]
workers = 8
delay_ms = 100

[output]
format = "markdown"
`)
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("config file not found")
	}
	if cfg.Input.Shelf != "owned" {
		t.Errorf("shelf = %q", cfg.Input.Shelf)
	}
	if cfg.Matching.Threshold != 75.5 {
		t.Errorf("threshold = %g", cfg.Matching.Threshold)
	}
	if !cfg.Matching.RequireAuthorMatch {
		t.Error("require_author_match not applied")
	}
	if cfg.PriceCeilingCents() != 1299 {
		t.Errorf("PriceCeilingCents = %d", cfg.PriceCeilingCents())
	}
	if cfg.Parallel.Workers != 8 || cfg.Delay() != 100*time.Millisecond {
		t.Errorf("parallel = %+v", cfg.Parallel)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("format = %q", cfg.Output.Format)
	}

	// Untouched sections keep their defaults.
	if cfg.Matching.Weights != DefaultWeights() {
		t.Errorf("weights = %+v", cfg.Matching.Weights)
	}
	if cfg.BookOutlet.BaseURL != defaultBaseURL {
		t.Errorf("base_url = %q", cfg.BookOutlet.BaseURL)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"threshold high", func(c *Config) { c.Matching.Threshold = 101 }, "matching.threshold"},
		{"threshold negative", func(c *Config) { c.Matching.Threshold = -1 }, "matching.threshold"},
		{"weights sum", func(c *Config) { c.Matching.Weights.Ratio = 0.5 }, "sum to 1.0"},
		{"weight range", func(c *Config) {
			c.Matching.Weights = Weights{Ratio: -0.2, PartialRatio: 0.4, TokenSortRatio: 0.4, TokenSetRatio: 0.4}
		}, "matching.weights.ratio"},
		{"workers zero", func(c *Config) { c.Parallel.Workers = 0 }, "parallel.workers"},
		{"workers high", func(c *Config) { c.Parallel.Workers = 21 }, "parallel.workers"},
		{"delay high", func(c *Config) { c.Parallel.DelayMS = 5001 }, "parallel.delay_ms"},
		{"delay negative", func(c *Config) { c.Parallel.DelayMS = -1 }, "parallel.delay_ms"},
		{"price negative", func(c *Config) { c.Matching.PriceCeiling = -5 }, "price_ceiling"},
		{"bad format", func(c *Config) { c.Output.Format = "yaml" }, "output.format"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "pretty" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestWeightToleranceAccepted(t *testing.T) {
	cfg := Default()
	cfg.Matching.Weights = Weights{Ratio: 0.1501, PartialRatio: 0.20, TokenSortRatio: 0.25, TokenSetRatio: 0.40}
	if err := cfg.Validate(); err != nil {
		t.Errorf("weights within tolerance rejected: %v", err)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[matching\nthreshold = 90")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("malformed TOML accepted")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample not found after CreateSample")
	}
	defaults := Default()
	if cfg.Matching.Threshold != defaults.Matching.Threshold {
		t.Errorf("sample threshold = %g", cfg.Matching.Threshold)
	}
	if cfg.Matching.Weights != defaults.Matching.Weights {
		t.Errorf("sample weights = %+v", cfg.Matching.Weights)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/exports/books.csv")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "exports", "books.csv") {
		t.Errorf("ExpandPath = %q", got)
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Input describes the reading-list export to ingest.
type Input struct {
	Path  string `toml:"path"`
	Shelf string `toml:"shelf"`
}

// Weights is the similarity blend; the four values must sum to 1.0.
type Weights struct {
	Ratio          float64 `toml:"ratio"`
	PartialRatio   float64 `toml:"partial_ratio"`
	TokenSortRatio float64 `toml:"token_sort_ratio"`
	TokenSetRatio  float64 `toml:"token_set_ratio"`
}

// Matching contains the scoring knobs.
type Matching struct {
	Threshold          float64 `toml:"threshold"`
	UseISBN            bool    `toml:"use_isbn"`
	RequireAuthorMatch bool    `toml:"require_author_match"`
	// PriceCeiling flags (never rejects) matches above this dollar price.
	// Zero disables the flag.
	PriceCeiling float64 `toml:"price_ceiling"`
	Weights      Weights `toml:"weights"`
}

// Parallel contains worker pool settings.
type Parallel struct {
	Workers int `toml:"workers"`
	DelayMS int `toml:"delay_ms"`
}

// BookOutlet contains storefront client settings.
type BookOutlet struct {
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SearchCache contains configuration for the SQLite search result cache.
type SearchCache struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

// Output contains report settings.
type Output struct {
	Format string `toml:"format"`
	// Path is the report destination; empty writes to stdout.
	Path string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for bookmatch.
type Config struct {
	Input       Input       `toml:"input"`
	Matching    Matching    `toml:"matching"`
	Parallel    Parallel    `toml:"parallel"`
	BookOutlet  BookOutlet  `toml:"bookoutlet"`
	SearchCache SearchCache `toml:"search_cache"`
	Output      Output      `toml:"output"`
	Logging     Logging     `toml:"logging"`
}

// PriceCeilingCents converts the configured dollar ceiling to cents.
func (c *Config) PriceCeilingCents() int {
	if c.Matching.PriceCeiling <= 0 {
		return 0
	}
	return int(c.Matching.PriceCeiling*100 + 0.5)
}

// Delay returns the per-worker fetch delay.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Parallel.DelayMS) * time.Millisecond
}

// CacheTTL returns the search cache entry lifetime; zero means forever.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.SearchCache.TTLHours) * time.Hour
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bookmatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The bool reports
// whether a file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("bookmatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes a sample configuration file to the specified
// location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other
// packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

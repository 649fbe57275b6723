package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error

	c.Input.Shelf = strings.TrimSpace(c.Input.Shelf)
	if c.Input.Shelf == "" {
		c.Input.Shelf = defaultShelf
	}
	if c.Input.Path, err = expandPath(strings.TrimSpace(c.Input.Path)); err != nil {
		return fmt.Errorf("input.path: %w", err)
	}

	c.BookOutlet.BaseURL = strings.TrimRight(strings.TrimSpace(c.BookOutlet.BaseURL), "/")
	if c.BookOutlet.BaseURL == "" {
		c.BookOutlet.BaseURL = defaultBaseURL
	}
	c.BookOutlet.UserAgent = strings.TrimSpace(c.BookOutlet.UserAgent)
	if c.BookOutlet.TimeoutSeconds <= 0 {
		c.BookOutlet.TimeoutSeconds = defaultTimeoutSeconds
	}

	if strings.TrimSpace(c.SearchCache.Path) == "" {
		c.SearchCache.Path = defaultCachePath
	}
	if c.SearchCache.Path, err = expandPath(c.SearchCache.Path); err != nil {
		return fmt.Errorf("search_cache.path: %w", err)
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	if c.Output.Path, err = expandPath(strings.TrimSpace(c.Output.Path)); err != nil {
		return fmt.Errorf("output.path: %w", err)
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}

	return nil
}

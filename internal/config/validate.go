package config

import (
	"errors"
	"fmt"
	"math"

	"bookmatch/internal/output"
)

// weightSumTolerance absorbs float drift when users hand-edit weights.
const weightSumTolerance = 0.001

// Validate ensures the configuration is usable. It runs before any
// searching so misconfiguration never wastes a scrape.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateParallel(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 100 {
		return fmt.Errorf("matching.threshold must be between 0 and 100, got %g", c.Matching.Threshold)
	}
	if c.Matching.PriceCeiling < 0 {
		return errors.New("matching.price_ceiling must not be negative")
	}

	w := c.Matching.Weights
	for _, entry := range []struct {
		name  string
		value float64
	}{
		{"ratio", w.Ratio},
		{"partial_ratio", w.PartialRatio},
		{"token_sort_ratio", w.TokenSortRatio},
		{"token_set_ratio", w.TokenSetRatio},
	} {
		if entry.value < 0 || entry.value > 1 {
			return fmt.Errorf("matching.weights.%s must be between 0 and 1, got %g", entry.name, entry.value)
		}
	}
	sum := w.Ratio + w.PartialRatio + w.TokenSortRatio + w.TokenSetRatio
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("matching.weights must sum to 1.0, got %g", sum)
	}
	return nil
}

func (c *Config) validateParallel() error {
	if c.Parallel.Workers < 1 || c.Parallel.Workers > 20 {
		return fmt.Errorf("parallel.workers must be between 1 and 20, got %d", c.Parallel.Workers)
	}
	if c.Parallel.DelayMS < 0 || c.Parallel.DelayMS > 5000 {
		return fmt.Errorf("parallel.delay_ms must be between 0 and 5000, got %d", c.Parallel.DelayMS)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if _, err := output.Get(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

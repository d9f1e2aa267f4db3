package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateHLTB(); err != nil {
		return err
	}
	if err := c.validateMatch(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.db_path must be set")
	}
	return nil
}

func (c *Config) validateHLTB() error {
	if c.HLTB.RateLimitPerSec <= 0 {
		return errors.New("hltb.rate_limit_per_sec must be positive")
	}
	if c.HLTB.MaxRetries < 1 {
		return errors.New("hltb.max_retries must be at least 1")
	}
	if c.HLTB.BackoffMinSec <= 0 || c.HLTB.BackoffMaxSec < c.HLTB.BackoffMinSec {
		return errors.New("hltb backoff bounds must satisfy 0 < backoff_min_seconds <= backoff_max_seconds")
	}
	if c.HLTB.RequestTimeout <= 0 {
		return errors.New("hltb.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateMatch() error {
	if c.Match.AutoAccept <= 0 || c.Match.AutoAccept > 1 {
		return errors.New("match.auto_accept must be in (0, 1]")
	}
	if c.Match.ReviewFloor <= 0 || c.Match.ReviewFloor > 1 {
		return errors.New("match.review_floor must be in (0, 1]")
	}
	if c.Match.ReviewFloor >= c.Match.AutoAccept {
		return errors.New("match.review_floor must be below match.auto_accept")
	}
	if c.Match.MinMargin < 0 || c.Match.MinMargin >= 1 {
		return errors.New("match.min_margin must be in [0, 1)")
	}
	if c.Match.YearTolerance < 0 {
		return errors.New("match.year_tolerance must not be negative")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.FetchWorkers < 1 {
		return errors.New("pipeline.fetch_workers must be at least 1")
	}
	return nil
}

func (c *Config) validateExport() error {
	for _, format := range c.Export.Formats {
		switch format {
		case "csv", "jsonl":
		default:
			return fmt.Errorf("export.formats: unsupported format %q", format)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

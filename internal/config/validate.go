package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// CronParser is the five-field parser shared by validation and the scheduler.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateConverter(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConversion() error {
	if c.Conversion.AttemptLimit < 1 {
		return errors.New("conversion.attempt_limit must be at least 1")
	}
	if c.Conversion.BatchSize < 1 {
		return errors.New("conversion.batch_size must be at least 1")
	}
	return nil
}

func (c *Config) validateConverter() error {
	if c.Converter.BaseURL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Converter.BaseURL)
	if err != nil {
		return fmt.Errorf("converter.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("converter.base_url must use http or https, got %q", c.Converter.BaseURL)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if _, err := CronParser.Parse(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

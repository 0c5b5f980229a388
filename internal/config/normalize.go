package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeConversion(); err != nil {
		return err
	}
	c.normalizeConverter()
	c.normalizeSchedule()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConversion() error {
	if value, ok := os.LookupEnv("EDITPDF_CONVERSION_ATTEMPT_LIMIT"); ok && strings.TrimSpace(value) != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("EDITPDF_CONVERSION_ATTEMPT_LIMIT: %w", err)
		}
		c.Conversion.AttemptLimit = limit
	}
	if c.Conversion.AttemptLimit == 0 {
		c.Conversion.AttemptLimit = defaultAttemptLimit
	}
	if c.Conversion.BatchSize == 0 {
		c.Conversion.BatchSize = defaultBatchSize
	}
	if c.Conversion.BatchSize > MaxBatchSize {
		c.Conversion.BatchSize = MaxBatchSize
	}
	return nil
}

func (c *Config) normalizeConverter() {
	c.Converter.BaseURL = strings.TrimRight(strings.TrimSpace(c.Converter.BaseURL), "/")
	c.Converter.APIToken = strings.TrimSpace(c.Converter.APIToken)
	if c.Converter.APIToken == "" {
		if value, ok := os.LookupEnv("EDITPDF_CONVERTER_TOKEN"); ok {
			c.Converter.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Converter.TimeoutSeconds <= 0 {
		c.Converter.TimeoutSeconds = defaultConverterTimeout
	}
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Cron = strings.TrimSpace(c.Schedule.Cron)
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = defaultSchedule
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFilters()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SourceDir) != "" {
		if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
			return fmt.Errorf("paths.source_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFilters() {
	c.Filters.Prefixes = trimmed(c.Filters.Prefixes)

	suffixes := trimmed(c.Filters.Suffixes)
	if len(suffixes) == 0 {
		suffixes = append([]string(nil), defaultSuffixes...)
	}
	// Suffix matching is case-insensitive; store the canonical lowercase form
	// and let the scanner compare against lowered extensions.
	for i, suffix := range suffixes {
		if !strings.HasPrefix(suffix, ".") {
			suffix = "." + suffix
		}
		suffixes[i] = strings.ToLower(suffix)
	}
	c.Filters.Suffixes = suffixes

	c.Filters.Exclude = trimmed(c.Filters.Exclude)
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
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

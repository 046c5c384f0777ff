package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunValidate ensures the configuration can drive a copy run. It is called
// after CLI flags have been merged so flag-supplied paths are covered too.
func (c *Config) RunValidate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir is required (set it in the config file or pass --dir)")
	}
	info, err := os.Stat(c.Paths.SourceDir)
	if err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("paths.source_dir %q is not a directory", c.Paths.SourceDir)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir is required (set it in the config file or pass --out)")
	}
	// The output tree must not live anywhere under the input tree, or a second
	// run would re-scan its own output.
	if c.Paths.OutputDir == c.Paths.SourceDir || isUnder(c.Paths.OutputDir, c.Paths.SourceDir) {
		return fmt.Errorf("paths.output_dir %q must not be inside paths.source_dir %q", c.Paths.OutputDir, c.Paths.SourceDir)
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Workers < 0 {
		return errors.New("run.workers must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func isUnder(path, base string) bool {
	path = filepath.Clean(path)
	base = filepath.Clean(base)
	if path == base {
		return false
	}
	return strings.HasPrefix(path, base+string(filepath.Separator))
}

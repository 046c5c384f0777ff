package testsupport

import (
	"path/filepath"
	"testing"

	"snapsort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The source and output directories exist on return; the source tree is empty.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "source")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Run.AssumeYes = true

	for _, opt := range opts {
		opt(&cfg)
	}

	mkdir(t, cfg.Paths.SourceDir)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithWorkers pins the worker pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Run.Workers = n
	}
}

// WithSuffixes overrides the suffix filter on the test config.
func WithSuffixes(suffixes ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Filters.Suffixes = suffixes
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}

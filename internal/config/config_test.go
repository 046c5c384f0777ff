package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snapsort/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("exists = true for missing file %s", path)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("default logging = %+v", cfg.Logging)
	}
	if len(cfg.Filters.Suffixes) == 0 {
		t.Fatal("default suffix filter is empty")
	}
	if cfg.Paths.LogDir == "" || strings.HasPrefix(cfg.Paths.LogDir, "~") {
		t.Fatalf("log dir not expanded: %q", cfg.Paths.LogDir)
	}
}

func TestLoadNormalizesFilters(t *testing.T) {
	path := writeConfig(t, `
[filters]
prefixes = [" IMG ", ""]
suffixes = ["JPG", " .Mp4 "]
exclude = ["thumbs", " "]
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("config file not found")
	}
	if len(cfg.Filters.Prefixes) != 1 || cfg.Filters.Prefixes[0] != "IMG" {
		t.Fatalf("prefixes = %v, want [IMG]", cfg.Filters.Prefixes)
	}
	if len(cfg.Filters.Suffixes) != 2 || cfg.Filters.Suffixes[0] != ".jpg" || cfg.Filters.Suffixes[1] != ".mp4" {
		t.Fatalf("suffixes = %v, want [.jpg .mp4]", cfg.Filters.Suffixes)
	}
	if len(cfg.Filters.Exclude) != 1 || cfg.Filters.Exclude[0] != "thumbs" {
		t.Fatalf("exclude = %v, want [thumbs]", cfg.Filters.Exclude)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[paths\nsource_dir = nope")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "in")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	return &cfg
}

func TestRunValidate(t *testing.T) {
	t.Run("accepts valid config", func(t *testing.T) {
		if err := validConfig(t).RunValidate(); err != nil {
			t.Fatalf("RunValidate: %v", err)
		}
	})

	t.Run("requires source dir", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Paths.SourceDir = ""
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for empty source dir")
		}
	})

	t.Run("source must exist", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Paths.SourceDir = filepath.Join(t.TempDir(), "absent")
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for missing source dir")
		}
	})

	t.Run("source must be a directory", func(t *testing.T) {
		cfg := validConfig(t)
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		cfg.Paths.SourceDir = file
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for non-directory source")
		}
	})

	t.Run("requires output dir", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Paths.OutputDir = ""
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for empty output dir")
		}
	})

	t.Run("rejects output equal to source", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Paths.OutputDir = cfg.Paths.SourceDir
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for output == source")
		}
	})

	t.Run("rejects output nested under source", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Paths.OutputDir = filepath.Join(cfg.Paths.SourceDir, "deep", "sorted")
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for output under source")
		}
	})

	t.Run("rejects negative workers", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Run.Workers = -1
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for negative workers")
		}
	})

	t.Run("rejects unknown log format", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Logging.Format = "yaml"
		if err := cfg.RunValidate(); err == nil {
			t.Fatal("expected error for unknown log format")
		}
	})
}

func TestCreateSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("Load sample = (exists=%v, err=%v)", exists, err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := config.ExpandPath("~/photos")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "photos") {
		t.Fatalf("ExpandPath = %q, want under %q", got, home)
	}
}

func TestFailedDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.FromSlash("/data/sorted")
	want := filepath.Join(cfg.Paths.OutputDir, config.FailedDirName)
	if got := cfg.FailedDir(); got != want {
		t.Fatalf("FailedDir = %q, want %q", got, want)
	}
}

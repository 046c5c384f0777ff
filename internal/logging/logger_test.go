package logging_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snapsort/internal/logging"
)

func logToFile(t *testing.T, opts logging.Options, emit func(logger *slog.Logger)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.log")
	opts.OutputPaths = []string{path}
	opts.ErrorOutputPaths = []string{path}

	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	emit(logger)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleFormat(t *testing.T) {
	content := logToFile(t, logging.Options{Format: "console", Level: "info"}, func(logger *slog.Logger) {
		logger.Info("copied file",
			logging.String(logging.FieldSource, "/src/a.jpg"),
			logging.Int("size", 42),
		)
	})

	line := strings.TrimSpace(content)
	if !strings.Contains(line, " INFO ") {
		t.Fatalf("line missing level label: %q", line)
	}
	if !strings.Contains(line, "copied file") {
		t.Fatalf("line missing message: %q", line)
	}
	if !strings.Contains(line, "source=/src/a.jpg") || !strings.Contains(line, "size=42") {
		t.Fatalf("line missing key=value attrs: %q", line)
	}
}

func TestConsoleFormatComponentPrefix(t *testing.T) {
	content := logToFile(t, logging.Options{Format: "console"}, func(logger *slog.Logger) {
		logging.NewComponentLogger(logger, "runner").Info("run started")
	})
	if !strings.Contains(content, "runner: run started") {
		t.Fatalf("component prefix missing: %q", content)
	}
}

func TestConsoleFormatQuotesValuesWithSpaces(t *testing.T) {
	content := logToFile(t, logging.Options{Format: "console"}, func(logger *slog.Logger) {
		logger.Info("note", logging.String("path", "/src/day one/a.jpg"))
	})
	if !strings.Contains(content, `path="/src/day one/a.jpg"`) {
		t.Fatalf("value with spaces not quoted: %q", content)
	}
}

func TestConsoleLevelFiltering(t *testing.T) {
	content := logToFile(t, logging.Options{Format: "console", Level: "warn"}, func(logger *slog.Logger) {
		logger.Info("hidden")
		logger.Warn("visible")
	})
	if strings.Contains(content, "hidden") {
		t.Fatalf("info line leaked past warn level: %q", content)
	}
	if !strings.Contains(content, "visible") {
		t.Fatalf("warn line missing: %q", content)
	}
}

func TestJSONFormat(t *testing.T) {
	content := logToFile(t, logging.Options{Format: "json"}, func(logger *slog.Logger) {
		logger.Info("copied file", logging.String("dest", "/out/a.jpg"))
	})

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		t.Fatalf("unmarshal log line %q: %v", content, err)
	}
	if payload["msg"] != "copied file" {
		t.Fatalf("msg = %v, want copied file", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("level = %v, want info", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("ts key missing: %v", payload)
	}
	if payload["dest"] != "/out/a.jpg" {
		t.Fatalf("dest = %v, want /out/a.jpg", payload["dest"])
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	if logger == nil {
		t.Fatal("expected usable logger")
	}
	logger.Info("discarded")
}

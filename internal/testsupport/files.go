package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to the target path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	mkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSourceFile writes content under the config's source directory and
// returns the absolute path.
func WriteSourceFile(t testing.TB, sourceDir, relPath string, content []byte) string {
	t.Helper()

	path := filepath.Join(sourceDir, filepath.FromSlash(relPath))
	WriteFile(t, path, content)
	return path
}

func mkdir(t testing.TB, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

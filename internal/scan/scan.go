// Package scan enumerates candidate media files under the source tree.
//
// The walk applies the configured filter chain (prefix, suffix, exclude
// substrings) and permanently excludes the output tree, so a run can never
// re-ingest its own results. Scanning only stats entries; file content is
// never read here.
package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"snapsort/internal/config"
)

// SourceFile identifies a regular file selected for processing.
type SourceFile struct {
	AbsPath   string
	Name      string
	Ext       string // lowercased, with leading dot
	ParentDir string // absolute
	Size      int64
}

// Scan walks the source tree and returns every file passing the filter chain,
// sorted by path for deterministic output.
func Scan(cfg *config.Config) ([]SourceFile, error) {
	root := filepath.Clean(cfg.Paths.SourceDir)
	outRoot := filepath.Clean(cfg.Paths.OutputDir)

	files := make([]SourceFile, 0, 128)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if isUnder(path, outRoot) || path == outRoot {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		parent := filepath.Dir(path)
		if !matchesPrefix(name, cfg.Filters.Prefixes) {
			return nil
		}
		if !matchesSuffix(name, cfg.Filters.Suffixes) {
			return nil
		}
		if excluded(parent, cfg.Filters.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, SourceFile{
			AbsPath:   path,
			Name:      name,
			Ext:       strings.ToLower(filepath.Ext(name)),
			ParentDir: parent,
			Size:      info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stable ordering keeps runs reproducible across filesystems.
	sort.Slice(files, func(i, j int) bool { return files[i].AbsPath < files[j].AbsPath })
	return files, nil
}

// TotalSize sums the sizes of the scanned files.
func TotalSize(files []SourceFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

func matchesPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func matchesSuffix(name string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	lowered := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lowered, s) {
			return true
		}
	}
	return false
}

func excluded(parent string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(parent, pattern) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	path = filepath.Clean(path)
	base = filepath.Clean(base)
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(filepath.Separator))
}

// Package plan decides where a scanned file lands in the output tree and
// performs the copy.
//
// Files with a resolved date are renamed to their timestamp stem inside a year
// bucket; unresolved files keep their name inside a quarantine directory keyed
// by their original parent path. Collisions on a planned name are settled by
// content comparison: identical content is skipped (idempotent re-runs),
// distinct content is renamed along a bounded "_collision" chain.
//
// Planning performs a check-then-act against the filesystem; callers must
// serialize Plan+Execute for files that can map to the same destination (see
// the runner's keyed lock).
package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"snapsort/internal/config"
	"snapsort/internal/fileutil"
	"snapsort/internal/media"
	"snapsort/internal/pipeline"
	"snapsort/internal/scan"
)

// Action describes what Execute will do with a planned placement.
type Action string

const (
	ActionCopy          Action = "copy"
	ActionCopyRenamed   Action = "copy_renamed"
	ActionSkipDuplicate Action = "skip_duplicate"
	ActionQuarantine    Action = "quarantine"
)

// maxCollisionChain bounds the rename probe so a pathological input cannot
// spin forever.
const maxCollisionChain = 10000

// Placement is the destination decision for one source file.
type Placement struct {
	DestDir  string
	DestName string
	Action   Action
	// DuplicateOf holds the existing file a skip decision matched against.
	DuplicateOf string
}

// DestPath returns the final destination path.
func (p Placement) DestPath() string {
	return filepath.Join(p.DestDir, p.DestName)
}

// Planner maps resolved dates (or their absence) to destinations.
type Planner struct {
	outputRoot string
	failedRoot string
}

// NewPlanner builds a planner rooted at the configured output tree.
func NewPlanner(cfg *config.Config) *Planner {
	return &Planner{
		outputRoot: cfg.Paths.OutputDir,
		failedRoot: cfg.FailedDir(),
	}
}

// Plan decides the destination directory, final filename, and action for a
// source file. The destination directory is created before the decision is
// finalized; creation is idempotent so concurrent workers can race on it.
func (p *Planner) Plan(src scan.SourceFile, date media.ResolvedDate, resolved bool) (Placement, error) {
	if !resolved {
		return p.planQuarantine(src)
	}

	destDir := filepath.Join(p.outputRoot, date.Bucket())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Placement{}, pipeline.Wrap(pipeline.ErrTransient, "planning", "create bucket dir", destDir, err)
	}

	name := date.Stem() + src.Ext
	candidate := filepath.Join(destDir, name)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Placement{DestDir: destDir, DestName: name, Action: ActionCopy}, nil
		}
		return Placement{}, pipeline.Wrap(pipeline.ErrTransient, "planning", "stat destination", candidate, err)
	}

	// The canonical name is taken: skip if it is the same content, otherwise
	// walk the collision chain until a free or matching slot appears.
	equal, err := fileutil.FilesEqual(candidate, src.AbsPath)
	if err != nil {
		return Placement{}, pipeline.Wrap(pipeline.ErrTransient, "planning", "compare content", candidate, err)
	}
	if equal {
		return Placement{DestDir: destDir, DestName: name, Action: ActionSkipDuplicate, DuplicateOf: candidate}, nil
	}
	return p.planCollision(src, destDir, date.Stem())
}

func (p *Planner) planCollision(src scan.SourceFile, destDir, stem string) (Placement, error) {
	for attempt := 1; attempt <= maxCollisionChain; attempt++ {
		name := stem + "_collision"
		if attempt > 1 {
			name = fmt.Sprintf("%s_collision%d", stem, attempt)
		}
		name += src.Ext

		candidate := filepath.Join(destDir, name)
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return Placement{DestDir: destDir, DestName: name, Action: ActionCopyRenamed}, nil
		}
		if err != nil {
			return Placement{}, pipeline.Wrap(pipeline.ErrTransient, "planning", "stat collision slot", candidate, err)
		}

		equal, err := fileutil.FilesEqual(candidate, src.AbsPath)
		if err != nil {
			return Placement{}, pipeline.Wrap(pipeline.ErrTransient, "planning", "compare collision slot", candidate, err)
		}
		if equal {
			return Placement{DestDir: destDir, DestName: name, Action: ActionSkipDuplicate, DuplicateOf: candidate}, nil
		}
	}
	return Placement{}, pipeline.Wrap(pipeline.ErrTransient, "planning", "allocate collision name",
		fmt.Sprintf("exhausted collision slots for %s in %s", stem, destDir), nil)
}

func (p *Planner) planQuarantine(src scan.SourceFile) (Placement, error) {
	destDir := filepath.Join(p.failedRoot, FlattenParent(src.ParentDir))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Placement{}, pipeline.Wrap(pipeline.ErrTransient, "planning", "create quarantine dir", destDir, err)
	}
	return Placement{DestDir: destDir, DestName: src.Name, Action: ActionQuarantine}, nil
}

// FlattenParent turns an absolute parent directory into a single quarantine
// directory name by replacing path separators with underscores.
func FlattenParent(parent string) string {
	return strings.ReplaceAll(filepath.Clean(parent), string(filepath.Separator), "_")
}

package plan

import (
	"os"

	"snapsort/internal/fileutil"
	"snapsort/internal/pipeline"
	"snapsort/internal/scan"
)

// Execute performs the planned placement. Content is first copied into the
// destination directory under a unique staging name, then renamed to the final
// name, so a partially written file never occupies a planned slot and
// concurrent workers can never truncate each other's staged bytes. Skip
// decisions touch nothing.
func Execute(src scan.SourceFile, placement Placement) error {
	if placement.Action == ActionSkipDuplicate {
		return nil
	}

	staging, err := os.CreateTemp(placement.DestDir, "."+placement.DestName+".partial-*")
	if err != nil {
		return pipeline.Wrap(pipeline.ErrTransient, "copying", "create staging file", placement.DestDir, err)
	}
	stagingPath := staging.Name()
	if err := staging.Close(); err != nil {
		_ = os.Remove(stagingPath)
		return pipeline.Wrap(pipeline.ErrTransient, "copying", "create staging file", stagingPath, err)
	}

	if err := fileutil.CopyFileVerified(src.AbsPath, stagingPath); err != nil {
		_ = os.Remove(stagingPath)
		return pipeline.Wrap(pipeline.ErrTransient, "copying", "copy content", src.AbsPath, err)
	}
	// CreateTemp opens 0600; published files get the usual mode.
	if err := os.Chmod(stagingPath, 0o644); err != nil {
		_ = os.Remove(stagingPath)
		return pipeline.Wrap(pipeline.ErrTransient, "copying", "set staging mode", stagingPath, err)
	}
	if err := os.Rename(stagingPath, placement.DestPath()); err != nil {
		_ = os.Remove(stagingPath)
		return pipeline.Wrap(pipeline.ErrTransient, "copying", "rename into place", placement.DestPath(), err)
	}
	return nil
}

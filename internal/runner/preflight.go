package runner

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"snapsort/internal/pipeline"
)

// preflight verifies the directories are usable and the output filesystem has
// room for the candidate bytes before anything is copied.
func preflight(sourceDir, outputDir string, requiredBytes int64) error {
	if err := checkDirAccess(sourceDir, unix.R_OK|unix.X_OK); err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "preflight", "source dir", sourceDir, err)
	}
	if err := checkDirAccess(outputDir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "preflight", "output dir", outputDir, err)
	}
	if err := checkFreeSpace(outputDir, requiredBytes); err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "preflight", "free space", outputDir, err)
	}
	return nil
}

func checkDirAccess(path string, mode uint32) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if err := unix.Access(path, mode); err != nil {
		return fmt.Errorf("insufficient permissions: %w", err)
	}
	return nil
}

func checkFreeSpace(path string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Errorf("statfs: %w", err)
	}
	available := int64(stat.Bavail) * stat.Bsize
	if available < requiredBytes {
		return fmt.Errorf("need %d bytes, only %d available", requiredBytes, available)
	}
	return nil
}

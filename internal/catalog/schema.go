package catalog

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        source_dir TEXT NOT NULL,
        output_dir TEXT NOT NULL,
        started_at TEXT NOT NULL,
        finished_at TEXT,
        copied INTEGER NOT NULL DEFAULT 0,
        renamed INTEGER NOT NULL DEFAULT 0,
        duplicates INTEGER NOT NULL DEFAULT 0,
        quarantined INTEGER NOT NULL DEFAULT 0,
        failed INTEGER NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
        source_path TEXT NOT NULL,
        dest_path TEXT,
        status TEXT NOT NULL,
        resolved_by TEXT,
        camera_make TEXT,
        camera_model TEXT,
        error_message TEXT,
        created_at TEXT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_status ON records(status)`,
}

func (s *Store) applyMigrations(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply catalog schema: %w", err)
		}
	}
	return nil
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"snapsort/internal/config"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "catalog.db")
	return OpenPath(dbPath)
}

// OpenPath connects to a catalog database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	// Pragmas ride on the DSN so every pooled connection gets them;
	// applying them with db.Exec only reaches a single connection.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun inserts a new run row and returns its summary skeleton.
func (s *Store) BeginRun(ctx context.Context, sourceDir, outputDir string) (*RunSummary, error) {
	run := &RunSummary{
		ID:        uuid.NewString(),
		SourceDir: sourceDir,
		OutputDir: outputDir,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, source_dir, output_dir, started_at) VALUES (?, ?, ?, ?)`,
		run.ID,
		run.SourceDir,
		run.OutputDir,
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Append persists one placement record.
func (s *Store) Append(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	rec.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO records (
            run_id, source_path, dest_path, status, resolved_by,
            camera_make, camera_model, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.SourcePath,
		nullableString(rec.DestPath),
		rec.Status,
		nullableString(rec.ResolvedBy),
		nullableString(rec.CameraMake),
		nullableString(rec.CameraModel),
		nullableString(rec.ErrorMessage),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// FinishRun stamps the finish time and final counters on a run row.
func (s *Store) FinishRun(ctx context.Context, run *RunSummary) error {
	if run == nil {
		return errors.New("run is nil")
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET finished_at = ?, copied = ?, renamed = ?, duplicates = ?, quarantined = ?, failed = ?
         WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		run.Copied,
		run.Renamed,
		run.Duplicates,
		run.Quarantined,
		run.Failed,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

const runColumns = "id, source_dir, output_dir, started_at, finished_at, copied, renamed, duplicates, quarantined, failed"

// Runs returns all runs ordered most recent first.
func (s *Store) Runs(ctx context.Context) ([]*RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const recordColumns = "id, run_id, source_path, dest_path, status, resolved_by, camera_make, camera_model, error_message, created_at"

// RecordsForRun returns all records for a run ordered by insertion.
func (s *Store) RecordsForRun(ctx context.Context, runID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns a count of records grouped by status across all runs.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Clear removes all runs and their records.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear catalog: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*RunSummary, error) {
	var (
		id          string
		sourceDir   string
		outputDir   string
		startedRaw  string
		finishedRaw sql.NullString
		copied      int
		renamed     int
		duplicates  int
		quarantined int
		failed      int
	)
	if err := scanner.Scan(&id, &sourceDir, &outputDir, &startedRaw, &finishedRaw, &copied, &renamed, &duplicates, &quarantined, &failed); err != nil {
		return nil, err
	}

	run := &RunSummary{
		ID:          id,
		SourceDir:   sourceDir,
		OutputDir:   outputDir,
		Copied:      copied,
		Renamed:     renamed,
		Duplicates:  duplicates,
		Quarantined: quarantined,
		Failed:      failed,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id          int64
		runID       string
		sourcePath  string
		destPath    sql.NullString
		statusStr   string
		resolvedBy  sql.NullString
		cameraMake  sql.NullString
		cameraModel sql.NullString
		errMessage  sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(&id, &runID, &sourcePath, &destPath, &statusStr, &resolvedBy, &cameraMake, &cameraModel, &errMessage, &createdRaw); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:           id,
		RunID:        runID,
		SourcePath:   sourcePath,
		DestPath:     destPath.String,
		Status:       Status(statusStr),
		ResolvedBy:   resolvedBy.String,
		CameraMake:   cameraMake.String,
		CameraModel:  cameraModel.String,
		ErrorMessage: errMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

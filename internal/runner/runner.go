package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"

	"snapsort/internal/catalog"
	"snapsort/internal/config"
	"snapsort/internal/logging"
	"snapsort/internal/media"
	"snapsort/internal/pipeline"
	"snapsort/internal/plan"
	"snapsort/internal/scan"
)

// lockFileName is created under the output root while a run holds it.
const lockFileName = ".snapsort.lock"

// Runner drives the per-file pipeline across a worker pool.
type Runner struct {
	cfg      *config.Config
	store    *catalog.Store
	logger   *slog.Logger
	resolver *media.Resolver
	planner  *plan.Planner

	// progress receives a progress bar when non-nil (TTY runs).
	progress io.Writer
}

// New constructs a runner with the default resolver chain.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "runner"),
		resolver: media.NewResolver(),
		planner:  plan.NewPlanner(cfg),
	}
}

// WithProgress directs a progress bar at w during Run.
func (r *Runner) WithProgress(w io.Writer) *Runner {
	r.progress = w
	return r
}

// WithResolver overrides the date resolver (used in tests).
func (r *Runner) WithResolver(resolver *media.Resolver) *Runner {
	r.resolver = resolver
	return r
}

// Run executes the pipeline over the scanned files and returns the completed
// run summary. Per-file failures are recorded and counted, never fatal;
// configuration and lock failures abort before any mutation.
func (r *Runner) Run(ctx context.Context, files []scan.SourceFile) (*catalog.RunSummary, error) {
	if err := preflight(r.cfg.Paths.SourceDir, r.cfg.Paths.OutputDir, scan.TotalSize(files)); err != nil {
		return nil, err
	}

	runLock := flock.New(filepath.Join(r.cfg.Paths.OutputDir, lockFileName))
	locked, err := runLock.TryLock()
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "run", "acquire lock", runLock.Path(), err)
	}
	if !locked {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "run", "acquire lock",
			"another snapsort run is already writing to this output directory", nil)
	}
	defer func() {
		_ = runLock.Unlock()
	}()

	run, err := r.store.BeginRun(ctx, r.cfg.Paths.SourceDir, r.cfg.Paths.OutputDir)
	if err != nil {
		return nil, err
	}
	logger := r.logger.With(logging.String(logging.FieldRunID, run.ID))
	logger.Info("run started", logging.Int("files", len(files)), logging.Int("workers", r.workers()))

	var bar *progressbar.ProgressBar
	if r.progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(r.progress),
			progressbar.OptionSetDescription("sorting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	jobs := make(chan scan.SourceFile)
	placements := newKeyedMutex()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				rec := r.processOne(ctx, run.ID, src, placements, logger)
				mu.Lock()
				run.Count(rec.Status)
				mu.Unlock()
				if err := r.store.Append(ctx, rec); err != nil {
					logger.Warn("failed to persist record", logging.String(logging.FieldSource, src.AbsPath), logging.Error(err))
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	for _, src := range files {
		if ctx.Err() != nil {
			break
		}
		jobs <- src
	}
	close(jobs)
	wg.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	if err := r.store.FinishRun(ctx, run); err != nil {
		return run, err
	}
	logger.Info("run finished",
		logging.Int("copied", run.Copied),
		logging.Int("renamed", run.Renamed),
		logging.Int("duplicates", run.Duplicates),
		logging.Int("quarantined", run.Quarantined),
		logging.Int("failed", run.Failed),
	)
	return run, ctx.Err()
}

func (r *Runner) workers() int {
	if r.cfg.Run.Workers > 0 {
		return r.cfg.Run.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// processOne runs resolve → plan → copy for a single file and returns the
// record to persist. Errors become failed records, never panics or aborts.
func (r *Runner) processOne(ctx context.Context, runID string, src scan.SourceFile, placements *keyedMutex, logger *slog.Logger) *catalog.Record {
	rec := &catalog.Record{RunID: runID, SourcePath: src.AbsPath}

	date, resolved := r.resolver.Resolve(src.AbsPath)
	if resolved {
		rec.ResolvedBy = string(date.Method)
		if cam := media.CameraInfo(src.AbsPath); cam != (media.Camera{}) {
			rec.CameraMake = cam.Make
			rec.CameraModel = cam.Model
		}
	}

	// Files that can land on the same destination serialize here; everything
	// else proceeds in parallel.
	key := placementKey(src, date, resolved)
	placements.lock(key)
	defer placements.unlock(key)

	placement, err := r.planner.Plan(src, date, resolved)
	if err != nil {
		return failRecord(rec, err, logger, src)
	}
	if err := plan.Execute(src, placement); err != nil {
		return failRecord(rec, err, logger, src)
	}

	rec.DestPath = placement.DestPath()
	switch placement.Action {
	case plan.ActionSkipDuplicate:
		rec.Status = catalog.StatusDuplicate
		logger.Info("skipped duplicate",
			logging.String(logging.FieldSource, src.AbsPath),
			logging.String("duplicate_of", placement.DuplicateOf),
		)
	case plan.ActionCopyRenamed:
		rec.Status = catalog.StatusRenamed
		logger.Info("copied with collision rename",
			logging.String(logging.FieldSource, src.AbsPath),
			logging.String(logging.FieldDest, rec.DestPath),
		)
	case plan.ActionQuarantine:
		rec.Status = catalog.StatusQuarantined
		logger.Info("quarantined unresolvable file",
			logging.String(logging.FieldSource, src.AbsPath),
			logging.String(logging.FieldDest, rec.DestPath),
		)
	default:
		rec.Status = catalog.StatusCopied
		logger.Info("copied",
			logging.String(logging.FieldSource, src.AbsPath),
			logging.String(logging.FieldDest, rec.DestPath),
		)
	}
	return rec
}

func failRecord(rec *catalog.Record, err error, logger *slog.Logger, src scan.SourceFile) *catalog.Record {
	rec.Status = catalog.StatusFailed
	rec.ErrorMessage = err.Error()
	logger.Error("file failed", logging.String(logging.FieldSource, src.AbsPath), logging.Error(err))
	return rec
}

func placementKey(src scan.SourceFile, date media.ResolvedDate, resolved bool) string {
	if resolved {
		return filepath.Join(date.Bucket(), date.Stem())
	}
	return filepath.Join(config.FailedDirName, plan.FlattenParent(src.ParentDir), src.Name)
}

// Describe renders the one-line summary printed after a run.
func Describe(run *catalog.RunSummary) string {
	if run == nil {
		return ""
	}
	return fmt.Sprintf("processed=%d copied=%d renamed=%d duplicates=%d quarantined=%d failed=%d",
		run.Total(), run.Copied, run.Renamed, run.Duplicates, run.Quarantined, run.Failed)
}

package catalog_test

import (
	"context"
	"testing"

	"snapsort/internal/catalog"
	"snapsort/internal/testsupport"
)

func TestStoreRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("BeginRun returned empty run ID")
	}
	if run.FinishedAt != nil {
		t.Fatal("new run already finished")
	}

	records := []*catalog.Record{
		{RunID: run.ID, SourcePath: "/src/a.jpg", DestPath: "/out/2023/a.jpg", Status: catalog.StatusCopied, ResolvedBy: "metadata"},
		{RunID: run.ID, SourcePath: "/src/b.jpg", DestPath: "/out/2023/b.jpg", Status: catalog.StatusRenamed, ResolvedBy: "filename"},
		{RunID: run.ID, SourcePath: "/src/c.jpg", Status: catalog.StatusFailed, ErrorMessage: "copy content: permission denied"},
	}
	for _, rec := range records {
		run.Count(rec.Status)
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%s): %v", rec.SourcePath, err)
		}
		if rec.ID == 0 {
			t.Fatalf("Append(%s) left record ID unset", rec.SourcePath)
		}
	}

	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if run.FinishedAt == nil {
		t.Fatal("FinishRun did not stamp FinishedAt")
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Runs returned %d entries, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID {
		t.Fatalf("run ID = %q, want %q", got.ID, run.ID)
	}
	if got.Copied != 1 || got.Renamed != 1 || got.Failed != 1 {
		t.Fatalf("persisted counters = %+v, want copied=1 renamed=1 failed=1", got)
	}
	if got.FinishedAt == nil {
		t.Fatal("persisted run has no FinishedAt")
	}
	if got.Total() != 3 {
		t.Fatalf("Total = %d, want 3", got.Total())
	}
}

func TestStoreRecordsForRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	rec := &catalog.Record{
		RunID:       run.ID,
		SourcePath:  "/src/IMG_20230415_153000.jpg",
		DestPath:    "/out/2023/2023-04-15_15.30.00.jpg",
		Status:      catalog.StatusCopied,
		ResolvedBy:  "filename",
		CameraMake:  "Canon",
		CameraModel: "EOS R5",
	}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.RecordsForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("RecordsForRun: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("RecordsForRun returned %d records, want 1", len(got))
	}
	if got[0].SourcePath != rec.SourcePath || got[0].DestPath != rec.DestPath {
		t.Fatalf("record paths = (%q, %q), want (%q, %q)",
			got[0].SourcePath, got[0].DestPath, rec.SourcePath, rec.DestPath)
	}
	if got[0].CameraMake != "Canon" || got[0].CameraModel != "EOS R5" {
		t.Fatalf("camera = (%q, %q), want (Canon, EOS R5)", got[0].CameraMake, got[0].CameraModel)
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatal("record CreatedAt not populated")
	}
}

func TestStoreStatsAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	statuses := []catalog.Status{
		catalog.StatusCopied,
		catalog.StatusCopied,
		catalog.StatusDuplicate,
		catalog.StatusQuarantined,
	}
	for i, status := range statuses {
		rec := &catalog.Record{RunID: run.ID, SourcePath: "/src/f", Status: status}
		rec.SourcePath += string(rune('0' + i))
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[catalog.StatusCopied] != 2 || stats[catalog.StatusDuplicate] != 1 || stats[catalog.StatusQuarantined] != 1 {
		t.Fatalf("Stats = %v, want copied=2 duplicate=1 quarantined=1", stats)
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 1 {
		t.Fatalf("Clear removed %d runs, want 1", removed)
	}
	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats after clear: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("Stats after clear = %v, want empty (records cascade with runs)", stats)
	}
}

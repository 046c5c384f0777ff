package plan_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"snapsort/internal/media"
	"snapsort/internal/plan"
	"snapsort/internal/scan"
	"snapsort/internal/testsupport"
)

func sourceFile(t *testing.T, path string) scan.SourceFile {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	name := filepath.Base(path)
	return scan.SourceFile{
		AbsPath:   path,
		Name:      name,
		Ext:       strings.ToLower(filepath.Ext(name)),
		ParentDir: filepath.Dir(path),
		Size:      info.Size(),
	}
}

func aprilDate() media.ResolvedDate {
	return media.ResolvedDate{
		Time:   time.Date(2023, 4, 15, 15, 30, 0, 0, time.UTC),
		Method: media.MethodFilename,
	}
}

func TestPlanCopiesIntoYearBucket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	planner := plan.NewPlanner(cfg)

	path := testsupport.WriteSourceFile(t, cfg.Paths.SourceDir, "IMG_20230415_153000.jpg", []byte("photo"))
	src := sourceFile(t, path)

	placement, err := planner.Plan(src, aprilDate(), true)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if placement.Action != plan.ActionCopy {
		t.Fatalf("Action = %q, want %q", placement.Action, plan.ActionCopy)
	}
	want := filepath.Join(cfg.Paths.OutputDir, "2023", "2023-04-15_15.30.00.jpg")
	if placement.DestPath() != want {
		t.Fatalf("DestPath = %q, want %q", placement.DestPath(), want)
	}

	if err := plan.Execute(src, placement); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(content) != "photo" {
		t.Fatalf("destination content = %q, want %q", content, "photo")
	}
	// No staging file may survive the rename.
	entries, err := os.ReadDir(filepath.Join(cfg.Paths.OutputDir, "2023"))
	if err != nil {
		t.Fatalf("read bucket dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("bucket holds %d entries, want only the renamed file", len(entries))
	}
}

func TestPlanSkipsByteIdenticalDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	planner := plan.NewPlanner(cfg)

	path := testsupport.WriteSourceFile(t, cfg.Paths.SourceDir, "IMG_20230415_153000.jpg", []byte("photo"))
	src := sourceFile(t, path)

	first, err := planner.Plan(src, aprilDate(), true)
	if err != nil {
		t.Fatalf("first Plan: %v", err)
	}
	if err := plan.Execute(src, first); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	second, err := planner.Plan(src, aprilDate(), true)
	if err != nil {
		t.Fatalf("second Plan: %v", err)
	}
	if second.Action != plan.ActionSkipDuplicate {
		t.Fatalf("Action = %q, want %q", second.Action, plan.ActionSkipDuplicate)
	}
	if second.DuplicateOf != first.DestPath() {
		t.Fatalf("DuplicateOf = %q, want %q", second.DuplicateOf, first.DestPath())
	}
	if err := plan.Execute(src, second); err != nil {
		t.Fatalf("Execute on skip: %v", err)
	}
}

func TestPlanRenamesDistinctCollisions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	planner := plan.NewPlanner(cfg)
	date := aprilDate()

	contents := []string{"first", "second", "third"}
	wantNames := []string{
		"2023-04-15_15.30.00.jpg",
		"2023-04-15_15.30.00_collision.jpg",
		"2023-04-15_15.30.00_collision2.jpg",
	}

	for i, content := range contents {
		path := testsupport.WriteSourceFile(t, cfg.Paths.SourceDir,
			"cam"+string(rune('a'+i))+"/IMG_20230415_153000.jpg", []byte(content))
		src := sourceFile(t, path)

		placement, err := planner.Plan(src, date, true)
		if err != nil {
			t.Fatalf("Plan #%d: %v", i+1, err)
		}
		if placement.DestName != wantNames[i] {
			t.Fatalf("Plan #%d DestName = %q, want %q", i+1, placement.DestName, wantNames[i])
		}
		if err := plan.Execute(src, placement); err != nil {
			t.Fatalf("Execute #%d: %v", i+1, err)
		}
	}

	// Re-planning the second file must now match its collision slot, not
	// allocate a new one.
	path := filepath.Join(cfg.Paths.SourceDir, "camb", "IMG_20230415_153000.jpg")
	placement, err := planner.Plan(sourceFile(t, path), date, true)
	if err != nil {
		t.Fatalf("re-Plan: %v", err)
	}
	if placement.Action != plan.ActionSkipDuplicate {
		t.Fatalf("re-Plan Action = %q, want %q", placement.Action, plan.ActionSkipDuplicate)
	}
	if placement.DestName != wantNames[1] {
		t.Fatalf("re-Plan DestName = %q, want %q", placement.DestName, wantNames[1])
	}
}

func TestExecutePreservesExistingCollisionChain(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	planner := plan.NewPlanner(cfg)
	date := aprilDate()

	// Seed the canonical and first collision slots from two distinct sources.
	for i, content := range []string{"first", "second"} {
		path := testsupport.WriteSourceFile(t, cfg.Paths.SourceDir,
			"cam"+string(rune('a'+i))+"/IMG_20230415_153000.jpg", []byte(content))
		src := sourceFile(t, path)
		placement, err := planner.Plan(src, date, true)
		if err != nil {
			t.Fatalf("seed Plan #%d: %v", i+1, err)
		}
		if err := plan.Execute(src, placement); err != nil {
			t.Fatalf("seed Execute #%d: %v", i+1, err)
		}
	}

	// A third distinct source whose own filename matches the occupied first
	// collision slot must land in _collision2 without disturbing it.
	path := testsupport.WriteSourceFile(t, cfg.Paths.SourceDir,
		"camc/2023-04-15_15.30.00_collision.jpg", []byte("third"))
	src := sourceFile(t, path)
	placement, err := planner.Plan(src, date, true)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if placement.DestName != "2023-04-15_15.30.00_collision2.jpg" {
		t.Fatalf("DestName = %q, want _collision2 slot", placement.DestName)
	}
	if err := plan.Execute(src, placement); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	bucket := filepath.Join(cfg.Paths.OutputDir, "2023")
	earlier, err := os.ReadFile(filepath.Join(bucket, "2023-04-15_15.30.00_collision.jpg"))
	if err != nil {
		t.Fatalf("pre-existing collision output lost: %v", err)
	}
	if string(earlier) != "second" {
		t.Fatalf("pre-existing collision content = %q, want %q", earlier, "second")
	}
	latest, err := os.ReadFile(filepath.Join(bucket, "2023-04-15_15.30.00_collision2.jpg"))
	if err != nil {
		t.Fatalf("read _collision2: %v", err)
	}
	if string(latest) != "third" {
		t.Fatalf("_collision2 content = %q, want %q", latest, "third")
	}
	entries, err := os.ReadDir(bucket)
	if err != nil {
		t.Fatalf("read bucket dir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("bucket holds %d entries, want 3", len(entries))
	}
}

func TestPlanQuarantinesUnresolvedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	planner := plan.NewPlanner(cfg)

	path := testsupport.WriteSourceFile(t, cfg.Paths.SourceDir, "trip/day one/holiday.jpg", []byte("mystery"))
	src := sourceFile(t, path)

	placement, err := planner.Plan(src, media.ResolvedDate{}, false)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if placement.Action != plan.ActionQuarantine {
		t.Fatalf("Action = %q, want %q", placement.Action, plan.ActionQuarantine)
	}
	if placement.DestName != "holiday.jpg" {
		t.Fatalf("DestName = %q, want original name", placement.DestName)
	}
	wantDir := filepath.Join(cfg.FailedDir(), plan.FlattenParent(src.ParentDir))
	if placement.DestDir != wantDir {
		t.Fatalf("DestDir = %q, want %q", placement.DestDir, wantDir)
	}

	if err := plan.Execute(src, placement); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(placement.DestPath()); err != nil {
		t.Fatalf("quarantined file missing: %v", err)
	}
}

func TestFlattenParent(t *testing.T) {
	sep := string(filepath.Separator)
	got := plan.FlattenParent(sep + filepath.Join("photos", "trip", "day one"))
	want := "_photos_trip_day one"
	if got != want {
		t.Fatalf("FlattenParent = %q, want %q", got, want)
	}
}

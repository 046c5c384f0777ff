package catalog

import "time"

// Status classifies the outcome recorded for one source file.
type Status string

const (
	StatusCopied      Status = "copied"
	StatusRenamed     Status = "renamed"
	StatusDuplicate   Status = "skipped_duplicate"
	StatusQuarantined Status = "quarantined"
	StatusFailed      Status = "failed"
)

// Record is one placement decision.
type Record struct {
	ID           int64
	RunID        string
	SourcePath   string
	DestPath     string
	Status       Status
	ResolvedBy   string // metadata, filename, or empty when unresolved
	CameraMake   string
	CameraModel  string
	ErrorMessage string
	CreatedAt    time.Time
}

// RunSummary aggregates one run of the pipeline.
type RunSummary struct {
	ID          string
	SourceDir   string
	OutputDir   string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Copied      int
	Renamed     int
	Duplicates  int
	Quarantined int
	Failed      int
}

// Total returns the number of files the run touched.
func (r RunSummary) Total() int {
	return r.Copied + r.Renamed + r.Duplicates + r.Quarantined + r.Failed
}

// Count bumps the counter matching a record status.
func (r *RunSummary) Count(status Status) {
	switch status {
	case StatusCopied:
		r.Copied++
	case StatusRenamed:
		r.Renamed++
	case StatusDuplicate:
		r.Duplicates++
	case StatusQuarantined:
		r.Quarantined++
	case StatusFailed:
		r.Failed++
	}
}

// Package runner orchestrates a full copy run.
//
// It performs preflight checks, takes an exclusive lock under the output root
// so concurrent runs fail fast, scans the source tree, and fans the per-file
// pipeline (resolve date, plan placement, copy) across a bounded worker pool.
// Date resolution runs fully parallel; the placement decision and copy for
// files that can collide on the same destination are serialized behind a keyed
// lock, closing the check-then-act race a naive fan-out would have.
//
// Every outcome is appended to the catalog and counted into the run summary.
package runner

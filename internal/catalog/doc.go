// Package catalog persists one record per placement decision in SQLite.
//
// Each run gets a UUID-keyed row with final counters; each processed file gets
// a record naming its source, destination, outcome, and the strategy that
// resolved its date. The catalog is the audit trail the original log file
// could not provide: it survives the run, aggregates failures, and backs the
// `snapsort catalog` commands.
package catalog

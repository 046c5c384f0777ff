// Package media resolves the canonical capture timestamp for a media file.
//
// Resolution walks an ordered strategy list and stops at the first strategy
// that produces a value: embedded EXIF metadata first, then a 14-digit
// timestamp embedded in the filename. A strategy reports absence rather than
// failing, so an unreadable or malformed file routes to quarantine instead of
// aborting the run.
//
// The package also extracts camera make/model for the placement catalog.
package media

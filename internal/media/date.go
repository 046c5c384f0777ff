package media

import (
	"strings"
	"time"
)

// Method identifies which strategy produced a resolved date.
type Method string

const (
	MethodMetadata Method = "metadata"
	MethodFilename Method = "filename"
)

// stemLayout renders timestamps filesystem-safe: spaces become underscores and
// colons become periods, yielding e.g. "2023-04-15_15.30.00".
const stemLayout = "2006-01-02_15.04.05"

// ResolvedDate is the canonical capture timestamp assigned to a file. It names
// the new file and selects its year bucket.
type ResolvedDate struct {
	Time   time.Time
	Method Method
}

// Stem returns the sanitized date string used as the destination filename stem.
func (d ResolvedDate) Stem() string {
	return d.Time.Format(stemLayout)
}

// Bucket returns the year bucket directory name (the first four characters of
// the stem).
func (d ResolvedDate) Bucket() string {
	return d.Time.Format("2006")
}

// Strategy attempts to derive a capture date for a file. The boolean reports
// whether a value was produced; an error describes why a strategy could not
// run at all (e.g. an unreadable file) and is logged, never fatal.
type Strategy interface {
	Name() string
	Resolve(path string) (ResolvedDate, bool, error)
}

// Resolver runs strategies in order and returns the first resolved date.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds the default resolver chain: EXIF metadata, then the
// QuickTime/MP4 movie header, then filename digits.
func NewResolver() *Resolver {
	return &Resolver{strategies: []Strategy{exifStrategy{}, quicktimeStrategy{}, filenameStrategy{}}}
}

// NewResolverWith builds a resolver from an explicit strategy list (used in
// tests).
func NewResolverWith(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve returns the first date any strategy produces. The boolean is false
// when every strategy reports absence; such files belong in quarantine.
func (r *Resolver) Resolve(path string) (ResolvedDate, bool) {
	for _, s := range r.strategies {
		if date, ok, _ := s.Resolve(path); ok {
			return date, true
		}
	}
	return ResolvedDate{}, false
}

type filenameStrategy struct{}

func (filenameStrategy) Name() string { return string(MethodFilename) }

// Resolve extracts a YYYYMMDDHHMMSS timestamp from the filename: strip the
// extension, delete every non-digit rune, and require exactly 14 digits.
// Impossible dates (month 13, second 61) are absences, not errors.
func (filenameStrategy) Resolve(path string) (ResolvedDate, bool, error) {
	base := baseWithoutExt(path)

	var digits strings.Builder
	for _, r := range base {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 14 {
		return ResolvedDate{}, false, nil
	}

	t, err := time.Parse("20060102150405", digits.String())
	if err != nil {
		return ResolvedDate{}, false, nil
	}
	return ResolvedDate{Time: t, Method: MethodFilename}, true, nil
}

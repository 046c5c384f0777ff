package media

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// exifLayout is the timestamp format EXIF stores, e.g. "2023:04:15 15:30:00".
const exifLayout = "2006:01:02 15:04:05"

// dateFields is the priority order for capture timestamps. The first field
// holding a parseable value wins; malformed values fall through to the next.
var dateFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

type exifStrategy struct{}

func (exifStrategy) Name() string { return string(MethodMetadata) }

func (exifStrategy) Resolve(path string) (ResolvedDate, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return ResolvedDate{}, false, err
	}
	defer f.Close()

	// Decode failure means the format carries no EXIF (or is corrupt); both
	// cases are absences for this strategy.
	x, err := exif.Decode(f)
	if err != nil {
		return ResolvedDate{}, false, nil
	}

	for _, field := range dateFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		t, err := time.Parse(exifLayout, strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		return ResolvedDate{Time: t, Method: MethodMetadata}, true, nil
	}
	return ResolvedDate{}, false, nil
}

// Camera describes the device that captured a file, as far as EXIF reveals it.
type Camera struct {
	Make  string
	Model string
}

// CameraInfo extracts camera make/model from EXIF on a best-effort basis. The
// make is normalized to title case so vendors that shout ("NIKON CORPORATION")
// catalog consistently.
func CameraInfo(path string) Camera {
	f, err := os.Open(path)
	if err != nil {
		return Camera{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Camera{}
	}

	var cam Camera
	if tag, err := x.Get(exif.Make); err == nil {
		if raw, err := tag.StringVal(); err == nil {
			cam.Make = normalizeMake(raw)
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if raw, err := tag.StringVal(); err == nil {
			cam.Model = strings.TrimSpace(raw)
		}
	}
	return cam
}

func normalizeMake(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if trimmed == strings.ToUpper(trimmed) {
		return cases.Title(language.Und).String(strings.ToLower(trimmed))
	}
	return trimmed
}

func baseWithoutExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

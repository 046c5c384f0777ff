package media

import (
	"os"
	"time"

	mp4 "github.com/abema/go-mp4"
)

// QuickTime/MP4 timestamps count seconds since 1904-01-01 UTC.
var quicktimeEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// maxQuicktimeSeconds rejects corrupt headers that would overflow the epoch
// arithmetic.
const maxQuicktimeSeconds = uint64(1) << 40

type quicktimeStrategy struct{}

func (quicktimeStrategy) Name() string { return "quicktime" }

// Resolve reads the movie header creation time from MP4/QuickTime containers.
// Files without a parseable moov/mvhd box, and headers carrying the zero
// timestamp many encoders write, are absences.
func (quicktimeStrategy) Resolve(path string) (ResolvedDate, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return ResolvedDate{}, false, err
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil || len(boxes) == 0 {
		return ResolvedDate{}, false, nil
	}
	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return ResolvedDate{}, false, nil
	}

	seconds := uint64(mvhd.CreationTimeV0)
	if mvhd.GetVersion() != 0 {
		seconds = mvhd.CreationTimeV1
	}
	if seconds == 0 || seconds > maxQuicktimeSeconds {
		return ResolvedDate{}, false, nil
	}
	t := quicktimeEpoch.Add(time.Duration(seconds) * time.Second)
	return ResolvedDate{Time: t, Method: MethodMetadata}, true, nil
}

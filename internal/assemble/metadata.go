package assemble

import (
	"time"

	"github.com/google/uuid"
	"github.com/kikiluvv/recut/internal/effects"
)

// encoderTags are plausible muxer/encoder strings seen in the wild.
var encoderTags = []string{
	"Lavf58.76.100",
	"Lavf59.27.100",
	"Lavf60.3.100",
	"Lavf60.16.100",
	"Lavf61.1.100",
	"Lavf61.7.100",
	"HandBrake 1.6.1 2023012300",
	"HandBrake 1.7.3 2024011200",
}

// creationWindow bounds how far back a creation time may be placed.
const creationWindow = 180 * 24 * time.Hour

// Metadata returns fresh container tags for one clip: a unique title
// token, a random creation time in the past half year and a random
// encoder tag.
func Metadata(src effects.Source, now time.Time) map[string]string {
	back := time.Hour + time.Duration(src.Float64()*float64(creationWindow))
	created := now.Add(-back).UTC().Truncate(time.Millisecond)

	return map[string]string{
		"title":         uuid.NewString(),
		"creation_time": created.Format("2006-01-02T15:04:05.000000Z"),
		"encoder":       encoderTags[src.IntN(len(encoderTags))],
		"comment":       uuid.NewString(),
	}
}

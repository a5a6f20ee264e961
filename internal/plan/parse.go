package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/pkg/util"
)

// ParseRanges parses "start-end[,start-end...]". Each bound accepts SS,
// MM:SS or HH:MM:SS with optional fractional seconds. Inverted ranges are
// returned as-is so Build can report them.
func ParseRanges(s string) ([]clips.Window, error) {
	var out []clips.Window
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("range %q: expected start-end", part)
		}
		start, err := util.ParseTimestamp(lo)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		end, err := util.ParseTimestamp(hi)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		out = append(out, clips.Window{Start: start, End: end})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no ranges in %q", s)
	}
	return out, nil
}

// ParseTemplate parses "count:segment:gap[@start]"; lengths are seconds,
// start is any timestamp ParseTimestamp accepts.
func ParseTemplate(s string) (Template, error) {
	body, at, hasStart := strings.Cut(strings.TrimSpace(s), "@")
	fields := strings.Split(body, ":")
	if len(fields) != 3 {
		return Template{}, fmt.Errorf("template %q: expected count:segment:gap[@start]", s)
	}

	count, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Template{}, fmt.Errorf("template %q: bad count: %w", s, err)
	}
	seg, err := util.ParseTimestamp(fields[1])
	if err != nil {
		return Template{}, fmt.Errorf("template %q: bad segment length: %w", s, err)
	}
	gap, err := util.ParseTimestamp(fields[2])
	if err != nil {
		return Template{}, fmt.Errorf("template %q: bad gap: %w", s, err)
	}

	t := Template{Count: count, SegmentLength: seg, Gap: gap}
	if hasStart {
		if t.Start, err = util.ParseTimestamp(at); err != nil {
			return Template{}, fmt.Errorf("template %q: bad start: %w", s, err)
		}
	}
	return t, nil
}

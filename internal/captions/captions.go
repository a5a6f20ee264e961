// Package captions holds caption entries and maps them from the source
// timeline onto an assembled clip's local timeline.
package captions

import (
	"sort"
	"strings"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
)

// Entry is one caption cue. Source entries are on the source timeline;
// entries returned by Retime are clip-local.
type Entry struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Retime maps entries onto the timeline formed by concatenating windows in
// order. Only entries fully inside a single window survive; entries that
// straddle a window boundary are dropped, not split. The offset advances by
// each window's length whether or not it held any captions.
func Retime(entries []Entry, windows []clips.Window) []Entry {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.End > e.Start && strings.TrimSpace(e.Text) != "" {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var (
		out    []Entry
		offset time.Duration
	)
	for _, w := range windows {
		for _, e := range sorted {
			if !w.Contains(e.Start, e.End) {
				continue
			}
			out = append(out, Entry{
				Start: e.Start - w.Start + offset,
				End:   e.End - w.Start + offset,
				Text:  e.Text,
			})
		}
		offset += w.Duration()
	}
	return out
}

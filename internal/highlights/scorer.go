// Package highlights ranks fixed-length windows by evidence density and
// greedily selects the best non-overlapping ones.
package highlights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/signals"
)

// Weights for combining the two evidence signals.
type Weights struct {
	Timestamp float64 `yaml:"timestamp"`
	Cut       float64 `yaml:"cut"`
}

// DefaultWeights favours explicit timecode mentions 3:1 over scene cuts.
func DefaultWeights() Weights {
	return Weights{Timestamp: 3, Cut: 1}
}

// Highlight is a selected window plus a human-readable justification.
type Highlight struct {
	Window        clips.Window `json:"window" yaml:"window"`
	Score         float64      `json:"score" yaml:"score"`
	TimestampHits int          `json:"timestamp_hits" yaml:"timestamp_hits"`
	CutHits       int          `json:"cut_hits" yaml:"cut_hits"`
	Reason        string       `json:"reason" yaml:"reason"`
}

type scored struct {
	start int
	score float64
}

// Combine returns the per-second relevance score.
func Combine(s signals.Signals, w Weights) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = w.Timestamp*s.Timestamps[i] + w.Cut*s.Cuts[i]
	}
	return out
}

// Select returns up to n non-overlapping windows of span seconds, best first.
// Equal scores resolve to the earliest start. The result may be empty.
func Select(s signals.Signals, span, n int, w Weights) []Highlight {
	if span <= 0 || n <= 0 || s.Len() == 0 {
		return nil
	}

	score := Combine(s, w)
	prefix := make([]float64, len(score)+1)
	for i, v := range score {
		prefix[i+1] = prefix[i] + v
	}

	lastStart := int(math.Floor(s.Duration.Seconds())) - span
	if lastStart < 0 {
		return nil
	}

	cands := make([]scored, 0, lastStart+1)
	for st := 0; st <= lastStart; st++ {
		sum := prefix[st+span] - prefix[st]
		cands = append(cands, scored{start: st, score: sum / float64(span)})
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].start < cands[j].start
	})

	var out []Highlight
	for _, c := range cands {
		if len(out) >= n {
			break
		}
		win := clips.Window{
			Start: time.Duration(c.start) * time.Second,
			End:   time.Duration(c.start+span) * time.Second,
		}
		if overlapsAny(win, out) {
			continue
		}
		out = append(out, justify(win, c.score, s))
	}
	return out
}

// Fallback is the default window used when Select returns nothing.
func Fallback(duration time.Duration, span int) clips.Window {
	end := time.Duration(span) * time.Second
	if duration < end {
		end = duration
	}
	return clips.Window{Start: 0, End: end}
}

func overlapsAny(w clips.Window, picked []Highlight) bool {
	for _, h := range picked {
		if w.Overlaps(h.Window) {
			return true
		}
	}
	return false
}

func justify(w clips.Window, score float64, s signals.Signals) Highlight {
	lo := int(w.Start / time.Second)
	hi := int(w.End / time.Second)

	h := Highlight{Window: w, Score: score}
	for _, t := range s.TimestampMarks {
		if t >= lo && t < hi {
			h.TimestampHits++
		}
	}
	for _, c := range s.CutMarks {
		if c >= lo && c < hi {
			h.CutHits++
		}
	}

	if h.TimestampHits == 0 && h.CutHits == 0 {
		h.Reason = "relative activity"
		return h
	}
	h.Reason = fmt.Sprintf("%d timestamp mention(s), %d scene cut(s)", h.TimestampHits, h.CutHits)
	return h
}

// Package signals turns raw heuristic evidence into per-second numeric
// signals over a video's duration.
package signals

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
)

// Signal is indexed by integer second; each cell is an accumulated weight.
type Signal []float64

// Sum returns the total weight in the signal.
func (s Signal) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Options controls the spread of each evidence kind.
type Options struct {
	TimestampRadius int `yaml:"timestamp_radius"`
	CutRadius       int `yaml:"cut_radius"`
}

// DefaultOptions returns the standard radii: 5s around timecodes, 2s around cuts.
func DefaultOptions() Options {
	return Options{TimestampRadius: 5, CutRadius: 2}
}

// Signals is the evidence for one video. Built once, read-only afterwards.
type Signals struct {
	Duration   time.Duration
	Timestamps Signal
	Cuts       Signal

	// Raw evidence positions in whole seconds, kept for justifications.
	TimestampMarks []int
	CutMarks       []int
}

// Len returns the number of per-second cells.
func (s Signals) Len() int {
	return len(s.Timestamps)
}

// Empty reports whether neither signal carries any weight.
func (s Signals) Empty() bool {
	return len(s.TimestampMarks) == 0 && len(s.CutMarks) == 0
}

// Length returns ceil(d)+1, the array length for a duration.
func Length(d time.Duration) int {
	return int(math.Ceil(d.Seconds())) + 1
}

// Extract builds the timestamp-proximity and cut-density signals.
// An empty corpus or cut list yields all-zero signals.
func Extract(duration time.Duration, corpus string, cuts []time.Duration, opts Options) (Signals, error) {
	if duration <= 0 {
		return Signals{}, fmt.Errorf("extract signals: %w", clips.ErrDurationUnknown)
	}
	if opts.TimestampRadius < 0 || opts.CutRadius < 0 {
		return Signals{}, fmt.Errorf("extract signals: negative radius")
	}

	n := Length(duration)
	out := Signals{
		Duration:   duration,
		Timestamps: make(Signal, n),
		Cuts:       make(Signal, n),
	}

	limit := duration.Seconds()
	for _, t := range ParseTimecodes(corpus) {
		if float64(t) > limit {
			continue
		}
		out.TimestampMarks = append(out.TimestampMarks, t)
		spread(out.Timestamps, t, opts.TimestampRadius)
	}

	for _, c := range cuts {
		sec := int(math.Round(c.Seconds()))
		out.CutMarks = append(out.CutMarks, sec)
		spread(out.Cuts, sec, opts.CutRadius)
	}

	return out, nil
}

// spread adds 1 to every cell in [center-radius, center+radius] ∩ [0, len).
func spread(sig Signal, center, radius int) {
	lo := max(center-radius, 0)
	hi := min(center+radius, len(sig)-1)
	for i := lo; i <= hi; i++ {
		sig[i]++
	}
}

var reTimecode = regexp.MustCompile(`\b(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\b`)

// ParseTimecodes finds every MM:SS or H:MM:SS mention in text, in order of
// appearance, as whole seconds. Repeated mentions are all returned.
func ParseTimecodes(text string) []int {
	if text == "" {
		return nil
	}
	var out []int
	for _, m := range reTimecode.FindAllStringSubmatch(text, -1) {
		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		if seconds >= 60 || (m[1] != "" && minutes >= 60) {
			continue
		}
		out = append(out, hours*3600+minutes*60+seconds)
	}
	return out
}

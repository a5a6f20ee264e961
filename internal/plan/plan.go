// Package plan resolves a selection mode into an ordered, grouped list of
// source windows. Building a plan is deterministic and touches nothing
// outside its arguments.
package plan

import (
	"fmt"
	"sort"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
)

// Template describes fixed multi-segment clips: Count windows of
// SegmentLength each, separated by Gap, starting at Start.
type Template struct {
	Count         int           `json:"count" yaml:"count"`
	SegmentLength time.Duration `json:"segment_length" yaml:"segment_length"`
	Gap           time.Duration `json:"gap" yaml:"gap"`
	Start         time.Duration `json:"start" yaml:"start"`
}

// Span is the source time one templated clip consumes.
func (t Template) Span() time.Duration {
	if t.Count <= 0 {
		return 0
	}
	return time.Duration(t.Count)*t.SegmentLength + time.Duration(t.Count-1)*t.Gap
}

// Request is the user's intent for one run.
type Request struct {
	Mode     clips.Mode
	Duration time.Duration

	// Ranges is used by ModeRanges.
	Ranges []clips.Window
	// Highlights is used by ModeHighlights, in any order.
	Highlights []clips.Window
	// Template is used by ModeTemplate.
	Template Template

	// SplitLength subdivides ranges and the whole video; zero disables it.
	SplitLength time.Duration
	// Join puts every explicit range into a single clip, ordered by start.
	Join bool
}

// Build resolves req into a plan. Malformed windows are dropped and reported
// in Plan.Warnings; an error is returned only when nothing can be planned.
func Build(req Request) (*clips.Plan, error) {
	b := &builder{plan: &clips.Plan{Mode: req.Mode}}

	switch req.Mode {
	case clips.ModeRanges:
		b.ranges(req)
	case clips.ModeWhole:
		if req.Duration <= 0 {
			return nil, fmt.Errorf("whole video: %w", clips.ErrDurationUnknown)
		}
		b.split([]clips.Window{{Start: 0, End: req.Duration}}, req.SplitLength, false)
	case clips.ModeHighlights:
		if len(req.Highlights) == 0 {
			return nil, clips.ErrNoHighlight
		}
		b.highlights(req)
	case clips.ModeTemplate:
		if err := b.template(req); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown plan mode %q", req.Mode)
	}

	if len(b.plan.Windows) == 0 {
		return b.plan, fmt.Errorf("no usable windows: %w", clips.ErrInvalidWindow)
	}
	return b.plan, nil
}

type builder struct {
	plan *clips.Plan
}

func (b *builder) warnf(format string, args ...any) {
	b.plan.Warnings = append(b.plan.Warnings, fmt.Sprintf(format, args...))
}

// clamp trims w to [0, duration] when the duration is known and reports
// whether anything usable remains.
func (b *builder) clamp(w clips.Window, duration time.Duration) (clips.Window, bool) {
	orig := w
	if w.Start < 0 {
		b.warnf("window %s: start before 0, clamped", orig)
		w.Start = 0
	}
	if duration > 0 && w.End > duration {
		b.warnf("window %s: end past duration %s, clamped", orig, duration)
		w.End = duration
	}
	if !w.Valid() {
		b.warnf("window %s dropped: %v", orig, clips.ErrInvalidWindow)
		return w, false
	}
	return w, true
}

func (b *builder) ranges(req Request) {
	var valid []clips.Window
	for _, r := range req.Ranges {
		if w, ok := b.clamp(r, req.Duration); ok {
			valid = append(valid, w)
		}
	}
	if req.Join {
		sort.SliceStable(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })
	}
	b.split(valid, req.SplitLength, req.Join)
}

// split subdivides each window into consecutive pieces of length target.
// A shorter final remainder is kept as-is. With join every piece lands in
// one group; otherwise every piece is its own clip.
func (b *builder) split(windows []clips.Window, target time.Duration, join bool) {
	var joined clips.Group
	for _, w := range windows {
		for _, piece := range Split(w, target) {
			idx := len(b.plan.Windows)
			b.plan.Windows = append(b.plan.Windows, piece)
			if join {
				joined.Windows = append(joined.Windows, idx)
				continue
			}
			b.addGroup(clips.Group{Windows: []int{idx}})
		}
	}
	if join && len(joined.Windows) > 0 {
		b.addGroup(joined)
	}
}

func (b *builder) highlights(req Request) {
	ordered := append([]clips.Window(nil), req.Highlights...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var kept []clips.Window
	for _, h := range ordered {
		w, ok := b.clamp(h, req.Duration)
		if !ok {
			continue
		}
		if n := len(kept); n > 0 && kept[n-1].Overlaps(w) {
			b.warnf("highlight %s dropped: overlaps %s", w, kept[n-1])
			continue
		}
		kept = append(kept, w)
	}
	for _, w := range kept {
		idx := len(b.plan.Windows)
		b.plan.Windows = append(b.plan.Windows, w)
		b.addGroup(clips.Group{Windows: []int{idx}, Label: "highlight"})
	}
}

func (b *builder) template(req Request) error {
	t := req.Template
	switch {
	case req.Duration <= 0:
		return fmt.Errorf("template: %w", clips.ErrDurationUnknown)
	case t.Count < 1:
		return fmt.Errorf("template: segment count must be at least 1: %w", clips.ErrInvalidWindow)
	case t.SegmentLength <= 0:
		return fmt.Errorf("template: segment length must be positive: %w", clips.ErrInvalidWindow)
	case t.Gap < 0 || t.Start < 0:
		return fmt.Errorf("template: negative gap or start: %w", clips.ErrInvalidWindow)
	}

	for cursor := t.Start; cursor+t.Span() <= req.Duration; cursor += t.Span() {
		g := clips.Group{Label: fmt.Sprintf("template %dx%s", t.Count, t.SegmentLength)}
		for i := 0; i < t.Count; i++ {
			start := cursor + time.Duration(i)*(t.SegmentLength+t.Gap)
			g.Windows = append(g.Windows, len(b.plan.Windows))
			b.plan.Windows = append(b.plan.Windows, clips.Window{Start: start, End: start + t.SegmentLength})
		}
		b.addGroup(g)
	}
	if len(b.plan.Groups) == 0 {
		b.warnf("template needs %s from %s, source is %s", t.Span(), t.Start, req.Duration)
	}
	return nil
}

func (b *builder) addGroup(g clips.Group) {
	g.Index = len(b.plan.Groups)
	b.plan.Groups = append(b.plan.Groups, g)
}

// Split cuts w into consecutive windows of length target, keeping any
// shorter remainder. A non-positive target returns w unchanged.
func Split(w clips.Window, target time.Duration) []clips.Window {
	if target <= 0 || w.Duration() <= target {
		return []clips.Window{w}
	}
	var out []clips.Window
	for start := w.Start; start < w.End; start += target {
		out = append(out, clips.Window{Start: start, End: min(start+target, w.End)})
	}
	return out
}

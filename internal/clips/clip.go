package clips

import (
	"fmt"
	"time"
)

// Window is a contiguous interval [Start, End) of the source timeline.
type Window struct {
	Start time.Duration `json:"start" yaml:"start"`
	End   time.Duration `json:"end" yaml:"end"`
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End - w.Start
}

// Valid reports whether the window has a non-negative start and positive length.
func (w Window) Valid() bool {
	return w.Start >= 0 && w.End > w.Start
}

// Contains reports whether [start, end] lies fully inside the window.
func (w Window) Contains(start, end time.Duration) bool {
	return start >= w.Start && end <= w.End
}

// Overlaps reports whether two half-open windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("[%.3fs,%.3fs)", w.Start.Seconds(), w.End.Seconds())
}

// Group is one logical clip: an ordered list of indices into Plan.Windows.
type Group struct {
	Index   int    `json:"index" yaml:"index"`
	Windows []int  `json:"windows" yaml:"windows"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Mode selects how a plan was derived from user intent.
type Mode string

const (
	ModeRanges     Mode = "ranges"
	ModeWhole      Mode = "whole"
	ModeHighlights Mode = "highlights"
	ModeTemplate   Mode = "template"
)

// Plan is the ordered set of windows to extract, grouped into clips.
// It is built once before rendering and never mutated afterwards.
type Plan struct {
	Mode     Mode     `json:"mode" yaml:"mode"`
	Windows  []Window `json:"windows" yaml:"windows"`
	Groups   []Group  `json:"groups" yaml:"groups"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// GroupWindows returns the windows of g in clip order.
func (p *Plan) GroupWindows(g Group) []Window {
	out := make([]Window, 0, len(g.Windows))
	for _, idx := range g.Windows {
		if idx >= 0 && idx < len(p.Windows) {
			out = append(out, p.Windows[idx])
		}
	}
	return out
}

// TotalDuration sums the length of every planned window.
func (p *Plan) TotalDuration() time.Duration {
	var total time.Duration
	for _, w := range p.Windows {
		total += w.Duration()
	}
	return total
}

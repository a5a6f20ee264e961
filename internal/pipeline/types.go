package pipeline

import (
	"time"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/highlights"
	"github.com/kikiluvv/recut/internal/overlays"
	"github.com/kikiluvv/recut/internal/plan"
)

// Request is what the operator asked for.
type Request struct {
	Mode     clips.Mode
	Ranges   []clips.Window
	Template plan.Template
	// Split subdivides ranges and the whole video; zero disables it.
	Split time.Duration
	Join  bool

	// Span and Count override the configured highlight settings when set.
	Span  int
	Count int

	Captions bool
	Language string

	// Name seeds the run directory; defaults to the media file name.
	Name string
}

// Job is a fully planned run. Building one touches nothing on disk;
// everything random about the run is decided here.
type Job struct {
	ID        string
	Input     string
	Duration  time.Duration
	Request   Request
	CreatedAt time.Time

	Plan       *clips.Plan
	Highlights []highlights.Highlight
	// Profiles is index-aligned with Plan.Windows.
	Profiles []effects.Profile
	Overlays overlays.Assets
	Warnings []string
}

// Caption sources recorded in the manifest.
const (
	CaptionsNone        = "none"
	CaptionsSource      = "source"
	CaptionsTranscribed = "transcribed"
)

// Manifest describes everything a run produced, including what it skipped.
type Manifest struct {
	ID          string              `json:"id"`
	Input       string              `json:"input"`
	Mode        clips.Mode          `json:"mode"`
	DurationSec float64             `json:"duration_sec"`
	CreatedAt   time.Time           `json:"created_at"`
	Captions    string              `json:"captions"`
	Highlights  []ManifestHighlight `json:"highlights,omitempty"`
	Clips       []ManifestClip      `json:"clips"`
	Warnings    []string            `json:"warnings,omitempty"`

	// Dir is the run output directory.
	Dir string `json:"-"`
}

type ManifestHighlight struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

type ManifestClip struct {
	Index       int               `json:"index"`
	Label       string            `json:"label,omitempty"`
	File        string            `json:"file,omitempty"`
	Subtitles   string            `json:"subtitles,omitempty"`
	Poster      string            `json:"poster,omitempty"`
	Captions    int               `json:"captions"`
	DurationSec float64           `json:"duration_sec"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Windows     []ManifestWindow  `json:"windows"`
	Error       string            `json:"error,omitempty"`
}

type ManifestWindow struct {
	StartSec  float64         `json:"start_sec"`
	EndSec    float64         `json:"end_sec"`
	Profile   effects.Profile `json:"profile"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Error     string          `json:"error,omitempty"`
}

// Produced reports how many clips made it to disk.
func (m *Manifest) Produced() int {
	n := 0
	for _, c := range m.Clips {
		if c.Error == "" {
			n++
		}
	}
	return n
}

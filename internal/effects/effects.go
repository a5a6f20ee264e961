// Package effects samples the per-window transformation profile that keeps
// every rendered window distinct from any other.
package effects

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Source is the randomness Generate draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Corner is a logo anchor position.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

var corners = []Corner{TopLeft, TopRight, BottomLeft, BottomRight}

// LogoPlacement is applied only when a logo asset is available.
type LogoPlacement struct {
	Corner  Corner  `json:"corner" yaml:"corner"`
	Opacity float64 `json:"opacity" yaml:"opacity"`
	Scale   float64 `json:"scale" yaml:"scale"`
}

// Profile is one window's transformation parameters. Never reused.
type Profile struct {
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Gamma      float64 `json:"gamma" yaml:"gamma"`
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Hue        float64 `json:"hue" yaml:"hue"`

	RedBalance   float64 `json:"red_balance" yaml:"red_balance"`
	GreenBalance float64 `json:"green_balance" yaml:"green_balance"`
	BlueBalance  float64 `json:"blue_balance" yaml:"blue_balance"`

	Rotation float64 `json:"rotation" yaml:"rotation"` // signed degrees
	Zoom     float64 `json:"zoom" yaml:"zoom"`
	PanX     float64 `json:"pan_x" yaml:"pan_x"`
	PanY     float64 `json:"pan_y" yaml:"pan_y"`

	Grain       float64 `json:"grain" yaml:"grain"`
	Sharpen     float64 `json:"sharpen" yaml:"sharpen"`
	ChromaShift int     `json:"chroma_shift" yaml:"chroma_shift"`

	// Speed stays at 1 so picture and sound remain in sync across cuts.
	Speed  float64 `json:"speed" yaml:"speed"`
	Pitch  float64 `json:"pitch" yaml:"pitch"`
	Bass   float64 `json:"bass" yaml:"bass"`
	Treble float64 `json:"treble" yaml:"treble"`

	CRF    int    `json:"crf" yaml:"crf"`
	Preset string `json:"preset" yaml:"preset"`

	Logo LogoPlacement `json:"logo" yaml:"logo"`
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// DefaultSource is the runtime-seeded global generator. It is safe for
// concurrent use.
func DefaultSource() Source {
	return globalSource{}
}

// Generate draws a fresh profile. Every field is sampled independently; a
// nil src uses the runtime-seeded global generator. Generate keeps no state
// between calls.
func Generate(src Source, r Ranges) Profile {
	if src == nil {
		src = globalSource{}
	}

	rotation := r.Rotation.Sample(src)
	if src.IntN(2) == 0 {
		rotation = -rotation
	}

	preset := ""
	if len(r.Presets) > 0 {
		preset = r.Presets[src.IntN(len(r.Presets))]
	}

	return Profile{
		Saturation: r.Saturation.Sample(src),
		Contrast:   r.Contrast.Sample(src),
		Gamma:      r.Gamma.Sample(src),
		Brightness: r.Brightness.Sample(src),
		Hue:        r.Hue.Sample(src),

		RedBalance:   r.RedBalance.Sample(src),
		GreenBalance: r.GreenBalance.Sample(src),
		BlueBalance:  r.BlueBalance.Sample(src),

		Rotation: rotation,
		Zoom:     r.Zoom.Sample(src),
		PanX:     r.PanX.Sample(src),
		PanY:     r.PanY.Sample(src),

		Grain:       r.Grain.Sample(src),
		Sharpen:     r.Sharpen.Sample(src),
		ChromaShift: r.ChromaShift.Sample(src),

		Speed:  1,
		Pitch:  r.Pitch.Sample(src),
		Bass:   r.Bass.Sample(src),
		Treble: r.Treble.Sample(src),

		CRF:    r.CRF.Sample(src),
		Preset: preset,

		Logo: LogoPlacement{
			Corner:  corners[src.IntN(len(corners))],
			Opacity: r.LogoOpacity.Sample(src),
			Scale:   r.LogoScale.Sample(src),
		},
	}
}

// GenerateN returns n independent profiles.
func GenerateN(src Source, r Ranges, n int) []Profile {
	out := make([]Profile, n)
	for i := range out {
		out[i] = Generate(src, r)
	}
	return out
}

// Check reports every field of p that falls outside r.
func (p Profile) Check(r Ranges) error {
	var errs []error
	floats := []struct {
		name string
		v    float64
		r    FloatRange
	}{
		{"saturation", p.Saturation, r.Saturation},
		{"contrast", p.Contrast, r.Contrast},
		{"gamma", p.Gamma, r.Gamma},
		{"brightness", p.Brightness, r.Brightness},
		{"hue", p.Hue, r.Hue},
		{"red_balance", p.RedBalance, r.RedBalance},
		{"green_balance", p.GreenBalance, r.GreenBalance},
		{"blue_balance", p.BlueBalance, r.BlueBalance},
		{"rotation", abs(p.Rotation), r.Rotation},
		{"zoom", p.Zoom, r.Zoom},
		{"pan_x", p.PanX, r.PanX},
		{"pan_y", p.PanY, r.PanY},
		{"grain", p.Grain, r.Grain},
		{"sharpen", p.Sharpen, r.Sharpen},
		{"pitch", p.Pitch, r.Pitch},
		{"bass", p.Bass, r.Bass},
		{"treble", p.Treble, r.Treble},
		{"logo_opacity", p.Logo.Opacity, r.LogoOpacity},
		{"logo_scale", p.Logo.Scale, r.LogoScale},
	}
	for _, f := range floats {
		if !f.r.Contains(f.v) {
			errs = append(errs, fmt.Errorf("%s %g outside [%g, %g]", f.name, f.v, f.r.Min, f.r.Max))
		}
	}
	if !r.ChromaShift.Contains(p.ChromaShift) {
		errs = append(errs, fmt.Errorf("chroma_shift %d outside [%d, %d]", p.ChromaShift, r.ChromaShift.Min, r.ChromaShift.Max))
	}
	if !r.CRF.Contains(p.CRF) {
		errs = append(errs, fmt.Errorf("crf %d outside [%d, %d]", p.CRF, r.CRF.Min, r.CRF.Max))
	}
	if !contains(r.Presets, p.Preset) {
		errs = append(errs, fmt.Errorf("preset %q not allowed", p.Preset))
	}
	if p.Speed != 1 {
		errs = append(errs, fmt.Errorf("speed %g must be 1", p.Speed))
	}
	return errors.Join(errs...)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

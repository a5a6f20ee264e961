package effects

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// FloatRange is an inclusive [Min, Max] interval sampled uniformly.
type FloatRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Sample draws a value uniformly from the range.
func (r FloatRange) Sample(src Source) float64 {
	return r.Min + src.Float64()*(r.Max-r.Min)
}

// Contains reports whether v lies inside the range.
func (r FloatRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// IntRange is an inclusive integer interval.
type IntRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Sample draws an integer uniformly from the range.
func (r IntRange) Sample(src Source) int {
	return r.Min + src.IntN(r.Max-r.Min+1)
}

// Contains reports whether v lies inside the range.
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Ranges is the documented contract for every randomized Profile field.
// It is passed by value; callers get their own copy from DefaultRanges.
type Ranges struct {
	Saturation FloatRange `yaml:"saturation"`
	Contrast   FloatRange `yaml:"contrast"`
	Gamma      FloatRange `yaml:"gamma"`
	Brightness FloatRange `yaml:"brightness"`
	Hue        FloatRange `yaml:"hue"` // degrees

	RedBalance   FloatRange `yaml:"red_balance"`
	GreenBalance FloatRange `yaml:"green_balance"`
	BlueBalance  FloatRange `yaml:"blue_balance"`

	// Rotation is the magnitude in degrees; the sign is chosen separately.
	Rotation FloatRange `yaml:"rotation"`
	Zoom     FloatRange `yaml:"zoom"`
	PanX     FloatRange `yaml:"pan_x"` // fraction of the zoom margin
	PanY     FloatRange `yaml:"pan_y"`

	Grain       FloatRange `yaml:"grain"`
	Sharpen     FloatRange `yaml:"sharpen"` // negative values blur
	ChromaShift IntRange   `yaml:"chroma_shift"`

	Pitch  FloatRange `yaml:"pitch"`
	Bass   FloatRange `yaml:"bass"`   // dB
	Treble FloatRange `yaml:"treble"` // dB

	CRF     IntRange `yaml:"crf"`
	Presets []string `yaml:"presets"`

	LogoOpacity FloatRange `yaml:"logo_opacity"`
	LogoScale   FloatRange `yaml:"logo_scale"` // fraction of frame width
}

// DefaultRanges returns a fresh copy of the standard ranges.
func DefaultRanges() Ranges {
	return Ranges{
		Saturation: FloatRange{0.96, 1.06},
		Contrast:   FloatRange{0.97, 1.05},
		Gamma:      FloatRange{0.97, 1.03},
		Brightness: FloatRange{-0.03, 0.03},
		Hue:        FloatRange{-4, 4},

		RedBalance:   FloatRange{0.96, 1.04},
		GreenBalance: FloatRange{0.96, 1.04},
		BlueBalance:  FloatRange{0.96, 1.04},

		Rotation: FloatRange{0.1, 0.5},
		Zoom:     FloatRange{1.01, 1.04},
		PanX:     FloatRange{0, 1},
		PanY:     FloatRange{0, 1},

		Grain:       FloatRange{2, 8},
		Sharpen:     FloatRange{-0.4, 0.8},
		ChromaShift: IntRange{1, 2},

		Pitch:  FloatRange{0.985, 1.015},
		Bass:   FloatRange{-2, 3},
		Treble: FloatRange{-2, 2},

		CRF:     IntRange{18, 23},
		Presets: []string{"veryfast", "faster", "fast", "medium"},

		LogoOpacity: FloatRange{0.15, 0.35},
		LogoScale:   FloatRange{0.08, 0.14},
	}
}

// Validate rejects inverted intervals and values the encoder cannot take.
func (r Ranges) Validate() error {
	var errs []error
	floats := r.floats()
	for _, name := range slices.Sorted(maps.Keys(floats)) {
		if fr := floats[name]; fr.Min > fr.Max {
			errs = append(errs, fmt.Errorf("%s: min %g > max %g", name, fr.Min, fr.Max))
		}
	}
	if r.ChromaShift.Min < 0 || r.ChromaShift.Min > r.ChromaShift.Max {
		errs = append(errs, fmt.Errorf("chroma_shift: bad range %d..%d", r.ChromaShift.Min, r.ChromaShift.Max))
	}
	if r.CRF.Min < 0 || r.CRF.Max > 51 || r.CRF.Min > r.CRF.Max {
		errs = append(errs, fmt.Errorf("crf: bad range %d..%d", r.CRF.Min, r.CRF.Max))
	}
	if len(r.Presets) == 0 {
		errs = append(errs, errors.New("presets: empty"))
	}
	if r.Zoom.Min < 1 {
		errs = append(errs, fmt.Errorf("zoom: min %g below 1", r.Zoom.Min))
	}
	if r.Pitch.Min <= 0 {
		errs = append(errs, fmt.Errorf("pitch: min %g not positive", r.Pitch.Min))
	}
	return errors.Join(errs...)
}

func (r Ranges) floats() map[string]FloatRange {
	return map[string]FloatRange{
		"saturation":    r.Saturation,
		"contrast":      r.Contrast,
		"gamma":         r.Gamma,
		"brightness":    r.Brightness,
		"hue":           r.Hue,
		"red_balance":   r.RedBalance,
		"green_balance": r.GreenBalance,
		"blue_balance":  r.BlueBalance,
		"rotation":      r.Rotation,
		"zoom":          r.Zoom,
		"pan_x":         r.PanX,
		"pan_y":         r.PanY,
		"grain":         r.Grain,
		"sharpen":       r.Sharpen,
		"pitch":         r.Pitch,
		"bass":          r.Bass,
		"treble":        r.Treble,
		"logo_opacity":  r.LogoOpacity,
		"logo_scale":    r.LogoScale,
	}
}

package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterBuilder helps construct complex ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// num formats a float compactly with at most four decimals.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		// Return self without adding filter - allows chaining to continue
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Crop adds a crop filter
func (fb *FilterBuilder) Crop(width, height, x, y int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("crop=%d:%d:%d:%d", width, height, x, y))
	return fb
}

// Zoom scales the frame up by factor and crops back to the original size.
// panX and panY in [0,1] pick where inside the margin the crop lands.
func (fb *FilterBuilder) Zoom(factor, panX, panY float64) *FilterBuilder {
	if factor <= 1 {
		return fb
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("scale=trunc(iw*%s/2)*2:trunc(ih*%s/2)*2", num(factor), num(factor)),
		fmt.Sprintf("crop=trunc(iw/%[1]s/2)*2:trunc(ih/%[1]s/2)*2:(iw-ow)*%[2]s:(ih-oh)*%[3]s",
			num(factor), num(panX), num(panY)),
	)
	return fb
}

// Rotate tilts the frame by degrees, keeping its size.
func (fb *FilterBuilder) Rotate(degrees float64) *FilterBuilder {
	if degrees == 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("rotate=%s*PI/180:ow=iw:oh=ih:fillcolor=black", num(degrees)))
	return fb
}

// EQ adjusts saturation, contrast, gamma and brightness.
func (fb *FilterBuilder) EQ(saturation, contrast, gamma, brightness float64) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf("eq=saturation=%s:contrast=%s:gamma=%s:brightness=%s",
		num(saturation), num(contrast), num(gamma), num(brightness)))
	return fb
}

// Hue rotates the hue by degrees.
func (fb *FilterBuilder) Hue(degrees float64) *FilterBuilder {
	if degrees == 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("hue=h=%s", num(degrees)))
	return fb
}

// ColorBalance multiplies each channel.
func (fb *FilterBuilder) ColorBalance(r, g, b float64) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf("colorchannelmixer=rr=%s:gg=%s:bb=%s", num(r), num(g), num(b)))
	return fb
}

// Grain adds temporal noise of the given strength.
func (fb *FilterBuilder) Grain(strength float64) *FilterBuilder {
	if strength <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("noise=alls=%d:allf=t", int(strength+0.5)))
	return fb
}

// Sharpen applies unsharp; negative amounts blur.
func (fb *FilterBuilder) Sharpen(amount float64) *FilterBuilder {
	if amount == 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("unsharp=5:5:%s:5:5:0", num(amount)))
	return fb
}

// ChromaShift offsets the red and blue planes horizontally by px pixels.
func (fb *FilterBuilder) ChromaShift(px int) *FilterBuilder {
	if px == 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("rgbashift=rh=%d:bh=%d", px, -px))
	return fb
}

// PitchShift changes pitch by ratio while keeping playback speed.
func (fb *FilterBuilder) PitchShift(ratio float64, sampleRate int) *FilterBuilder {
	if ratio <= 0 || ratio == 1 {
		return fb
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("aresample=%d", sampleRate),
		fmt.Sprintf("asetrate=%d", int(float64(sampleRate)*ratio+0.5)),
		fmt.Sprintf("aresample=%d", sampleRate),
		fmt.Sprintf("atempo=%s", num(1/ratio)),
	)
	return fb
}

// Bass adds a low-shelf gain in dB.
func (fb *FilterBuilder) Bass(gainDB float64) *FilterBuilder {
	if gainDB == 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("bass=g=%s", num(gainDB)))
	return fb
}

// Treble adds a high-shelf gain in dB.
func (fb *FilterBuilder) Treble(gainDB float64) *FilterBuilder {
	if gainDB == 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("treble=g=%s", num(gainDB)))
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// BuildAll returns all filters as a slice
func (fb *FilterBuilder) BuildAll() []string {
	return fb.filters
}

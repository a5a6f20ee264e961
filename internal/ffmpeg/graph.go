package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/kikiluvv/recut/internal/effects"
)

const logoMargin = 24

// EffectGraph is a -filter_complex graph plus the output labels to map.
type EffectGraph struct {
	Graph string
	Video string
	Audio string // empty when the source has no audio
}

// GraphOptions describes the inputs an effect graph is built against.
type GraphOptions struct {
	Logo       bool // input 1 is a logo image
	Audio      bool
	SampleRate int
}

// BuildEffectGraph translates a profile into one filter graph. Geometry
// runs before color so rotation corners fall outside the zoom crop.
func BuildEffectGraph(p effects.Profile, opts GraphOptions) EffectGraph {
	video := NewFilterBuilder().
		Rotate(p.Rotation).
		Zoom(p.Zoom, p.PanX, p.PanY).
		EQ(p.Saturation, p.Contrast, p.Gamma, p.Brightness).
		Hue(p.Hue).
		ColorBalance(p.RedBalance, p.GreenBalance, p.BlueBalance).
		Sharpen(p.Sharpen).
		ChromaShift(p.ChromaShift).
		Grain(p.Grain)

	var chains []string
	g := EffectGraph{Video: "[vout]"}

	if opts.Logo {
		chains = append(chains,
			"[0:v]"+video.Build()+"[vbase]",
			fmt.Sprintf("[1:v]format=rgba,colorchannelmixer=aa=%s[lgraw]", num(p.Logo.Opacity)),
			fmt.Sprintf("[lgraw][vbase]scale2ref=w=main_w*%s:h=ow/a[lg][vref]", num(p.Logo.Scale)),
			fmt.Sprintf("[vref][lg]overlay=%s,format=yuv420p[vout]", cornerPosition(p.Logo.Corner)),
		)
	} else {
		chains = append(chains, "[0:v]"+video.Custom("format=yuv420p").Build()+"[vout]")
	}

	if opts.Audio {
		audio := NewFilterBuilder().
			PitchShift(p.Pitch, opts.SampleRate).
			Bass(p.Bass).
			Treble(p.Treble)
		af := audio.Build()
		if af == "" {
			af = "anull"
		}
		chains = append(chains, "[0:a]"+af+"[aout]")
		g.Audio = "[aout]"
	}

	g.Graph = strings.Join(chains, ";")
	return g
}

func cornerPosition(c effects.Corner) string {
	m := logoMargin
	switch c {
	case effects.TopLeft:
		return fmt.Sprintf("%d:%d", m, m)
	case effects.TopRight:
		return fmt.Sprintf("W-w-%d:%d", m, m)
	case effects.BottomLeft:
		return fmt.Sprintf("%d:H-h-%d", m, m)
	default:
		return fmt.Sprintf("W-w-%d:H-h-%d", m, m)
	}
}

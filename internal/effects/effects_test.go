package effects

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_WithinRanges(t *testing.T) {
	r := DefaultRanges()
	require.NoError(t, r.Validate())

	src := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 2000; i++ {
		p := Generate(src, r)
		require.NoError(t, p.Check(r), "profile %d", i)
		assert.Equal(t, 1.0, p.Speed)
	}
}

func TestGenerate_IndependentCallsDiffer(t *testing.T) {
	r := DefaultRanges()
	for i := 0; i < 50; i++ {
		a := Generate(nil, r)
		b := Generate(nil, r)
		assert.NotEqual(t, a, b)
	}
}

func TestGenerate_RotationTakesBothSigns(t *testing.T) {
	src := rand.New(rand.NewPCG(7, 7))
	var neg, pos int
	for _, p := range GenerateN(src, DefaultRanges(), 200) {
		if p.Rotation < 0 {
			neg++
		} else {
			pos++
		}
	}
	assert.Positive(t, neg)
	assert.Positive(t, pos)
}

func TestGenerate_DegenerateRangeIsFixed(t *testing.T) {
	r := DefaultRanges()
	r.Zoom = FloatRange{1.02, 1.02}
	r.CRF = IntRange{20, 20}
	r.Presets = []string{"slow"}

	p := Generate(rand.New(rand.NewPCG(3, 4)), r)
	assert.Equal(t, 1.02, p.Zoom)
	assert.Equal(t, 20, p.CRF)
	assert.Equal(t, "slow", p.Preset)
}

func TestDefaultRanges_FreshCopy(t *testing.T) {
	a := DefaultRanges()
	a.Presets[0] = "placebo"
	a.Saturation.Max = 9

	b := DefaultRanges()
	assert.Equal(t, "veryfast", b.Presets[0])
	assert.Equal(t, 1.06, b.Saturation.Max)
}

func TestRanges_Validate(t *testing.T) {
	r := DefaultRanges()
	r.Gamma = FloatRange{1.2, 0.8}
	r.CRF = IntRange{30, 60}
	r.Presets = nil

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gamma")
	assert.Contains(t, err.Error(), "crf")
	assert.Contains(t, err.Error(), "presets")
}

func TestProfile_CheckFlagsOutOfRange(t *testing.T) {
	r := DefaultRanges()
	p := Generate(rand.New(rand.NewPCG(5, 6)), r)
	p.Hue = 40
	p.Speed = 1.1

	err := p.Check(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hue")
	assert.Contains(t, err.Error(), "speed")
}

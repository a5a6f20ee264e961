package highlights

import (
	"testing"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/signals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peakAt(duration time.Duration, sec int) signals.Signals {
	n := signals.Length(duration)
	s := signals.Signals{
		Duration:   duration,
		Timestamps: make(signals.Signal, n),
		Cuts:       make(signals.Signal, n),
		CutMarks:   []int{sec},
	}
	s.Cuts[sec] = 1
	return s
}

func TestSelect_SinglePeak(t *testing.T) {
	got := Select(peakAt(100*time.Second, 50), 30, 3, DefaultWeights())
	require.NotEmpty(t, got)

	first := got[0].Window
	assert.True(t, first.Start <= 50*time.Second && 50*time.Second < first.End, "first window %s", first)
	assert.Equal(t, 21*time.Second, first.Start, "ties resolve to earliest start")
	assert.Equal(t, "0 timestamp mention(s), 1 scene cut(s)", got[0].Reason)

	for i, h := range got {
		assert.Equal(t, 30*time.Second, h.Window.Duration())
		assert.LessOrEqual(t, h.Window.End, 100*time.Second)
		for j := i + 1; j < len(got); j++ {
			assert.False(t, h.Window.Overlaps(got[j].Window), "%s overlaps %s", h.Window, got[j].Window)
		}
	}
}

func TestSelect_FlatSignalUsesRelativeActivity(t *testing.T) {
	s, err := signals.Extract(90*time.Second, "", nil, signals.DefaultOptions())
	require.NoError(t, err)

	got := Select(s, 30, 5, DefaultWeights())
	require.Len(t, got, 3)
	assert.Equal(t, clips.Window{Start: 0, End: 30 * time.Second}, got[0].Window)
	assert.Equal(t, clips.Window{Start: 30 * time.Second, End: 60 * time.Second}, got[1].Window)
	assert.Equal(t, clips.Window{Start: 60 * time.Second, End: 90 * time.Second}, got[2].Window)
	for _, h := range got {
		assert.Equal(t, "relative activity", h.Reason)
	}
}

func TestSelect_TimestampsOutweighCuts(t *testing.T) {
	s, err := signals.Extract(120*time.Second, "watch 1:40", []time.Duration{15 * time.Second}, signals.DefaultOptions())
	require.NoError(t, err)

	got := Select(s, 20, 1, DefaultWeights())
	require.Len(t, got, 1)
	assert.True(t, got[0].Window.Contains(100*time.Second, 101*time.Second), "got %s", got[0].Window)
	assert.Equal(t, 1, got[0].TimestampHits)
}

func TestSelect_VideoShorterThanSpan(t *testing.T) {
	s, err := signals.Extract(12*time.Second, "0:05", nil, signals.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, Select(s, 30, 3, DefaultWeights()))

	fb := Fallback(12*time.Second, 30)
	assert.Equal(t, clips.Window{Start: 0, End: 12 * time.Second}, fb)
	assert.Equal(t, clips.Window{Start: 0, End: 30 * time.Second}, Fallback(time.Hour, 30))
}

func TestSelect_BadArguments(t *testing.T) {
	s := peakAt(100*time.Second, 50)
	assert.Nil(t, Select(s, 0, 3, DefaultWeights()))
	assert.Nil(t, Select(s, 30, 0, DefaultWeights()))
	assert.Nil(t, Select(signals.Signals{}, 30, 3, DefaultWeights()))
}

package signals

import (
	"errors"
	"testing"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimecodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{"empty", "", nil},
		{"minutes", "best part at 1:30 and again 1:30", []int{90, 90}},
		{"hours", "chapter 1:02:03 starts", []int{3723}},
		{"invalid seconds", "score was 3:75", nil},
		{"mixed", "00:10 intro\n12:00 outro", []int{10, 720}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimecodes(tt.text))
		})
	}
}

func TestExtract_TimestampRadiusCompounds(t *testing.T) {
	s, err := Extract(20*time.Second, "see 0:10, seriously 0:10", nil, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 21, s.Len())

	for i := 0; i < s.Len(); i++ {
		want := 0.0
		if i >= 5 && i <= 15 {
			want = 2
		}
		assert.Equal(t, want, s.Timestamps[i], "second %d", i)
	}
	assert.Equal(t, []int{10, 10}, s.TimestampMarks)
}

func TestExtract_ClipsAtBoundsAndIgnoresLateTimecodes(t *testing.T) {
	s, err := Extract(10*time.Second, "0:02 and 5:00", []time.Duration{
		9600 * time.Millisecond, // rounds to 10
		200 * time.Millisecond,  // rounds to 0
	}, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 11, s.Len())

	assert.Equal(t, []int{2}, s.TimestampMarks)
	assert.Equal(t, 1.0, s.Timestamps[0])
	assert.Equal(t, 1.0, s.Timestamps[7])
	assert.Equal(t, 0.0, s.Timestamps[8])

	assert.Equal(t, []float64{1, 1, 1, 0, 0, 0, 0, 0, 1, 1, 1}, []float64(s.Cuts))
}

func TestExtract_EmptyEvidenceIsZero(t *testing.T) {
	s, err := Extract(4500*time.Millisecond, "", nil, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Equal(t, 6, s.Len())
	assert.Zero(t, s.Timestamps.Sum()+s.Cuts.Sum())
}

func TestExtract_UnknownDuration(t *testing.T) {
	_, err := Extract(0, "1:00", nil, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, clips.ErrDurationUnknown))
}

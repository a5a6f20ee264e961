// Package ports declares the external collaborators the clip pipeline
// depends on. Adapters live next to the tools they wrap.
package ports

import (
	"context"
	"time"

	"github.com/kikiluvv/recut/internal/captions"
	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/overlays"
)

// SourceAcquirer exposes the source media and its metadata.
type SourceAcquirer interface {
	// MediaPath is the local file every render reads from.
	MediaPath() string
	FetchDuration(ctx context.Context) (time.Duration, error)
	FetchDescriptionAndComments(ctx context.Context) (string, error)
	// FetchExistingCaptions returns nil, nil when no track exists for lang.
	FetchExistingCaptions(ctx context.Context, lang string) ([]captions.Entry, error)
}

// RenderRequest is one window's declarative render job.
type RenderRequest struct {
	Input    string
	Output   string
	Window   clips.Window
	Profile  effects.Profile
	Overlays overlays.Assets
	Metadata map[string]string
}

// ConcatRequest joins rendered windows by stream copy.
type ConcatRequest struct {
	Inputs   []string
	Output   string
	Metadata map[string]string
	// Subtitles is an optional SRT muxed as a soft track.
	Subtitles string
}

// Transcoder renders and concatenates media.
type Transcoder interface {
	RenderWindow(ctx context.Context, req RenderRequest) error
	Concat(ctx context.Context, req ConcatRequest) error
}

// SceneDetector reports scene-cut instants.
type SceneDetector interface {
	DetectScenes(ctx context.Context, input string, threshold float64) ([]time.Duration, error)
}

// MediaTool covers the auxiliary extraction steps around rendering.
type MediaTool interface {
	// ExtractSpeechAudio writes 16 kHz mono WAV for transcription.
	ExtractSpeechAudio(ctx context.Context, input, output string) error
	// ExtractFrame writes a single JPEG frame taken at the given offset.
	ExtractFrame(ctx context.Context, input string, at time.Duration, output string) error
}

// Transcriber turns an audio file into timed text. It returns nil, nil
// when the audio holds no speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, lang string) ([]captions.Entry, error)
}

package clips

import "errors"

var (
	// ErrInvalidWindow marks a malformed range (end <= start, negative start).
	ErrInvalidWindow = errors.New("invalid window")
	// ErrSignalUnavailable marks missing evidence; planning continues with zero signals.
	ErrSignalUnavailable = errors.New("signal unavailable")
	// ErrNoHighlight is returned when scoring selects nothing.
	ErrNoHighlight = errors.New("no highlight found")
	// ErrRenderFailed marks a single window whose transcode failed.
	ErrRenderFailed = errors.New("render failed")
	// ErrEmptyClip marks a clip whose windows all failed to render.
	ErrEmptyClip = errors.New("empty clip")
	// ErrCaptionUnavailable means neither source captions nor a transcript exist.
	ErrCaptionUnavailable = errors.New("caption unavailable")
	// ErrDurationUnknown aborts a run before planning.
	ErrDurationUnknown = errors.New("duration unknown")
)

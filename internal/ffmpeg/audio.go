package ffmpeg

import (
	"context"
	"fmt"
)

// AudioFormat defines audio extraction format options
type AudioFormat struct {
	Codec      string
	SampleRate int
	Channels   int
	Bitrate    string
}

// DefaultWhisperFormat returns optimal format for Whisper transcription
func DefaultWhisperFormat() AudioFormat {
	return AudioFormat{
		Codec:      "pcm_s16le",
		SampleRate: 16000,
		Channels:   1, // mono
	}
}

// ExtractAudio extracts audio stream to a separate file
func (e *Executor) ExtractAudio(ctx context.Context, input, output string, format AudioFormat) error {
	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Str("codec", format.Codec).
		Int("sample_rate", format.SampleRate).
		Msg("extracting audio")

	args := []string{
		"-i", input,
		"-vn", // no video
		"-acodec", format.Codec,
		"-ar", fmt.Sprintf("%d", format.SampleRate),
		"-ac", fmt.Sprintf("%d", format.Channels),
	}

	if format.Bitrate != "" {
		args = append(args, "-b:a", format.Bitrate)
	}

	args = append(args, output)

	opts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("audio extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}

// ExtractSpeechAudio writes the 16 kHz mono WAV transcribers expect.
func (e *Executor) ExtractSpeechAudio(ctx context.Context, input, output string) error {
	return e.ExtractAudio(ctx, input, output, DefaultWhisperFormat())
}

// ExtractSubtitle converts embedded subtitle stream index to SRT.
func (e *Executor) ExtractSubtitle(ctx context.Context, input string, streamIndex int, output string) error {
	e.logger.Info().
		Str("input", input).
		Int("stream", streamIndex).
		Str("output", output).
		Msg("extracting subtitle track")

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-map", fmt.Sprintf("0:%d", streamIndex),
			"-c:s", "srt",
			output,
		},
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("subtitle extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("subtitle extraction failed: %w", err)
	}
	return nil
}

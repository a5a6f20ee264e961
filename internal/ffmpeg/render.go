package ffmpeg

import (
	"context"
	"fmt"
	"sort"

	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/pkg/util"
)

var (
	_ ports.Transcoder    = (*Executor)(nil)
	_ ports.SceneDetector = (*Executor)(nil)
	_ ports.MediaTool     = (*Executor)(nil)
)

// RenderWindow cuts req.Window out of the input and re-encodes it through
// the profile's effect graph.
func (e *Executor) RenderWindow(ctx context.Context, req ports.RenderRequest) error {
	if err := validateRenderRequest(req); err != nil {
		return fmt.Errorf("invalid render request: %w", err)
	}

	info, err := e.cachedProbe(ctx, req.Input)
	if err != nil {
		return fmt.Errorf("probe input: %w", err)
	}

	e.logger.Info().
		Str("input", req.Input).
		Str("output", req.Output).
		Str("window", req.Window.String()).
		Msg("rendering window")

	args := buildRenderArgs(req, info, e.audio)

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("render output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("render %s failed: %w", req.Window, err)
	}

	e.logger.Info().Str("output", req.Output).Msg("render completed")
	return nil
}

func buildRenderArgs(req ports.RenderRequest, info *VideoInfo, audio AudioEncoding) []string {
	p := req.Profile
	graph := BuildEffectGraph(p, GraphOptions{
		Logo:       req.Overlays.HasLogo(),
		Audio:      info.HasAudio,
		SampleRate: info.SampleRate,
	})

	// Input seek is frame accurate when re-encoding.
	args := []string{
		"-ss", util.FormatSeconds(req.Window.Start),
		"-t", util.FormatSeconds(req.Window.Duration()),
		"-i", req.Input,
	}
	if req.Overlays.HasLogo() {
		args = append(args, "-i", req.Overlays.Logo)
	}

	args = append(args,
		"-filter_complex", graph.Graph,
		"-map", graph.Video,
	)
	if graph.Audio != "" {
		args = append(args, "-map", graph.Audio)
	}

	crf := p.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := p.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	args = append(args,
		"-c:v", DefaultVideoCodec,
		"-crf", fmt.Sprintf("%d", crf),
		"-preset", preset,
	)
	if graph.Audio != "" {
		audio = audio.withDefaults()
		args = append(args, "-c:a", audio.Codec, "-b:a", audio.Bitrate)
	}

	args = append(args, "-map_metadata", "-1")
	args = append(args, metadataArgs(req.Metadata)...)
	args = append(args, "-movflags", "+faststart", req.Output)
	return args
}

// metadataArgs renders tags in key order so commands are reproducible.
func metadataArgs(md map[string]string) []string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, "-metadata", k+"="+md[k])
	}
	return args
}

func validateRenderRequest(req ports.RenderRequest) error {
	if req.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if req.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if !req.Window.Valid() {
		return fmt.Errorf("window %s is empty", req.Window)
	}
	if req.Profile.CRF < 0 || req.Profile.CRF > 51 {
		return fmt.Errorf("CRF must be between 0 and 51")
	}
	if req.Profile.Speed != 0 && req.Profile.Speed != 1 {
		return fmt.Errorf("speed %g would desync audio, must be 1", req.Profile.Speed)
	}
	return nil
}

package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kikiluvv/recut/internal/ports"
)

// Concat joins rendered windows in order by stream copy, replacing all
// metadata and optionally muxing a soft subtitle track.
func (e *Executor) Concat(ctx context.Context, req ports.ConcatRequest) error {
	if len(req.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if req.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(req.Inputs)).
		Str("output", req.Output).
		Bool("subtitles", req.Subtitles != "").
		Msg("concatenating windows")

	// Create temporary concat file list next to the output
	concatFile, err := createConcatFile(filepath.Dir(req.Output), req.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(concatFile)

	runOpts := RunOptions{
		Args: buildConcatArgs(concatFile, req),
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concatenating")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}
	return nil
}

func buildConcatArgs(listFile string, req ports.ConcatRequest) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	if req.Subtitles != "" {
		args = append(args, "-i", req.Subtitles)
	}

	args = append(args, "-map", "0:v", "-map", "0:a?")
	if req.Subtitles != "" {
		args = append(args, "-map", "1:s")
	}

	args = append(args, "-c", "copy")
	if req.Subtitles != "" {
		args = append(args, "-c:s", "mov_text")
	}

	args = append(args, "-map_metadata", "-1")
	args = append(args, metadataArgs(req.Metadata)...)
	args = append(args, "-movflags", "+faststart", req.Output)
	return args
}

// createConcatFile generates a file list for the ffmpeg concat demuxer
func createConcatFile(dir string, inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		// concat demuxer quoting: ' becomes '\''
		quoted := strings.ReplaceAll(absPath, "'", `'\''`)
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", quoted); err != nil {
			return "", err
		}
	}

	return tmpFile.Name(), nil
}

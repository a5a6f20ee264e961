// Package whispercpp transcribes speech with a local whisper.cpp binary.
package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kikiluvv/recut/internal/captions"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/pkg/util"
	"github.com/rs/zerolog"
)

var _ ports.Transcriber = (*Adapter)(nil)

type Adapter struct {
	logger   zerolog.Logger
	bin      string
	model    string
	cacheDir string
}

func New(logger zerolog.Logger, binPath, modelPath, cacheDir string) *Adapter {
	return &Adapter{
		logger:   logger.With().Str("component", "transcribe").Str("backend", "whispercpp").Logger(),
		bin:      binPath,
		model:    modelPath,
		cacheDir: cacheDir,
	}
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, lang string) ([]captions.Entry, error) {
	if err := util.EnsureDir(a.cacheDir); err != nil {
		return nil, err
	}
	outPrefix := filepath.Join(a.cacheDir, util.TrimExt(filepath.Base(wavPath))+".whisper")
	defer util.CleanupFiles(outPrefix + ".json")

	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	if lang != "" {
		args = append(args, "-l", lang)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, tail(string(b), 20))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, err
	}
	entries, err := parseOutput(jb)
	if err != nil {
		return nil, err
	}
	a.logger.Info().Int("segments", len(entries)).Dur("elapsed", time.Since(start)).Msg("transcribed")
	return entries, nil
}

// output covers both whisper.cpp JSON layouts: "transcription" with
// millisecond offsets, and the older "segments" list in seconds.
type output struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseOutput(data []byte) ([]captions.Entry, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper.cpp output: %w", err)
	}

	var entries []captions.Entry
	add := func(start, end time.Duration, text string) {
		text = strings.TrimSpace(text)
		// whisper marks silence with bracketed tokens
		if text == "" || text == "[BLANK_AUDIO]" {
			return
		}
		entries = append(entries, captions.Entry{Start: start, End: end, Text: text})
	}
	for _, t := range out.Transcription {
		add(time.Duration(t.Offsets.From)*time.Millisecond, time.Duration(t.Offsets.To)*time.Millisecond, t.Text)
	}
	for _, s := range out.Segments {
		add(util.Seconds(s.Start), util.Seconds(s.End), s.Text)
	}
	return entries, nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

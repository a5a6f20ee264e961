package ffmpeg_test

import (
	"context"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/ffmpeg"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/rs/zerolog"
)

// local helper (cannot use unexported ones from ffmpeg package)
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// generateSource writes a short test pattern with a sine tone.
func generateSource(t *testing.T, dir string, seconds int) string {
	t.Helper()
	path := filepath.Join(dir, "source.mp4")
	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", "testsrc=duration="+strconv.Itoa(seconds)+":size=320x240:rate=25",
		"-f", "lavfi", "-i", "sine=frequency=440:duration="+strconv.Itoa(seconds),
		"-pix_fmt", "yuv420p", "-shortest", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not generate test video: %v\n%s", err, out)
	}
	return path
}

func TestIntegration_RenderAndConcat(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	src := generateSource(t, dir, 6)

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).With().Str("test", "integration_render").Logger()

	ex, err := ffmpeg.New(logger, ffmpeg.Options{Threads: 2})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	info, err := ex.ProbeVideo(ctx, src)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 || !info.HasAudio {
		t.Fatalf("unexpected source info: %+v", info)
	}

	rng := rand.New(rand.NewPCG(11, 12))
	windows := []clips.Window{
		{Start: 0, End: 2 * time.Second},
		{Start: 3 * time.Second, End: 5 * time.Second},
	}
	var parts []string
	for i, w := range windows {
		out := filepath.Join(dir, "part_"+strconv.Itoa(i)+".mp4")
		err := ex.RenderWindow(ctx, ports.RenderRequest{
			Input:    src,
			Output:   out,
			Window:   w,
			Profile:  effects.Generate(rng, effects.DefaultRanges()),
			Metadata: map[string]string{"comment": "part"},
		})
		if err != nil {
			t.Fatalf("RenderWindow %s failed: %v", w, err)
		}
		parts = append(parts, out)
	}

	srt := filepath.Join(dir, "clip.srt")
	if err := os.WriteFile(srt, []byte("1\n00:00:00,500 --> 00:00:01,500\nhello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	final := filepath.Join(dir, "clip.mp4")
	err = ex.Concat(ctx, ports.ConcatRequest{
		Inputs:    parts,
		Output:    final,
		Subtitles: srt,
		Metadata:  map[string]string{"title": "integration"},
	})
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}

	out, err := ex.ProbeVideo(ctx, final)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if d := out.Duration; d < 3500*time.Millisecond || d > 4500*time.Millisecond {
		t.Errorf("expected ~4s output, got %v", d)
	}
	if len(out.Subtitles) != 1 {
		t.Errorf("expected one subtitle track, got %d", len(out.Subtitles))
	}
	if out.Tags["title"] != "integration" {
		t.Errorf("title tag = %q", out.Tags["title"])
	}

	poster := filepath.Join(dir, "poster.jpg")
	if err := ex.ExtractFrame(ctx, final, time.Second, poster); err != nil {
		t.Fatalf("ExtractFrame failed: %v", err)
	}
	if _, err := os.Stat(poster); err != nil {
		t.Errorf("poster not written: %v", err)
	}
}

func TestIntegration_DetectScenesAndAudio(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	src := generateSource(t, dir, 3)

	ex, err := ffmpeg.New(zerolog.Nop(), ffmpeg.Options{})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	ctx := context.Background()

	scenes, err := ex.DetectScenes(ctx, src, 0.3)
	if err != nil {
		t.Fatalf("DetectScenes failed: %v", err)
	}
	t.Logf("found %d scene changes", len(scenes))

	wav := filepath.Join(dir, "speech.wav")
	if err := ex.ExtractSpeechAudio(ctx, src, wav); err != nil {
		t.Fatalf("ExtractSpeechAudio failed: %v", err)
	}
	info, err := ex.ProbeVideo(ctx, wav)
	if err != nil {
		t.Fatalf("probe wav: %v", err)
	}
	if info.SampleRate != 16000 {
		t.Errorf("expected 16 kHz, got %d", info.SampleRate)
	}
}

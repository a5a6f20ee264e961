package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kikiluvv/recut/internal/captions"
	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/config"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	path     string
	duration time.Duration
	durErr   error
	text     string
	textErr  error
	captions []captions.Entry
}

func (f *fakeSource) MediaPath() string { return f.path }

func (f *fakeSource) FetchDuration(context.Context) (time.Duration, error) {
	return f.duration, f.durErr
}

func (f *fakeSource) FetchDescriptionAndComments(context.Context) (string, error) {
	return f.text, f.textErr
}

func (f *fakeSource) FetchExistingCaptions(context.Context, string) ([]captions.Entry, error) {
	return f.captions, nil
}

type fakeTranscoder struct {
	mu      sync.Mutex
	fail    map[time.Duration]bool
	renders []ports.RenderRequest
}

func (f *fakeTranscoder) RenderWindow(_ context.Context, req ports.RenderRequest) error {
	f.mu.Lock()
	f.renders = append(f.renders, req)
	f.mu.Unlock()
	if f.fail[req.Window.Start] {
		return errors.New("encoder crashed")
	}
	return os.WriteFile(req.Output, []byte(req.Window.String()), 0o644)
}

func (f *fakeTranscoder) Concat(_ context.Context, req ports.ConcatRequest) error {
	var b strings.Builder
	for _, in := range req.Inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		b.Write(data)
		b.WriteString(";")
	}
	return os.WriteFile(req.Output, []byte(b.String()), 0o644)
}

type fakeScenes struct {
	cuts []time.Duration
	err  error
}

func (f fakeScenes) DetectScenes(context.Context, string, float64) ([]time.Duration, error) {
	return f.cuts, f.err
}

type fakeMedia struct {
	wav string
}

func (f *fakeMedia) ExtractSpeechAudio(_ context.Context, _ string, out string) error {
	f.wav = out
	return os.WriteFile(out, []byte("RIFF"), 0o644)
}

func (f *fakeMedia) ExtractFrame(_ context.Context, _ string, _ time.Duration, out string) error {
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer file.Close()
	return jpeg.Encode(file, image.NewGray(image.Rect(0, 0, 64, 36)), nil)
}

type fakeTranscriber struct {
	entries []captions.Entry
	err     error
}

func (f fakeTranscriber) Transcribe(context.Context, string, string) ([]captions.Entry, error) {
	return f.entries, f.err
}

func sec(s int) time.Duration { return time.Duration(s) * time.Second }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.WorkDir = filepath.Join(root, "work")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.Concurrency = 2
	cfg.RenderTimeout = 0
	return cfg
}

func newPipeline(t *testing.T, cfg *config.Config, deps Deps) *Pipeline {
	t.Helper()
	if deps.Source == nil {
		deps.Source = &fakeSource{path: "/videos/talk.mp4", duration: sec(130)}
	}
	if deps.Transcoder == nil {
		deps.Transcoder = &fakeTranscoder{}
	}
	deps.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	p, err := New(zerolog.Nop(), cfg, deps)
	require.NoError(t, err)
	return p
}

func TestNew_RequiresSourceAndTranscoder(t *testing.T) {
	_, err := New(zerolog.Nop(), nil, Deps{Transcoder: &fakeTranscoder{}})
	assert.Error(t, err)
	_, err = New(zerolog.Nop(), nil, Deps{Source: &fakeSource{}})
	assert.Error(t, err)
}

func TestPrepare_DurationUnknownAborts(t *testing.T) {
	cfg := testConfig(t)
	p := newPipeline(t, cfg, Deps{Source: &fakeSource{path: "a.mp4", durErr: clips.ErrDurationUnknown}})

	_, err := p.Prepare(context.Background(), Request{Mode: clips.ModeWhole})
	require.Error(t, err)
	assert.True(t, errors.Is(err, clips.ErrDurationUnknown))

	p = newPipeline(t, cfg, Deps{Source: &fakeSource{path: "a.mp4"}})
	_, err = p.Prepare(context.Background(), Request{Mode: clips.ModeWhole})
	assert.True(t, errors.Is(err, clips.ErrDurationUnknown))
}

func TestPrepare_WholeVideoSplitIsPure(t *testing.T) {
	cfg := testConfig(t)
	tc := &fakeTranscoder{}
	p := newPipeline(t, cfg, Deps{Transcoder: tc})

	job, err := p.Prepare(context.Background(), Request{Mode: clips.ModeWhole, Split: sec(60)})
	require.NoError(t, err)

	assert.Equal(t, []clips.Window{
		{Start: 0, End: sec(60)},
		{Start: sec(60), End: sec(120)},
		{Start: sec(120), End: sec(130)},
	}, job.Plan.Windows)
	require.Len(t, job.Profiles, 3)
	for _, prof := range job.Profiles {
		assert.NoError(t, prof.Check(cfg.Effects))
	}
	assert.Regexp(t, `^talk-20240501-120000Z-[0-9a-f]{6}$`, job.ID)

	assert.Empty(t, tc.renders)
	assert.NoDirExists(t, cfg.OutputDir)
	assert.NoDirExists(t, cfg.WorkDir)
}

func TestPrepare_HighlightsFromEvidence(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{path: "talk.mp4", duration: sec(100), text: "the good part starts at 0:50"}
	p := newPipeline(t, cfg, Deps{Source: src, Scenes: fakeScenes{cuts: []time.Duration{sec(48), sec(52)}}})

	job, err := p.Prepare(context.Background(), Request{Mode: clips.ModeHighlights, Span: 30, Count: 1})
	require.NoError(t, err)

	require.Len(t, job.Highlights, 1)
	h := job.Highlights[0].Window
	assert.Equal(t, sec(30), h.Duration())
	assert.True(t, h.Start <= sec(50) && h.End > sec(50), "window %s should contain 0:50", h)
	assert.Equal(t, 1, job.Highlights[0].TimestampHits)
	assert.Equal(t, []clips.Window{h}, job.Plan.Windows)
	assert.Empty(t, job.Warnings)
}

func TestPrepare_HighlightsWithoutEvidence(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{path: "talk.mp4", duration: sec(100), textErr: errors.New("no sidecar")}
	p := newPipeline(t, cfg, Deps{Source: src})

	job, err := p.Prepare(context.Background(), Request{Mode: clips.ModeHighlights, Span: 30, Count: 2})
	require.NoError(t, err)

	// zero signals still select windows, labelled as relative activity
	require.Len(t, job.Highlights, 2)
	assert.Equal(t, "relative activity", job.Highlights[0].Reason)
	require.Len(t, job.Warnings, 2)
	for _, w := range job.Warnings {
		assert.Contains(t, w, clips.ErrSignalUnavailable.Error())
	}
}

func TestPrepare_HighlightsFallbackWhenTooShort(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{path: "short.mp4", duration: sec(20), text: "0:05"}
	p := newPipeline(t, cfg, Deps{Source: src, Scenes: fakeScenes{err: errors.New("ffmpeg missing")}})

	job, err := p.Prepare(context.Background(), Request{Mode: clips.ModeHighlights, Span: 30, Count: 3})
	require.NoError(t, err)

	assert.Equal(t, []clips.Window{{Start: 0, End: sec(20)}}, job.Plan.Windows)
	joined := strings.Join(job.Warnings, "\n")
	assert.Contains(t, joined, clips.ErrNoHighlight.Error())
	assert.Contains(t, joined, "ffmpeg missing")
}

func TestExecute_FailedWindowDroppedFromClip(t *testing.T) {
	cfg := testConfig(t)
	tc := &fakeTranscoder{fail: map[time.Duration]bool{sec(30): true}}
	p := newPipeline(t, cfg, Deps{Transcoder: tc})

	job, err := p.Prepare(context.Background(), Request{
		Mode:   clips.ModeRanges,
		Ranges: []clips.Window{{Start: sec(50), End: sec(55)}, {Start: sec(10), End: sec(15)}, {Start: sec(30), End: sec(35)}},
		Join:   true,
	})
	require.NoError(t, err)

	m, err := p.Execute(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, m.Clips, 1)

	c := m.Clips[0]
	assert.Empty(t, c.Error)
	assert.Equal(t, "clip_001.mp4", c.File)
	assert.Equal(t, 10.0, c.DurationSec)
	require.Len(t, c.Windows, 3)
	assert.Contains(t, c.Windows[1].Error, clips.ErrRenderFailed.Error())

	data, err := os.ReadFile(filepath.Join(m.Dir, c.File))
	require.NoError(t, err)
	assert.Equal(t, "[10.000s,15.000s);[50.000s,55.000s);", string(data))

	assertManifestOnDisk(t, m)
	assert.NoDirExists(t, filepath.Join(cfg.WorkDir, job.ID))
}

func TestExecute_EmptyClipSkippedRunContinues(t *testing.T) {
	cfg := testConfig(t)
	tc := &fakeTranscoder{fail: map[time.Duration]bool{sec(60): true}}
	p := newPipeline(t, cfg, Deps{Transcoder: tc})

	job, err := p.Prepare(context.Background(), Request{
		Mode:   clips.ModeRanges,
		Ranges: []clips.Window{{Start: 0, End: sec(10)}, {Start: sec(60), End: sec(70)}, {Start: sec(100), End: sec(110)}},
	})
	require.NoError(t, err)

	m, err := p.Execute(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, m.Clips, 3)
	assert.Equal(t, 2, m.Produced())

	assert.Contains(t, m.Clips[1].Error, clips.ErrEmptyClip.Error())
	assert.NoFileExists(t, filepath.Join(m.Dir, "clip_002.mp4"))
	assert.FileExists(t, filepath.Join(m.Dir, "clip_001.mp4"))
	assert.FileExists(t, filepath.Join(m.Dir, "clip_003.mp4"))
}

func TestExecute_SourceCaptionsRetimed(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{
		path:     "talk.mp4",
		duration: sec(100),
		captions: []captions.Entry{
			{Start: sec(12), End: sec(14), Text: "hi"},
			{Start: sec(15), End: sec(25), Text: "split"},
			{Start: sec(51), End: sec(53), Text: "yo"},
		},
	}
	p := newPipeline(t, cfg, Deps{Source: src})

	job, err := p.Prepare(context.Background(), Request{
		Mode:     clips.ModeRanges,
		Ranges:   []clips.Window{{Start: sec(10), End: sec(20)}, {Start: sec(50), End: sec(55)}},
		Join:     true,
		Captions: true,
		Language: "en",
	})
	require.NoError(t, err)

	m, err := p.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, CaptionsSource, m.Captions)
	require.Len(t, m.Clips, 1)
	assert.Equal(t, "clip_001.srt", m.Clips[0].Subtitles)
	assert.Equal(t, 2, m.Clips[0].Captions)

	f, err := os.Open(filepath.Join(m.Dir, "clip_001.srt"))
	require.NoError(t, err)
	defer f.Close()
	entries, err := captions.ParseSRT(f)
	require.NoError(t, err)
	assert.Equal(t, []captions.Entry{
		{Start: sec(2), End: sec(4), Text: "hi"},
		{Start: sec(11), End: sec(13), Text: "yo"},
	}, entries)
}

func TestExecute_TranscribedCaptionsAndPoster(t *testing.T) {
	cfg := testConfig(t)
	media := &fakeMedia{}
	p := newPipeline(t, cfg, Deps{
		Media:       media,
		Transcriber: fakeTranscriber{entries: []captions.Entry{{Start: sec(1), End: sec(2), Text: "hello"}}},
	})

	job, err := p.Prepare(context.Background(), Request{
		Mode:     clips.ModeRanges,
		Ranges:   []clips.Window{{Start: 0, End: sec(5)}},
		Captions: true,
	})
	require.NoError(t, err)

	m, err := p.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, CaptionsTranscribed, m.Captions)
	assert.Equal(t, 1, m.Clips[0].Captions)
	assert.Equal(t, "clip_001.jpg", m.Clips[0].Poster)
	assert.FileExists(t, filepath.Join(m.Dir, "clip_001.jpg"))
	assert.NoFileExists(t, media.wav)
}

func TestExecute_NoCaptionsIsAWarning(t *testing.T) {
	cfg := testConfig(t)
	p := newPipeline(t, cfg, Deps{
		Media:       &fakeMedia{},
		Transcriber: fakeTranscriber{err: errors.New("model missing")},
	})

	job, err := p.Prepare(context.Background(), Request{
		Mode:     clips.ModeRanges,
		Ranges:   []clips.Window{{Start: 0, End: sec(5)}},
		Captions: true,
	})
	require.NoError(t, err)

	m, err := p.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, CaptionsNone, m.Captions)
	assert.Equal(t, 1, m.Produced())
	assert.Empty(t, m.Clips[0].Subtitles)
	assert.Contains(t, strings.Join(m.Warnings, "\n"), "model missing")
}

func TestExecute_RequiresPreparedJob(t *testing.T) {
	p := newPipeline(t, testConfig(t), Deps{})
	_, err := p.Execute(context.Background(), &Job{})
	assert.Error(t, err)
}

func TestRunID(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := runID("My Talk (2024)!", "/x/My Talk (2024)!.mp4", now)
	assert.Regexp(t, regexp.MustCompile(`^my-talk-2024-20240102-030405Z-[0-9a-f]{6}$`), id)

	assert.True(t, strings.HasPrefix(runID("???", "a", now), "input-"))
	assert.NotEqual(t, id, runID("My Talk (2024)!", "/x/My Talk (2024)!.mp4", now.Add(time.Nanosecond)))
}

func assertManifestOnDisk(t *testing.T, m *Manifest) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(m.Dir, "manifest.json"))
	require.NoError(t, err)
	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, len(m.Clips), len(got.Clips))
}

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kikiluvv/recut/internal/assemble"
	"github.com/kikiluvv/recut/internal/captions"
	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/render"
	"github.com/kikiluvv/recut/pkg/util"
	"golang.org/x/sync/errgroup"
)

// Execute renders, assembles and records a prepared job. Window and clip
// failures end up in the manifest; only output directory and manifest IO
// errors are returned.
func (p *Pipeline) Execute(ctx context.Context, job *Job) (*Manifest, error) {
	if job == nil || job.Plan == nil {
		return nil, errors.New("execute: job is not prepared")
	}
	start := time.Now()

	outDir := filepath.Join(p.config.OutputDir, job.ID)
	workDir := filepath.Join(p.config.WorkDir, job.ID)
	if err := util.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	log := p.logger.With().Str("run", job.ID).Logger()
	log.Info().Str("output", outDir).Msg("executing run")

	tasks := buildTasks(job, workDir)

	// Captions do not depend on the renders, so both run side by side.
	var (
		results    []render.Result
		entries    []captions.Entry
		source     string
		captionErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		orch := render.New(p.logger, p.deps.Transcoder, render.Options{
			Workers: p.config.Concurrency,
			Timeout: p.config.RenderTimeout,
		})
		results = orch.RenderAll(ctx, render.Job{
			Input:    job.Input,
			Tasks:    tasks,
			Overlays: job.Overlays,
		})
		return nil
	})
	g.Go(func() error {
		entries, source, captionErr = p.resolveCaptions(ctx, job, workDir)
		return nil
	})
	_ = g.Wait()

	m := newManifest(job, outDir, source)
	if captionErr != nil {
		log.Warn().Err(captionErr).Msg("continuing without captions")
		m.Warnings = append(m.Warnings, captionErr.Error())
	}
	asm := assemble.New(p.logger, p.deps.Transcoder, p.deps.Media)

	for _, grp := range job.Plan.Groups {
		clipResults := forClip(results, grp.Index)
		name := fmt.Sprintf("clip_%03d", grp.Index+1)

		mc := ManifestClip{Index: grp.Index + 1, Label: grp.Label}
		for _, r := range clipResults {
			mc.Windows = append(mc.Windows, manifestWindow(r))
		}

		clip := assemble.Clip{
			Index:  grp.Index,
			Output: filepath.Join(outDir, name+".mp4"),
			Poster: filepath.Join(outDir, name+".jpg"),
		}
		if len(entries) > 0 {
			clip.Subtitles = filepath.Join(outDir, name+".srt")
			clip.Captions = entries
		}

		art, err := asm.Assemble(ctx, clip, clipResults)
		if err != nil {
			log.Warn().Err(err).Int("clip", mc.Index).Msg("clip skipped")
			mc.Error = err.Error()
			m.Clips = append(m.Clips, mc)
			continue
		}

		mc.File = filepath.Base(art.Path)
		if art.Subtitles != "" {
			mc.Subtitles = filepath.Base(art.Subtitles)
		}
		if art.Poster != "" {
			mc.Poster = filepath.Base(art.Poster)
		}
		mc.Captions = art.Captions
		mc.DurationSec = art.Duration.Seconds()
		mc.Metadata = art.Metadata
		m.Clips = append(m.Clips, mc)
	}

	// these only succeed once empty; parts of a failed concat stay behind
	for _, t := range tasks {
		_ = os.Remove(filepath.Dir(t.Output))
	}
	_ = os.Remove(workDir)

	if err := writeManifest(m); err != nil {
		return m, err
	}

	log.Info().
		Int("clips", m.Produced()).
		Int("skipped", len(m.Clips)-m.Produced()).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")
	return m, nil
}

// buildTasks lays out one render task per window. Every task writes to its
// own path under the clip's work directory.
func buildTasks(job *Job, workDir string) []render.Task {
	var tasks []render.Task
	for _, grp := range job.Plan.Groups {
		clipDir := filepath.Join(workDir, fmt.Sprintf("clip_%03d", grp.Index+1))
		for part, wi := range grp.Windows {
			tasks = append(tasks, render.Task{
				Clip:        grp.Index,
				Part:        part,
				WindowIndex: wi,
				Window:      job.Plan.Windows[wi],
				Profile:     job.Profiles[wi],
				Output:      filepath.Join(clipDir, fmt.Sprintf("part_%03d.mp4", part+1)),
			})
		}
	}
	return tasks
}

// resolveCaptions prefers a caption track shipped with the source and
// falls back to transcription. A non-nil error explains why the run goes
// without captions; it is never fatal.
func (p *Pipeline) resolveCaptions(ctx context.Context, job *Job, workDir string) ([]captions.Entry, string, error) {
	if !job.Request.Captions {
		return nil, CaptionsNone, nil
	}
	lang := job.Request.Language

	entries, err := p.deps.Source.FetchExistingCaptions(ctx, lang)
	if err != nil {
		p.logger.Warn().Err(err).Msg("source captions unreadable")
	}
	if len(entries) > 0 {
		p.logger.Info().Int("entries", len(entries)).Msg("using source captions")
		return entries, CaptionsSource, nil
	}

	if p.deps.Transcriber == nil || p.deps.Media == nil {
		return nil, CaptionsNone, fmt.Errorf("%w: no source track and no transcriber", clips.ErrCaptionUnavailable)
	}

	if err := util.EnsureDir(workDir); err != nil {
		return nil, CaptionsNone, fmt.Errorf("%w: %w", clips.ErrCaptionUnavailable, err)
	}
	wav := filepath.Join(workDir, "speech.wav")
	defer util.CleanupFiles(wav)

	if err := p.deps.Media.ExtractSpeechAudio(ctx, job.Input, wav); err != nil {
		return nil, CaptionsNone, fmt.Errorf("%w: extract speech: %w", clips.ErrCaptionUnavailable, err)
	}
	entries, err = p.deps.Transcriber.Transcribe(ctx, wav, lang)
	if err != nil {
		return nil, CaptionsNone, fmt.Errorf("%w: transcribe: %w", clips.ErrCaptionUnavailable, err)
	}
	if len(entries) == 0 {
		return nil, CaptionsNone, fmt.Errorf("%w: no speech found", clips.ErrCaptionUnavailable)
	}
	return entries, CaptionsTranscribed, nil
}

func forClip(results []render.Result, clip int) []render.Result {
	var out []render.Result
	for _, r := range results {
		if r.Task.Clip == clip {
			out = append(out, r)
		}
	}
	return out
}

func manifestWindow(r render.Result) ManifestWindow {
	w := ManifestWindow{
		StartSec:  r.Task.Window.Start.Seconds(),
		EndSec:    r.Task.Window.End.Seconds(),
		Profile:   r.Task.Profile,
		ElapsedMS: r.Elapsed.Milliseconds(),
	}
	if r.Err != nil {
		w.Error = r.Err.Error()
	}
	return w
}

func newManifest(job *Job, dir, captionSource string) *Manifest {
	m := &Manifest{
		ID:          job.ID,
		Input:       job.Input,
		Mode:        job.Plan.Mode,
		DurationSec: job.Duration.Seconds(),
		CreatedAt:   job.CreatedAt,
		Captions:    captionSource,
		Dir:         dir,
	}
	for _, h := range job.Highlights {
		m.Highlights = append(m.Highlights, ManifestHighlight{
			StartSec: h.Window.Start.Seconds(),
			EndSec:   h.Window.End.Seconds(),
			Score:    h.Score,
			Reason:   h.Reason,
		})
	}
	m.Warnings = append(m.Warnings, job.Plan.Warnings...)
	m.Warnings = append(m.Warnings, job.Warnings...)
	return m
}

func writeManifest(m *Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.Dir, "manifest.json"), b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

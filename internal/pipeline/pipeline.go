package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/config"
	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/highlights"
	"github.com/kikiluvv/recut/internal/overlays"
	"github.com/kikiluvv/recut/internal/plan"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/internal/signals"
	"github.com/rs/zerolog"
)

// Deps are the external collaborators of a run. Source and Transcoder are
// required; the rest may be nil, which disables the feature they serve.
type Deps struct {
	Source      ports.SourceAcquirer
	Transcoder  ports.Transcoder
	Scenes      ports.SceneDetector
	Media       ports.MediaTool
	Transcriber ports.Transcriber

	// Rand feeds effect generation and clip metadata; nil uses the
	// runtime-seeded generator.
	Rand effects.Source
	Now  func() time.Time
}

// Pipeline orchestrates the entire clip workflow
type Pipeline struct {
	logger zerolog.Logger
	config *config.Config
	deps   Deps
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *config.Config, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	if deps.Transcoder == nil {
		return nil, errors.New("pipeline: transcoder is required")
	}
	if deps.Rand == nil {
		deps.Rand = effects.DefaultSource()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		config: cfg,
		deps:   deps,
	}, nil
}

// Prepare plans a run: it learns the duration, gathers evidence when
// highlights are requested, builds the segment plan, draws one effect
// profile per window and resolves overlay assets. Nothing is written.
// An unknown duration aborts before any planning.
func (p *Pipeline) Prepare(ctx context.Context, req Request) (*Job, error) {
	input := p.deps.Source.MediaPath()
	p.logger.Info().
		Str("input", input).
		Str("mode", string(req.Mode)).
		Msg("preparing run")

	duration, err := p.deps.Source.FetchDuration(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch duration: %w", err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("fetch duration: %w", clips.ErrDurationUnknown)
	}

	now := p.deps.Now().UTC()
	job := &Job{
		ID:        runID(nameFor(req, input), input, now),
		Input:     input,
		Duration:  duration,
		Request:   req,
		CreatedAt: now,
	}

	planReq := plan.Request{
		Mode:        req.Mode,
		Duration:    duration,
		Ranges:      req.Ranges,
		Template:    req.Template,
		SplitLength: req.Split,
		Join:        req.Join,
	}

	if req.Mode == clips.ModeHighlights {
		job.Highlights = p.selectHighlights(ctx, job, req)
		for _, h := range job.Highlights {
			planReq.Highlights = append(planReq.Highlights, h.Window)
		}
	}

	pl, err := plan.Build(planReq)
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}
	for _, w := range pl.Warnings {
		p.logger.Warn().Str("plan", w).Msg("plan warning")
	}
	job.Plan = pl

	job.Profiles = effects.GenerateN(p.deps.Rand, p.config.Effects, len(pl.Windows))
	job.Overlays = p.resolveOverlays()

	p.logger.Info().
		Str("run", job.ID).
		Dur("duration", duration).
		Int("windows", len(pl.Windows)).
		Int("clips", len(pl.Groups)).
		Dur("planned", pl.TotalDuration()).
		Msg("run planned")
	return job, nil
}

// selectHighlights scores the evidence and falls back to the opening of
// the video when nothing scores.
func (p *Pipeline) selectHighlights(ctx context.Context, job *Job, req Request) []highlights.Highlight {
	span := req.Span
	if span <= 0 {
		span = p.config.Highlights.Span
	}
	count := req.Count
	if count <= 0 {
		count = p.config.Highlights.Count
	}

	sig := p.gatherEvidence(ctx, job)
	picked := highlights.Select(sig, span, count, p.config.Highlights.Weights)
	if len(picked) > 0 {
		return picked
	}

	fb := highlights.Fallback(job.Duration, span)
	job.warn(p.logger, fmt.Errorf("%w: using %s", clips.ErrNoHighlight, fb))
	return []highlights.Highlight{{Window: fb, Reason: "fallback"}}
}

// gatherEvidence never fails: every missing source degrades to a zero
// signal and a warning.
func (p *Pipeline) gatherEvidence(ctx context.Context, job *Job) signals.Signals {
	corpus, err := p.deps.Source.FetchDescriptionAndComments(ctx)
	switch {
	case err != nil:
		job.warn(p.logger, fmt.Errorf("description: %w: %w", clips.ErrSignalUnavailable, err))
	case strings.TrimSpace(corpus) == "":
		job.warn(p.logger, fmt.Errorf("description: %w: no text", clips.ErrSignalUnavailable))
	}

	var cuts []time.Duration
	if p.deps.Scenes == nil {
		job.warn(p.logger, fmt.Errorf("scene cuts: %w: no detector", clips.ErrSignalUnavailable))
	} else {
		cuts, err = p.deps.Scenes.DetectScenes(ctx, job.Input, p.config.Scene.Threshold)
		if err != nil {
			job.warn(p.logger, fmt.Errorf("scene cuts: %w: %w", clips.ErrSignalUnavailable, err))
			cuts = nil
		}
	}

	sig, err := signals.Extract(job.Duration, corpus, cuts, p.config.Highlights.Signals)
	if err != nil {
		// only a bad duration or radius gets here; score nothing
		job.warn(p.logger, fmt.Errorf("signals: %w: %w", clips.ErrSignalUnavailable, err))
		return signals.Signals{Duration: job.Duration}
	}

	p.logger.Info().
		Int("timestamps", len(sig.TimestampMarks)).
		Int("cuts", len(sig.CutMarks)).
		Msg("evidence gathered")
	return sig
}

func (p *Pipeline) resolveOverlays() overlays.Assets {
	reg := overlays.NewRegistry()
	for name, path := range p.config.Overlays.Overlays {
		reg.Register(name, path)
	}
	reg.Register(overlays.Logo, p.config.Overlays.Logo)
	return reg.Resolve(p.logger)
}

func (j *Job) warn(logger zerolog.Logger, err error) {
	logger.Warn().Err(err).Msg("degraded")
	j.Warnings = append(j.Warnings, err.Error())
}

func nameFor(req Request, input string) string {
	if req.Name != "" {
		return req.Name
	}
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
}

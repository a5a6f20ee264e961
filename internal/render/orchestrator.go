// Package render drives one transcoder call per planned window through a
// bounded worker pool and records an outcome for every window.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/overlays"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/pkg/util"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Task is one window to render. Output must be unique across a job.
type Task struct {
	Clip        int             `json:"clip"`
	Part        int             `json:"part"`
	WindowIndex int             `json:"window_index"`
	Window      clips.Window    `json:"window"`
	Profile     effects.Profile `json:"profile"`
	Output      string          `json:"output"`
}

// Result is the outcome of one Task. Err is nil on success and wraps
// clips.ErrRenderFailed otherwise.
type Result struct {
	Task    Task
	Err     error
	Elapsed time.Duration
}

// OK reports whether the window rendered.
func (r Result) OK() bool {
	return r.Err == nil
}

// Job is every window of a run against one source.
type Job struct {
	Input    string
	Tasks    []Task
	Overlays overlays.Assets
}

// Options tunes the worker pool.
type Options struct {
	Workers int
	// Timeout bounds a single window; zero means no limit.
	Timeout time.Duration
}

// Orchestrator renders windows concurrently. It never aborts a job because
// one window failed.
type Orchestrator struct {
	logger     zerolog.Logger
	transcoder ports.Transcoder
	opts       Options
}

// New creates an orchestrator.
func New(logger zerolog.Logger, tc ports.Transcoder, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{
		logger:     logger.With().Str("component", "render").Logger(),
		transcoder: tc,
		opts:       opts,
	}
}

// RenderAll renders every task and returns results in task order.
func (o *Orchestrator) RenderAll(ctx context.Context, job Job) []Result {
	results := make([]Result, len(job.Tasks))

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)

	for i, task := range job.Tasks {
		g.Go(func() error {
			results[i] = o.renderOne(ctx, job, task)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	o.logger.Info().
		Int("windows", len(results)).
		Int("failed", failed).
		Msg("render pass complete")

	return results
}

func (o *Orchestrator) renderOne(ctx context.Context, job Job, task Task) Result {
	start := time.Now()
	log := o.logger.With().
		Int("clip", task.Clip).
		Int("part", task.Part).
		Str("window", task.Window.String()).
		Logger()

	fail := func(err error) Result {
		util.CleanupFiles(task.Output)
		log.Warn().Err(err).Msg("window failed, continuing")
		return Result{
			Task:    task,
			Err:     fmt.Errorf("%w: %s: %w", clips.ErrRenderFailed, task.Window, err),
			Elapsed: time.Since(start),
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := util.EnsureDir(filepath.Dir(task.Output)); err != nil {
		return fail(err)
	}

	rctx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	err := o.transcoder.RenderWindow(rctx, ports.RenderRequest{
		Input:    job.Input,
		Output:   task.Output,
		Window:   task.Window,
		Profile:  task.Profile,
		Overlays: job.Overlays,
		Metadata: WindowMetadata(),
	})
	if err != nil {
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", o.opts.Timeout, err)
		}
		return fail(err)
	}
	if info, statErr := os.Stat(task.Output); statErr != nil || info.Size() == 0 {
		return fail(fmt.Errorf("transcoder produced no output"))
	}

	log.Debug().Dur("elapsed", time.Since(start)).Msg("window rendered")
	return Result{Task: task, Elapsed: time.Since(start)}
}

// WindowMetadata tags a single rendered window with a fresh identifier.
func WindowMetadata() map[string]string {
	return map[string]string{
		"comment": uuid.NewString(),
	}
}

// Successful returns the rendered outputs of one clip in part order.
func Successful(results []Result, clip int) []Result {
	var out []Result
	for _, r := range results {
		if r.Task.Clip == clip && r.OK() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Task.Part < out[j].Task.Part })
	return out
}

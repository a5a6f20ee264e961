// Package assemble stitches a clip's rendered windows into its final
// artifact with fresh metadata, re-timed captions and a poster frame.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kikiluvv/recut/internal/captions"
	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/internal/render"
	"github.com/kikiluvv/recut/pkg/util"
	"github.com/rs/zerolog"
)

// Clip is what the assembler needs to know about one clip group.
type Clip struct {
	Index  int
	Output string
	// Subtitles and Poster are optional sidecar paths.
	Subtitles string
	Poster    string
	// Captions are source-timeline entries; nil means none are available.
	Captions []captions.Entry
}

// Artifact describes an assembled clip.
type Artifact struct {
	Clip      int               `json:"clip"`
	Path      string            `json:"path"`
	Subtitles string            `json:"subtitles,omitempty"`
	Poster    string            `json:"poster,omitempty"`
	Windows   []clips.Window    `json:"windows"`
	Captions  int               `json:"captions"`
	Duration  time.Duration     `json:"duration"`
	Metadata  map[string]string `json:"metadata"`
}

// Assembler concatenates rendered windows.
type Assembler struct {
	logger     zerolog.Logger
	transcoder ports.Transcoder
	media      ports.MediaTool // optional, for posters
	rng        effects.Source
	now        func() time.Time
}

// New creates an assembler. media may be nil to skip posters.
func New(logger zerolog.Logger, tc ports.Transcoder, media ports.MediaTool) *Assembler {
	return &Assembler{
		logger:     logger.With().Str("component", "assemble").Logger(),
		transcoder: tc,
		media:      media,
		rng:        effects.DefaultSource(),
		now:        time.Now,
	}
}

// Assemble joins the successful results of clip in part order. It returns
// clips.ErrEmptyClip, producing nothing, when no window rendered. Temporary
// window files are removed only after the concat succeeds.
func (a *Assembler) Assemble(ctx context.Context, clip Clip, results []render.Result) (*Artifact, error) {
	parts := successful(results)
	if len(parts) == 0 {
		return nil, fmt.Errorf("clip %d: %w", clip.Index, clips.ErrEmptyClip)
	}

	log := a.logger.With().Int("clip", clip.Index).Logger()
	if dropped := len(results) - len(parts); dropped > 0 {
		log.Warn().Int("dropped", dropped).Int("kept", len(parts)).Msg("assembling without failed windows")
	}

	art := &Artifact{
		Clip:     clip.Index,
		Path:     clip.Output,
		Metadata: Metadata(a.rng, a.now()),
	}
	inputs := make([]string, 0, len(parts))
	for _, r := range parts {
		inputs = append(inputs, r.Task.Output)
		art.Windows = append(art.Windows, r.Task.Window)
		art.Duration += r.Task.Window.Duration()
	}

	if err := util.EnsureDir(filepath.Dir(clip.Output)); err != nil {
		return nil, fmt.Errorf("clip %d: %w", clip.Index, err)
	}

	subs, n, err := a.writeCaptions(clip, art.Windows)
	if err != nil {
		// captions are optional
		log.Warn().Err(err).Msg("writing captions failed, continuing without")
		subs, n = "", 0
	}
	art.Subtitles, art.Captions = subs, n

	err = a.transcoder.Concat(ctx, ports.ConcatRequest{
		Inputs:    inputs,
		Output:    clip.Output,
		Metadata:  art.Metadata,
		Subtitles: subs,
	})
	if err != nil {
		util.CleanupFiles(clip.Output)
		return nil, fmt.Errorf("clip %d: concat: %w", clip.Index, err)
	}

	util.CleanupFiles(inputs...)
	for _, dir := range parentDirs(inputs) {
		_ = os.Remove(dir) // only succeeds once empty
	}

	if clip.Poster != "" && a.media != nil {
		if err := a.poster(ctx, clip, art.Duration); err != nil {
			log.Warn().Err(err).Msg("poster failed")
		} else {
			art.Poster = clip.Poster
		}
	}

	log.Info().
		Str("output", clip.Output).
		Int("windows", len(parts)).
		Int("captions", art.Captions).
		Dur("duration", art.Duration).
		Msg("clip assembled")
	return art, nil
}

// writeCaptions re-times the clip's captions onto the windows that made it
// into the clip and writes them as SRT. It returns "" when there is nothing
// to write.
func (a *Assembler) writeCaptions(clip Clip, windows []clips.Window) (string, int, error) {
	if clip.Subtitles == "" || len(clip.Captions) == 0 {
		return "", 0, nil
	}
	retimed := captions.Retime(clip.Captions, windows)
	if len(retimed) == 0 {
		a.logger.Debug().Int("clip", clip.Index).Msg("no captions fall inside clip windows")
		return "", 0, nil
	}

	f, err := os.Create(clip.Subtitles)
	if err != nil {
		return "", 0, err
	}
	if err := captions.WriteSRT(f, retimed); err != nil {
		f.Close()
		util.CleanupFiles(clip.Subtitles)
		return "", 0, err
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}
	return clip.Subtitles, len(retimed), nil
}

// poster grabs a few candidate frames from the finished clip and keeps the
// one with the highest Appeal. Earlier candidates win ties.
func (a *Assembler) poster(ctx context.Context, clip Clip, duration time.Duration) error {
	base := util.TrimExt(clip.Poster)
	var (
		frames  []string
		best    string
		bestVal = -1.0
		lastErr error
	)
	defer func() { util.CleanupFiles(frames...) }()

	for i, frac := range posterCandidates {
		raw := fmt.Sprintf("%s.full%d.jpg", base, i)
		at := time.Duration(float64(duration) * frac)
		frames = append(frames, raw)
		if err := a.media.ExtractFrame(ctx, clip.Output, at, raw); err != nil {
			lastErr = err
			continue
		}

		v, err := appealOf(raw)
		if err != nil {
			lastErr = err
			continue
		}
		a.logger.Debug().Int("clip", clip.Index).Dur("at", at).Float64("appeal", v).Msg("poster candidate")
		if v > bestVal {
			best, bestVal = raw, v
		}
	}
	if best == "" {
		if lastErr == nil {
			lastErr = errors.New("no poster candidates")
		}
		return lastErr
	}
	return Downscale(best, clip.Poster, PosterWidth)
}

func successful(results []render.Result) []render.Result {
	var out []render.Result
	for _, r := range results {
		if r.OK() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Task.Part < out[j].Task.Part })
	return out
}

func parentDirs(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

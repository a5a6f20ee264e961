// Package source acquires a local media file and the text evidence that
// travels with it.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kikiluvv/recut/internal/captions"
	"github.com/kikiluvv/recut/internal/clips"
	"github.com/kikiluvv/recut/internal/ffmpeg"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/pkg/util"
	"github.com/rs/zerolog"
)

var _ ports.SourceAcquirer = (*Local)(nil)

// Media is the subset of the ffmpeg executor the acquirer uses.
type Media interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	ExtractSubtitle(ctx context.Context, input string, streamIndex int, output string) error
}

// textTags are container tags that often carry a description.
var textTags = []string{"title", "description", "synopsis", "comment"}

// Local serves a file already on disk. Sidecars follow the yt-dlp naming
// convention: <base>.description, <base>.info.json, <base>.<lang>.srt.
type Local struct {
	logger  zerolog.Logger
	path    string
	media   Media
	workDir string

	mu    sync.Mutex
	probe *ffmpeg.VideoInfo
	text  *string
}

// NewLocal creates an acquirer for path. workDir receives extracted
// embedded subtitle tracks.
func NewLocal(logger zerolog.Logger, path string, media Media, workDir string) (*Local, error) {
	if !util.FileExists(path) {
		return nil, fmt.Errorf("source %s: %w", path, os.ErrNotExist)
	}
	return &Local{
		logger:  logger.With().Str("component", "source").Logger(),
		path:    path,
		media:   media,
		workDir: workDir,
	}, nil
}

func (l *Local) MediaPath() string { return l.path }

// FetchDuration probes the file once and caches the result.
func (l *Local) FetchDuration(ctx context.Context) (time.Duration, error) {
	info, err := l.info(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", clips.ErrDurationUnknown, err)
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("%s: %w", l.path, clips.ErrDurationUnknown)
	}
	return info.Duration, nil
}

func (l *Local) info(ctx context.Context) (*ffmpeg.VideoInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.probe != nil {
		return l.probe, nil
	}
	info, err := l.media.ProbeVideo(ctx, l.path)
	if err != nil {
		return nil, err
	}
	l.probe = info
	return info, nil
}

// FetchDescriptionAndComments concatenates the description sidecar, the
// info.json description and comments, and any text container tags.
// Missing sources are skipped; an empty string is not an error.
func (l *Local) FetchDescriptionAndComments(ctx context.Context) (string, error) {
	l.mu.Lock()
	cached := l.text
	l.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	base := util.TrimExt(l.path)
	var parts []string

	if data, err := os.ReadFile(base + ".description"); err == nil {
		parts = append(parts, strings.TrimSpace(string(data)))
	}

	if data, err := os.ReadFile(base + ".info.json"); err == nil {
		text, err := parseInfoJSON(data)
		if err != nil {
			l.logger.Warn().Err(err).Msg("ignoring unreadable info.json")
		} else {
			parts = append(parts, text...)
		}
	}

	if info, err := l.info(ctx); err == nil {
		for _, k := range textTags {
			if v := strings.TrimSpace(info.Tags[k]); v != "" {
				parts = append(parts, v)
			}
		}
	} else {
		l.logger.Debug().Err(err).Msg("no container tags")
	}

	text := strings.Join(nonEmpty(parts), "\n")
	l.mu.Lock()
	l.text = &text
	l.mu.Unlock()

	l.logger.Debug().Int("chars", len(text)).Msg("text evidence loaded")
	return text, nil
}

type infoJSON struct {
	Description string `json:"description"`
	Comments    []struct {
		Text string `json:"text"`
	} `json:"comments"`
}

func parseInfoJSON(data []byte) ([]string, error) {
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse info.json: %w", err)
	}
	out := []string{info.Description}
	for _, c := range info.Comments {
		out = append(out, c.Text)
	}
	return out, nil
}

// FetchExistingCaptions looks for a sidecar in lang, then an untagged
// sidecar, then an embedded track in lang. It returns nil, nil when there
// is none.
func (l *Local) FetchExistingCaptions(ctx context.Context, lang string) ([]captions.Entry, error) {
	base := util.TrimExt(l.path)
	var candidates []string
	if lang != "" {
		candidates = append(candidates, base+"."+lang+".srt", base+"."+lang+".vtt")
	}
	candidates = append(candidates, base+".srt", base+".vtt")

	for _, p := range candidates {
		if !util.FileExists(p) {
			continue
		}
		entries, err := readCaptions(p)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", p).Msg("skipping unreadable caption sidecar")
			continue
		}
		if len(entries) > 0 {
			l.logger.Info().Str("path", p).Int("entries", len(entries)).Msg("using caption sidecar")
			return entries, nil
		}
	}

	return l.embedded(ctx, lang)
}

func (l *Local) embedded(ctx context.Context, lang string) ([]captions.Entry, error) {
	info, err := l.info(ctx)
	if err != nil {
		return nil, nil
	}
	stream, ok := pickSubtitle(info.Subtitles, lang)
	if !ok {
		return nil, nil
	}

	if err := util.EnsureDir(l.workDir); err != nil {
		return nil, err
	}
	out := filepath.Join(l.workDir, fmt.Sprintf("%s.embedded.%d.srt", filepath.Base(util.TrimExt(l.path)), stream.Index))
	defer util.CleanupFiles(out)

	if err := l.media.ExtractSubtitle(ctx, l.path, stream.Index, out); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// bitmap codecs such as PGS cannot be converted to text
		l.logger.Warn().Err(err).Int("stream", stream.Index).Str("codec", stream.Codec).Msg("embedded captions unusable")
		return nil, nil
	}
	entries, err := readCaptions(out)
	if err != nil {
		return nil, err
	}
	l.logger.Info().Int("stream", stream.Index).Int("entries", len(entries)).Msg("using embedded captions")
	return entries, nil
}

// pickSubtitle prefers a text track tagged with lang. An untagged track is
// accepted only when it is the sole track.
func pickSubtitle(streams []ffmpeg.SubtitleStream, lang string) (ffmpeg.SubtitleStream, bool) {
	for _, s := range streams {
		if langMatches(s.Language, lang) {
			return s, true
		}
	}
	if len(streams) == 1 && (streams[0].Language == "" || streams[0].Language == "und") {
		return streams[0], true
	}
	return ffmpeg.SubtitleStream{}, false
}

// langMatches accepts "en" for an ffprobe "eng" tag.
func langMatches(tag, lang string) bool {
	if tag == "" || lang == "" {
		return false
	}
	if strings.EqualFold(tag, lang) {
		return true
	}
	return len(lang) == 2 && len(tag) == 3 && strings.HasPrefix(strings.ToLower(tag), strings.ToLower(lang))
}

func readCaptions(path string) ([]captions.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return captions.Parse(path, f)
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

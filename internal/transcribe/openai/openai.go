// Package openai transcribes speech through an OpenAI-compatible
// transcription endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kikiluvv/recut/internal/captions"
	"github.com/kikiluvv/recut/internal/ports"
	"github.com/kikiluvv/recut/pkg/util"
	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"
)

var _ ports.Transcriber = (*Adapter)(nil)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = goopenai.Whisper1

type Options struct {
	APIKey string
	// BaseURL overrides the API root, e.g. for a self-hosted server.
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Adapter struct {
	logger  zerolog.Logger
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

func New(logger zerolog.Logger, opts Options) (*Adapter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Adapter{
		logger:  logger.With().Str("component", "transcribe").Str("backend", "openai").Logger(),
		client:  goopenai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}, nil
}

// Transcribe requests verbose JSON so segment timings come back with the
// text. A response without segments is treated as having no speech.
func (a *Adapter) Transcribe(ctx context.Context, audioPath, lang string) ([]captions.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    a.model,
		FilePath: audioPath,
		Language: lang,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	var entries []captions.Entry
	for _, s := range resp.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		entries = append(entries, captions.Entry{
			Start: util.Seconds(s.Start),
			End:   util.Seconds(s.End),
			Text:  text,
		})
	}
	if len(entries) == 0 && strings.TrimSpace(resp.Text) != "" {
		a.logger.Warn().Msg("transcription returned text without segment timings")
	}

	a.logger.Info().
		Str("model", a.model).
		Int("segments", len(entries)).
		Dur("elapsed", time.Since(start)).
		Msg("transcribed")
	return entries, nil
}

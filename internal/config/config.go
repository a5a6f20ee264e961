package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kikiluvv/recut/internal/effects"
	"github.com/kikiluvv/recut/internal/highlights"
	"github.com/kikiluvv/recut/internal/signals"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Caption backends.
const (
	BackendWhisperCpp = "whispercpp"
	BackendOpenAI     = "openai"
	BackendNone       = "none"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir       string        `yaml:"work_dir"`
	OutputDir     string        `yaml:"output_dir"`
	Concurrency   int           `yaml:"concurrency"`
	RenderTimeout time.Duration `yaml:"render_timeout"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	Scene      SceneConfig     `yaml:"scene"`
	Highlights HighlightConfig `yaml:"highlights"`
	Split      SplitConfig     `yaml:"split"`
	Captions   CaptionConfig   `yaml:"captions"`

	// Overlay settings
	Overlays OverlayConfig `yaml:"overlays"`

	// Effects bounds every randomized render parameter.
	Effects effects.Ranges `yaml:"effects"`
}

type FFmpegConfig struct {
	BinaryPath   string `yaml:"binary_path"`
	ProbePath    string `yaml:"probe_path"`
	Threads      int    `yaml:"threads"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type SceneConfig struct {
	// Threshold is the ffmpeg scene score above which a frame counts as a cut.
	Threshold float64 `yaml:"threshold"`
}

type HighlightConfig struct {
	Span    int                `yaml:"span"` // seconds
	Count   int                `yaml:"count"`
	Weights highlights.Weights `yaml:"weights"`
	Signals signals.Options    `yaml:"signals"`
}

type SplitConfig struct {
	Length time.Duration `yaml:"length"`
}

type CaptionConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Language     string `yaml:"language"`
	Backend      string `yaml:"backend"`
	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`
	OpenAIModel  string `yaml:"openai_model"`
	OpenAIBase   string `yaml:"openai_base_url"`
	// OpenAIKey comes from the environment only.
	OpenAIKey string `yaml:"-"`
}

type OverlayConfig struct {
	Logo     string            `yaml:"logo"`
	Overlays map[string]string `yaml:"overlays"`
}

// Load reads configuration from file or returns defaults. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration. Each call returns a new
// value.
func Default() *Config {
	return &Config{
		WorkDir:       "./work",
		OutputDir:     "./out",
		Concurrency:   4,
		RenderTimeout: 10 * time.Minute,
		FFmpeg: FFmpegConfig{
			BinaryPath:   "ffmpeg",
			ProbePath:    "ffprobe",
			Threads:      0,
			AudioCodec:   "aac",
			AudioBitrate: "160k",
		},
		Scene: SceneConfig{Threshold: 0.3},
		Highlights: HighlightConfig{
			Span:    30,
			Count:   3,
			Weights: highlights.DefaultWeights(),
			Signals: signals.DefaultOptions(),
		},
		Split: SplitConfig{Length: 0},
		Captions: CaptionConfig{
			Enabled:      true,
			Language:     "en",
			Backend:      BackendNone,
			WhisperBin:   "whisper-cli",
			WhisperModel: "./models/ggml-base.en.bin",
			OpenAIModel:  "whisper-1",
		},
		Overlays: OverlayConfig{
			Overlays: make(map[string]string),
		},
		Effects: effects.DefaultRanges(),
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RECUT_WORK_DIR"); v != "" {
		c.WorkDir = v
	}
	if v := os.Getenv("RECUT_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("RECUT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RECUT_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Captions.OpenAIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Captions.OpenAIBase = v
	}
	return nil
}

// Validate reports every setting that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.RenderTimeout < 0 {
		errs = append(errs, fmt.Errorf("render_timeout must not be negative"))
	}
	if c.Highlights.Span < 1 {
		errs = append(errs, fmt.Errorf("highlights.span must be positive, got %d", c.Highlights.Span))
	}
	if c.Highlights.Count < 1 {
		errs = append(errs, fmt.Errorf("highlights.count must be positive, got %d", c.Highlights.Count))
	}
	if c.Split.Length < 0 {
		errs = append(errs, fmt.Errorf("split.length must not be negative"))
	}
	if c.Scene.Threshold <= 0 || c.Scene.Threshold >= 1 {
		errs = append(errs, fmt.Errorf("scene.threshold must be in (0, 1), got %g", c.Scene.Threshold))
	}
	switch c.Captions.Backend {
	case BackendNone, BackendWhisperCpp:
	case BackendOpenAI:
		if c.Captions.Enabled && c.Captions.OpenAIKey == "" {
			errs = append(errs, errors.New("captions.backend openai needs OPENAI_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown captions.backend %q", c.Captions.Backend))
	}
	if err := c.Effects.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("effects: %w", err))
	}
	return errors.Join(errs...)
}

func findConfigFile() string {
	candidates := []string{
		"./recut.yaml",
		"./recut.yml",
		filepath.Join(os.Getenv("HOME"), ".recut", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}

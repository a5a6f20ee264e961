package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kikiluvv/recut/internal/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, effects.DefaultRanges(), cfg.Effects)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recut.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
concurrency: 2
render_timeout: 90s
split:
  length: 45s
highlights:
  span: 20
effects:
  saturation: {min: 1.0, max: 1.02}
  presets: [veryfast]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.RenderTimeout)
	assert.Equal(t, 45*time.Second, cfg.Split.Length)
	assert.Equal(t, 20, cfg.Highlights.Span)
	assert.Equal(t, 3, cfg.Highlights.Count, "unset keys keep defaults")
	assert.Equal(t, effects.FloatRange{Min: 1.0, Max: 1.02}, cfg.Effects.Saturation)
	assert.Equal(t, []string{"veryfast"}, cfg.Effects.Presets)
	assert.Equal(t, effects.DefaultRanges().Contrast, cfg.Effects.Contrast)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recut.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concurrency: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RECUT_WORK_DIR", "/tmp/recut-work")
	t.Setenv("RECUT_CONCURRENCY", "7")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/recut-work", cfg.WorkDir)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, "sk-test", cfg.Captions.OpenAIKey)

	t.Setenv("RECUT_CONCURRENCY", "many")
	_, err = Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recut.yaml")
	cfg := Default()
	cfg.Captions.OpenAIKey = "never written"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never written")

	loaded, err := Load(path)
	require.NoError(t, err)
	loaded.Captions.OpenAIKey = cfg.Captions.OpenAIKey
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, false},
		{"zero span", func(c *Config) { c.Highlights.Span = 0 }, false},
		{"bad threshold", func(c *Config) { c.Scene.Threshold = 1.5 }, false},
		{"unknown backend", func(c *Config) { c.Captions.Backend = "magic" }, false},
		{"openai without key", func(c *Config) { c.Captions.Backend = BackendOpenAI }, false},
		{"openai with key", func(c *Config) {
			c.Captions.Backend = BackendOpenAI
			c.Captions.OpenAIKey = "k"
		}, true},
		{"inverted effect range", func(c *Config) { c.Effects.Zoom = effects.FloatRange{Min: 1.1, Max: 1.0} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 9
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, 4, FromContext(context.Background()).Concurrency)
}

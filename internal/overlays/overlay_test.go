package overlays

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(logo, []byte("png"), 0o644))

	r := NewRegistry()
	r.Register(Logo, logo)
	r.Register("sticker", filepath.Join(dir, "missing.png"))
	r.Register("empty", "")

	assert.Equal(t, []string{Logo, "sticker"}, r.List())

	a := r.Resolve(zerolog.Nop())
	assert.True(t, a.HasLogo())
	assert.Equal(t, logo, a.Logo)
}

func TestRegistry_ResolveMissingLogo(t *testing.T) {
	r := NewRegistry()
	r.Register(Logo, filepath.Join(t.TempDir(), "nope.png"))

	a := r.Resolve(zerolog.Nop())
	assert.False(t, a.HasLogo())
	assert.Equal(t, Assets{}, a)
}

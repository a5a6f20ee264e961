// Package overlays tracks the optional image assets composited onto every
// rendered window.
package overlays

import (
	"sort"

	"github.com/kikiluvv/recut/pkg/util"
	"github.com/rs/zerolog"
)

// Known overlay names.
const (
	Logo = "logo"
)

// Assets are the overlays confirmed present for a run. The zero value
// means no overlays.
type Assets struct {
	Logo string `json:"logo,omitempty" yaml:"logo,omitempty"`
}

// HasLogo reports whether a logo file is available.
func (a Assets) HasLogo() bool {
	return a.Logo != ""
}

// Registry maps overlay names to configured file paths.
type Registry struct {
	overlays map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		overlays: make(map[string]string),
	}
}

// Register adds an overlay. Empty paths are ignored.
func (r *Registry) Register(name, path string) {
	if path == "" {
		return
	}
	r.overlays[name] = path
}

// Get retrieves an overlay path by name.
func (r *Registry) Get(name string) (string, bool) {
	path, ok := r.overlays[name]
	return path, ok
}

// List returns registered overlay names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.overlays))
	for name := range r.overlays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve checks every registered file once and returns the ones that
// exist. Missing files are logged and left out; they never fail a run.
func (r *Registry) Resolve(logger zerolog.Logger) Assets {
	var a Assets
	for _, name := range r.List() {
		path := r.overlays[name]
		if !util.FileExists(path) {
			logger.Warn().Str("overlay", name).Str("path", path).Msg("overlay file missing, skipping")
			continue
		}
		switch name {
		case Logo:
			a.Logo = path
		default:
			logger.Debug().Str("overlay", name).Msg("unknown overlay ignored")
		}
	}
	return a
}

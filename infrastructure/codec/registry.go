package codec

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/reglet-dev/opensearch-nix/domain/ports"
)

// Registry implements ports.CodecRegistry.
type Registry struct {
	byFormat    map[string]ports.ManifestCodec
	byExtension map[string]ports.ManifestCodec
}

// NewRegistry returns a registry holding every built-in codec.
func NewRegistry() *Registry {
	r := &Registry{
		byFormat:    make(map[string]ports.ManifestCodec),
		byExtension: make(map[string]ports.ManifestCodec),
	}
	r.Register(NewYAMLCodec(), ".yaml", ".yml")
	r.Register(NewJSONCodec(), ".json", ".jsonc")
	r.Register(NewTOMLCodec(), ".toml")
	r.Register(NewNixCodec(), ".nix")
	return r
}

// Register adds a codec under its format name and the given extensions.
func (r *Registry) Register(c ports.ManifestCodec, extensions ...string) {
	r.byFormat[c.Format()] = c
	for _, ext := range extensions {
		r.byExtension[strings.ToLower(ext)] = c
	}
}

// ForFormat implements ports.CodecRegistry.
func (r *Registry) ForFormat(format string) (ports.ManifestCodec, bool) {
	c, ok := r.byFormat[strings.ToLower(format)]
	return c, ok
}

// ForPath implements ports.CodecRegistry.
func (r *Registry) ForPath(path string) (ports.ManifestCodec, bool) {
	c, ok := r.byExtension[strings.ToLower(filepath.Ext(path))]
	return c, ok
}

// Formats implements ports.CodecRegistry.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

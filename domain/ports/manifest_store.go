package ports

import "github.com/reglet-dev/opensearch-nix/domain/entities"

// ManifestStore provides persistence for a devshell manifest.
type ManifestStore interface {
	// Load reads and decodes the manifest.
	Load() (*entities.Manifest, error)

	// Save encodes and writes the manifest.
	Save(manifest *entities.Manifest) error

	// Path returns the path to the backing file (for user messaging).
	Path() string
}

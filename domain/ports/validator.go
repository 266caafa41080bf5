package ports

import "github.com/reglet-dev/opensearch-nix/domain/entities"

// ManifestValidator checks a devshell manifest's structural rules.
type ManifestValidator interface {
	// Validate reports every violation found in the manifest. The error is
	// reserved for failures of the validator itself.
	Validate(manifest *entities.Manifest) (*entities.ValidationResult, error)
}

// DocumentValidator checks a generic decoded document against the
// manifest schema, catching what decoding into entities.Manifest drops,
// such as unknown keys.
type DocumentValidator interface {
	ValidateDocument(doc interface{}) (*entities.ValidationResult, error)
}

package ports

import "github.com/reglet-dev/opensearch-nix/domain/entities"

// ManifestCodec converts a devshell manifest to and from one file format.
type ManifestCodec interface {
	// Format returns the short format name, e.g. "yaml".
	Format() string

	// Encode serializes the manifest.
	Encode(manifest *entities.Manifest) ([]byte, error)

	// Decode parses raw bytes into a manifest.
	Decode(data []byte) (*entities.Manifest, error)
}

// CodecRegistry resolves codecs by format name or file extension.
type CodecRegistry interface {
	// ForFormat returns the codec registered under a format name.
	ForFormat(format string) (ManifestCodec, bool)

	// ForPath returns the codec matching a file's extension.
	ForPath(path string) (ManifestCodec, bool)

	// Formats lists registered format names.
	Formats() []string
}

// DocumentDecoder is implemented by codecs that can decode a file into a
// generic document (maps, slices and scalars) for schema validation.
type DocumentDecoder interface {
	DecodeDocument(data []byte) (interface{}, error)
}

// Package codec implements ports.ManifestCodec for the file formats a
// devshell manifest is written in: YAML, JSON with comments, TOML and a
// Nix shell expression.
//
// YAML and JSON accept each tool either as a bare identifier or as an
// object; encoders write bare identifiers whenever a tool has no role or
// description.
package codec

import "github.com/reglet-dev/opensearch-nix/domain/entities"

// toolEntries returns the tools in their shortest encodable form.
func toolEntries(tools []entities.Tool) []interface{} {
	entries := make([]interface{}, 0, len(tools))
	for _, t := range tools {
		if t.Bare() {
			entries = append(entries, string(t.Name))
			continue
		}
		entries = append(entries, t)
	}
	return entries
}

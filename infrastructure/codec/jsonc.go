package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/tidwall/jsonc"
)

// JSONCodec encodes manifests as JSON. Decoding accepts JSONC: // and /* */
// comments and trailing commas are stripped first.
type JSONCodec struct{}

// NewJSONCodec creates a new JSONCodec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

type jsonDocument struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Tools       []json.RawMessage `json:"tools"`
}

type jsonOutput struct {
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`
	Tools       []interface{} `json:"tools"`
}

// Format implements ports.ManifestCodec.
func (c *JSONCodec) Format() string { return "json" }

// Decode implements ports.ManifestCodec.
func (c *JSONCodec) Decode(data []byte) (*entities.Manifest, error) {
	var doc jsonDocument
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, &errors.DecodeError{Source: "json", Err: err}
	}

	m := &entities.Manifest{Name: doc.Name, Description: doc.Description}
	for i, raw := range doc.Tools {
		raw = bytes.TrimSpace(raw)
		var tool entities.Tool
		switch {
		case len(raw) > 0 && raw[0] == '"':
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return nil, &errors.DecodeError{Source: "json", Element: "tools", Err: err}
			}
			tool.Name = entities.ToolIdentifier(name)
		case len(raw) > 0 && raw[0] == '{':
			if err := json.Unmarshal(raw, &tool); err != nil {
				return nil, &errors.DecodeError{Source: "json", Element: "tools", Err: err}
			}
		default:
			return nil, &errors.DecodeError{
				Source:  "json",
				Element: "tools",
				Err:     fmt.Errorf("entry %d: tool must be a string or an object", i),
			}
		}
		m.Tools = append(m.Tools, tool)
	}
	return m, nil
}

// DecodeDocument implements ports.DocumentDecoder.
func (c *JSONCodec) DecodeDocument(data []byte) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, &errors.DecodeError{Source: "json", Err: err}
	}
	return doc, nil
}

// Encode implements ports.ManifestCodec.
func (c *JSONCodec) Encode(manifest *entities.Manifest) ([]byte, error) {
	out := jsonOutput{
		Name:        manifest.Name,
		Description: manifest.Description,
		Tools:       toolEntries(manifest.Tools),
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return append(b, '\n'), nil
}

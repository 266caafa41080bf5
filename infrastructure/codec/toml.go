package codec

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
)

// TOMLCodec encodes manifests as TOML. Tools are written as [[tools]]
// tables; decoding also accepts a plain array of names.
type TOMLCodec struct{}

// NewTOMLCodec creates a new TOMLCodec.
func NewTOMLCodec() *TOMLCodec {
	return &TOMLCodec{}
}

type tomlDocument struct {
	Name        string        `toml:"name"`
	Description string        `toml:"description"`
	Tools       []interface{} `toml:"tools"`
}

// Format implements ports.ManifestCodec.
func (c *TOMLCodec) Format() string { return "toml" }

// Decode implements ports.ManifestCodec.
func (c *TOMLCodec) Decode(data []byte) (*entities.Manifest, error) {
	var doc tomlDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &errors.DecodeError{Source: "toml", Err: err}
	}

	m := &entities.Manifest{Name: doc.Name, Description: doc.Description}
	for i, entry := range doc.Tools {
		switch v := entry.(type) {
		case string:
			m.Tools = append(m.Tools, entities.Tool{Name: entities.ToolIdentifier(v)})
		case map[string]interface{}:
			tool, err := toolFromTable(v)
			if err != nil {
				return nil, &errors.DecodeError{Source: "toml", Element: "tools", Err: fmt.Errorf("entry %d: %w", i, err)}
			}
			m.Tools = append(m.Tools, tool)
		default:
			return nil, &errors.DecodeError{
				Source:  "toml",
				Element: "tools",
				Err:     fmt.Errorf("entry %d: tool must be a string or a table", i),
			}
		}
	}
	return m, nil
}

func toolFromTable(table map[string]interface{}) (entities.Tool, error) {
	var tool entities.Tool
	for k, v := range table {
		s, ok := v.(string)
		if !ok {
			return tool, fmt.Errorf("key %q must be a string", k)
		}
		switch k {
		case "name":
			tool.Name = entities.ToolIdentifier(s)
		case "role":
			tool.Role = entities.ToolRole(s)
		case "description":
			tool.Description = s
		default:
			return tool, fmt.Errorf("unknown key %q", k)
		}
	}
	return tool, nil
}

// DecodeDocument implements ports.DocumentDecoder.
func (c *TOMLCodec) DecodeDocument(data []byte) (interface{}, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &errors.DecodeError{Source: "toml", Err: err}
	}
	return doc, nil
}

// Encode implements ports.ManifestCodec.
func (c *TOMLCodec) Encode(manifest *entities.Manifest) ([]byte, error) {
	b, err := toml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return b, nil
}

package codec

import (
	"bytes"
	"fmt"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"gopkg.in/yaml.v3"
)

// YAMLCodec encodes manifests as YAML.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAMLCodec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

type yamlDocument struct {
	Name        string      `yaml:"name,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Tools       []yaml.Node `yaml:"tools"`
}

type yamlOutput struct {
	Name        string        `yaml:"name,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Tools       []interface{} `yaml:"tools"`
}

// Format implements ports.ManifestCodec.
func (c *YAMLCodec) Format() string { return "yaml" }

// Decode implements ports.ManifestCodec.
func (c *YAMLCodec) Decode(data []byte) (*entities.Manifest, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errors.DecodeError{Source: "yaml", Err: err}
	}

	m := &entities.Manifest{Name: doc.Name, Description: doc.Description}
	for i := range doc.Tools {
		node := &doc.Tools[i]
		switch node.Kind {
		case yaml.ScalarNode:
			m.Tools = append(m.Tools, entities.Tool{Name: entities.ToolIdentifier(node.Value)})
		case yaml.MappingNode:
			var tool entities.Tool
			if err := node.Decode(&tool); err != nil {
				return nil, &errors.DecodeError{Source: "yaml", Element: "tools", Err: err}
			}
			m.Tools = append(m.Tools, tool)
		default:
			return nil, &errors.DecodeError{
				Source:  "yaml",
				Element: "tools",
				Err:     fmt.Errorf("line %d: tool must be a name or a mapping", node.Line),
			}
		}
	}
	return m, nil
}

// DecodeDocument implements ports.DocumentDecoder.
func (c *YAMLCodec) DecodeDocument(data []byte) (interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errors.DecodeError{Source: "yaml", Err: err}
	}
	return doc, nil
}

// Encode implements ports.ManifestCodec.
func (c *YAMLCodec) Encode(manifest *entities.Manifest) ([]byte, error) {
	out := yamlOutput{
		Name:        manifest.Name,
		Description: manifest.Description,
		Tools:       toolEntries(manifest.Tools),
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return buf.Bytes(), nil
}

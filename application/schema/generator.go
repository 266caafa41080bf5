// Package schema provides JSON schema generation for devshell manifests.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
)

// ManifestSchemaID is the $id of the generated manifest schema.
const ManifestSchemaID = "https://github.com/reglet-dev/opensearch-nix/devshell.schema.json"

// ManifestSchema returns the schema of entities.Manifest. A tool may be
// written either as a bare identifier string or as an object.
func ManifestSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		Mapper:         mapTool,
	}
	s := reflector.Reflect(&entities.Manifest{})
	s.ID = jsonschema.ID(ManifestSchemaID)
	s.Title = "devshell manifest"
	return marshal(s)
}

// toolObject has Tool's fields and tags but not its reflection mapping.
type toolObject entities.Tool

var toolType = reflect.TypeOf(entities.Tool{})

func mapTool(t reflect.Type) *jsonschema.Schema {
	if t != toolType {
		return nil
	}
	object := (&jsonschema.Reflector{Anonymous: true, DoNotReference: true}).Reflect(&toolObject{})
	object.Version = ""

	shorthand := &jsonschema.Schema{Type: "string"}
	if name, ok := object.Properties.Get("name"); ok {
		shorthand.MinLength = name.MinLength
		shorthand.Pattern = name.Pattern
	}
	return &jsonschema.Schema{OneOf: []*jsonschema.Schema{shorthand, object}}
}

func marshal(s *jsonschema.Schema) ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, &errors.SchemaError{Err: fmt.Errorf("failed to marshal schema: %w", err)}
	}
	return jsonBytes, nil
}

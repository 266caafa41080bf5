// Package validation checks devshell manifests against their structural
// rules: struct tags first, then the generated JSON schema.
package validation

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/opensearch-nix/application/schema"
	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_+-]+(\.[A-Za-z0-9_+-]+)*$`)

// ManifestValidator implements ports.ManifestValidator.
type ManifestValidator struct {
	validate *validator.Validate
	schema   *jsonschema.Schema
}

// NewManifestValidator creates a validator with the manifest schema compiled.
func NewManifestValidator() (*ManifestValidator, error) {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("toolname", validToolName); err != nil {
		return nil, fmt.Errorf("failed to register toolname validation: %w", err)
	}

	raw, err := schema.ManifestSchema()
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schema.ManifestSchemaID, bytes.NewReader(raw)); err != nil {
		return nil, &errors.SchemaError{Type: "Manifest", Err: err}
	}
	sch, err := compiler.Compile(schema.ManifestSchemaID)
	if err != nil {
		return nil, &errors.SchemaError{Type: "Manifest", Err: err}
	}

	return &ManifestValidator{validate: v, schema: sch}, nil
}

// Validate checks the manifest's struct rules. The schema is consulted only
// when the struct rules pass, so each problem is reported once.
func (v *ManifestValidator) Validate(manifest *entities.Manifest) (*entities.ValidationResult, error) {
	result := &entities.ValidationResult{Valid: true}
	if manifest == nil {
		result.Add("", "manifest is empty")
		return result, nil
	}

	if err := v.validate.Struct(manifest); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stdErrors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("manifest validation failed: %w", err)
		}
		for _, fe := range fieldErrs {
			result.Add(fieldPath(fe), fieldMessage(fe))
		}
		return result, nil
	}

	// Marshal to JSON and back so the schema sees plain JSON values.
	b, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	return v.ValidateDocument(doc)
}

// ValidateDocument checks an undecoded document (as produced by a generic
// YAML, JSON or TOML decode) against the manifest schema. It catches what
// decoding into entities.Manifest silently drops, such as unknown keys.
func (v *ManifestValidator) ValidateDocument(doc interface{}) (*entities.ValidationResult, error) {
	result := &entities.ValidationResult{Valid: true}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var obj interface{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := v.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if !stdErrors.As(err, &ve) {
			return nil, &errors.SchemaError{Type: "Manifest", Err: err}
		}
		for _, leaf := range leaves(ve) {
			result.Add(leaf.InstanceLocation, leaf.Message)
		}
	}
	return result, nil
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func validToolName(fl validator.FieldLevel) bool {
	return toolNamePattern.MatchString(fl.Field().String())
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// fieldPath turns "Manifest.tools[0].name" into "tools[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return "at least one tool must be declared"
	case "toolname":
		if id, ok := fe.Value().(entities.ToolIdentifier); ok && id.HasWhitespace() {
			return fmt.Sprintf("%q must not contain whitespace", id)
		}
		return fmt.Sprintf("%q contains characters outside [A-Za-z0-9_.+-]", fe.Value())
	case "oneof":
		return fmt.Sprintf("unknown role %q (want one of: %s)", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

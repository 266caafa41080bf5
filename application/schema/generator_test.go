package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestSchema(t *testing.T) {
	raw, err := ManifestSchema()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, ManifestSchemaID, decoded["$id"])
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", decoded["$schema"])
	assert.Equal(t, []interface{}{"tools"}, decoded["required"])

	props := decoded["properties"].(map[string]interface{})
	tools := props["tools"].(map[string]interface{})
	assert.Equal(t, "array", tools["type"])
	assert.EqualValues(t, 1, tools["minItems"])

	items := tools["items"].(map[string]interface{})
	oneOf := items["oneOf"].([]interface{})
	require.Len(t, oneOf, 2)

	shorthand := oneOf[0].(map[string]interface{})
	assert.Equal(t, "string", shorthand["type"])
	assert.NotEmpty(t, shorthand["pattern"])

	object := oneOf[1].(map[string]interface{})
	assert.Equal(t, "object", object["type"])
	assert.NotContains(t, object, "$schema")
	objectProps := object["properties"].(map[string]interface{})
	assert.Contains(t, objectProps, "name")
	assert.Contains(t, objectProps, "role")
	role := objectProps["role"].(map[string]interface{})
	assert.Len(t, role["enum"], 6)
}

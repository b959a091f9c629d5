// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustCompile(`{
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1, "maxLength": 10},
		"kind": {"enum": ["a", "b"]}
	},
	"required": ["name"],
	"additionalProperties": false
}`)

func TestSchema_Valid(t *testing.T) {
	res := testSchema.ValidateBytes([]byte(`{"name": "ok", "kind": "a"}`))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestSchema_FieldErrors(t *testing.T) {
	res := testSchema.ValidateBytes([]byte(`{"kind": "c"}`))
	require.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)

	fields := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		fields = append(fields, e.Field)
		assert.NotEmpty(t, e.Message)
	}
	assert.NotEmpty(t, fields)
}

func TestSchema_InvalidJSON(t *testing.T) {
	res := testSchema.ValidateBytes([]byte(`{not json`))
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "INVALID_JSON", res.Errors[0].Code)
}

func TestSchema_ValidateMap(t *testing.T) {
	res := testSchema.ValidateMap(map[string]interface{}{"name": "way too long for this"})
	assert.False(t, res.Valid)
}

func TestMustCompile_PanicsOnBadSchema(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile(`{"type": ["not", 42`)
	})
}

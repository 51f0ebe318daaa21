package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["name", "age"],
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer", "minimum": 0}
  }
}`

func TestValidateJSONString_Valid(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"name": "Ada", "age": 36}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_MissingField(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"name": "Ada"}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateJSONString_WrongType(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"name": "Ada", "age": "old"}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "age", validationErr.Errors[0].Field)
}

func TestValidateJSONString_BrokenSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidateDocument(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	assert.NoError(t, ValidateDocument("person", personSchema, person{Name: "Ada", Age: 36}))

	err := ValidateDocument("person", personSchema, person{Name: "Ada", Age: -1})
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

package encoding

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Field1 string `json:"field1" yaml:"field1" validate:"required"`
	Field2 int    `json:"field2" yaml:"field2"`
}

func TestNewTypedOutputParser(t *testing.T) {
	t.Parallel()
	for _, mode := range []Mode{ModeJSON, ModeYAML, ""} {
		parser, err := NewTypedOutputParser(testStruct{}, mode)
		require.NoError(t, err)
		assert.NotEmpty(t, parser.GetFormatInstructions())
		assert.Contains(t, parser.Type(), "testStruct")
	}

	_, err := NewTypedOutputParser(testStruct{}, "toml")
	assert.EqualError(t, err, `failed to create encoder: no predefined encoder: "toml"`)
}

func TestTypedOutputParser_Parse(t *testing.T) {
	t.Parallel()
	parser, err := NewTypedOutputParser(testStruct{}, ModeJSON)
	require.NoError(t, err)

	result, err := parser.Parse(`{"field1": "foo", "field2": 42}`)
	require.NoError(t, err)
	assert.Equal(t, "foo", result.Field1)
	assert.Equal(t, 42, result.Field2)

	_, err = parser.Parse(`{"field1": }`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFailedUnmarshalOutput))

	yparser, err := NewTypedOutputParser(testStruct{}, ModeYAML)
	require.NoError(t, err)
	result, err = yparser.Parse("field1: bar\nfield2: 7\n")
	require.NoError(t, err)
	assert.Equal(t, &testStruct{Field1: "bar", Field2: 7}, result)
}

func TestTypedOutputParser_WithValidation(t *testing.T) {
	t.Parallel()
	parser, err := NewTypedOutputParser(testStruct{}, ModeJSON)
	require.NoError(t, err)

	// not validated by default
	_, err = parser.Parse(`{"field2": 1}`)
	require.NoError(t, err)

	_, err = parser.WithValidation(true).Parse(`{"field2": 1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to validate")
	assert.True(t, errors.Is(err, ErrFailedUnmarshalOutput))
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArgs(t *testing.T) {
	params := map[string]string{
		"query": "string",
		"limit": "int",
		"exact": "bool",
	}

	err := ValidateArgs(map[string]any{"query": "go", "limit": float64(3), "exact": true}, params)
	assert.NoError(t, err)

	// Missing required parameter.
	err = ValidateArgs(map[string]any{"query": "go", "exact": false}, params)
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "limit", vErr.Field)

	// Wrong type.
	err = ValidateArgs(map[string]any{"query": 7, "limit": float64(3), "exact": true}, params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")

	// Fractional value for an int parameter.
	err = ValidateArgs(map[string]any{"query": "go", "limit": 2.5, "exact": true}, params)
	assert.Error(t, err)

	// Unexpected extra parameter.
	err = ValidateArgs(map[string]any{"query": "go", "limit": float64(3), "exact": true, "bogus": 1}, params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestValidateArgsAnyAndContainers(t *testing.T) {
	params := map[string]string{
		"payload": "object",
		"items":   "array",
		"extra":   "any",
	}
	err := ValidateArgs(map[string]any{
		"payload": map[string]any{"k": "v"},
		"items":   []any{1, 2},
		"extra":   nil,
	}, params)
	assert.NoError(t, err)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "10", Stringify(10))
	assert.Equal(t, `{"a":1}`, Stringify(map[string]int{"a": 1}))
	assert.Equal(t, "[1,2]", Stringify([]int{1, 2}))
}

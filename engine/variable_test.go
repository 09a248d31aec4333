package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVariable(t *testing.T) {
	assert := assert.New(t)

	tests := map[string]struct {
		value    any
		expected Variable
	}{
		"nil":     {nil, Variable{Type: TypeNull}},
		"string":  {"a", Variable{Type: TypeString, Value: "a"}},
		"bool":    {true, Variable{Type: TypeBoolean, Value: true}},
		"int":     {1, Variable{Type: TypeInteger, Value: 1}},
		"int big": {math.MaxInt32 + 1, Variable{Type: TypeLong, Value: int64(math.MaxInt32 + 1)}},
		"int64":   {int64(2), Variable{Type: TypeLong, Value: int64(2)}},
		"float":   {1.5, Variable{Type: TypeDouble, Value: 1.5}},
		"map":     {map[string]any{"a": 1}, Variable{Type: TypeJson, Value: `{"a":1}`}},
		"slice":   {[]string{"x"}, Variable{Type: TypeJson, Value: `["x"]`}},
		"number":  {json.Number("3"), Variable{Type: TypeLong, Value: int64(3)}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			actual, err := NewVariable(test.value)
			assert.NoError(err)
			assert.Equal(test.expected, actual)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := NewVariable(make(chan int))
		assert.Error(err)
	})
}

func TestAsVariable(t *testing.T) {
	assert := assert.New(t)

	tests := map[string]struct {
		raw      any
		expected *Variable
	}{
		"string": {
			raw: "a",
		},
		"envelope": {
			raw:      map[string]any{"value": "a", "type": "String"},
			expected: &Variable{Type: TypeString, Value: "a"},
		},
		"envelope with value info": {
			raw:      map[string]any{"value": "{}", "type": "Json", "valueInfo": map[string]any{}},
			expected: &Variable{Type: TypeJson, Value: "{}", ValueInfo: map[string]any{}},
		},
		"envelope with null value info": {
			raw:      map[string]any{"value": 1.0, "type": "Integer", "valueInfo": nil},
			expected: &Variable{Type: TypeInteger, Value: 1.0},
		},
		"no type": {
			raw: map[string]any{"value": "a"},
		},
		"non string type": {
			raw: map[string]any{"value": "a", "type": 1},
		},
		"additional keys": {
			raw: map[string]any{"value": "a", "type": "String", "other": true},
		},
		"struct": {
			raw:      Variable{Type: TypeBoolean, Value: true},
			expected: &Variable{Type: TypeBoolean, Value: true},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			actual, ok := AsVariable(test.raw)
			if test.expected == nil {
				assert.False(ok)
			} else {
				assert.True(ok)
				assert.Equal(*test.expected, actual)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// given
	variables := map[string]any{
		"email":   map[string]any{"value": "a@b.c", "type": "String"},
		"guests":  2.0,
		"booking": map[string]any{"value": `{"id":"b1"}`, "type": "Json"},
		"plain":   map[string]any{"id": "x"},
	}

	// when
	flat, err := Flatten(variables)
	require.NoError(err)

	// then
	assert.Equal("a@b.c", flat["email"])
	assert.Equal(2.0, flat["guests"])
	assert.Equal(map[string]any{"id": "b1"}, flat["booking"])
	assert.Equal(map[string]any{"id": "x"}, flat["plain"])

	t.Run("invalid json", func(t *testing.T) {
		_, err := Flatten(map[string]any{"a": map[string]any{"value": "{", "type": "Json"}})
		assert.Error(err)
	})
}

func TestNewVariables(t *testing.T) {
	assert := assert.New(t)

	variables, err := NewVariables(map[string]any{"valid": true, "orders": []any{}})
	assert.NoError(err)
	assert.Equal(Variable{Type: TypeBoolean, Value: true}, variables["valid"])
	assert.Equal(Variable{Type: TypeJson, Value: "[]"}, variables["orders"])

	variables, err = NewVariables(nil)
	assert.NoError(err)
	assert.Nil(variables)
}

package engine

import (
	"encoding/json"
	"fmt"
	"math"
)

// Variable types of the Camunda REST API.
const (
	TypeBoolean = "Boolean"
	TypeDouble  = "Double"
	TypeInteger = "Integer"
	TypeJson    = "Json"
	TypeLong    = "Long"
	TypeNull    = "Null"
	TypeString  = "String"
)

// Variable is a value, wrapped into an envelope that carries its type.
type Variable struct {
	Type      string         `json:"type,omitempty"`
	Value     any            `json:"value"`
	ValueInfo map[string]any `json:"valueInfo,omitempty"`
}

// NewVariable wraps a value into an envelope, inferring the type from the Go value.
// Maps, slices and structs are encoded as JSON strings of type Json.
func NewVariable(value any) (Variable, error) {
	switch v := value.(type) {
	case nil:
		return Variable{Type: TypeNull}, nil
	case Variable:
		return v, nil
	case string:
		return Variable{Type: TypeString, Value: v}, nil
	case bool:
		return Variable{Type: TypeBoolean, Value: v}, nil
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return Variable{Type: TypeInteger, Value: v}, nil
		}
		return Variable{Type: TypeLong, Value: int64(v)}, nil
	case int32:
		return Variable{Type: TypeInteger, Value: int(v)}, nil
	case int64:
		return Variable{Type: TypeLong, Value: v}, nil
	case float32:
		return Variable{Type: TypeDouble, Value: float64(v)}, nil
	case float64:
		return Variable{Type: TypeDouble, Value: v}, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return NewVariable(i)
		}
		f, err := v.Float64()
		if err != nil {
			return Variable{}, fmt.Errorf("failed to convert number %s: %v", v, err)
		}
		return Variable{Type: TypeDouble, Value: f}, nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return Variable{}, fmt.Errorf("failed to encode JSON variable: %v", err)
	}
	return Variable{Type: TypeJson, Value: string(b)}, nil
}

// NewVariables wraps all values into envelopes.
func NewVariables(values map[string]any) (map[string]Variable, error) {
	if len(values) == 0 {
		return nil, nil
	}

	variables := make(map[string]Variable, len(values))
	for name, value := range values {
		variable, err := NewVariable(value)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %v", name, err)
		}
		variables[name] = variable
	}
	return variables, nil
}

// Unwrap returns the plain value of the envelope. A Json value, provided as string, is decoded.
func (v Variable) Unwrap() (any, error) {
	if v.Type != TypeJson {
		return v.Value, nil
	}

	s, ok := v.Value.(string)
	if !ok {
		return v.Value, nil
	}
	if s == "" {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, fmt.Errorf("failed to decode JSON variable: %v", err)
	}
	return value, nil
}

// AsVariable determines if a raw variable value is an envelope.
// A map is considered an envelope, when it has a "value" key and a string "type" key, but no other
// keys, except "valueInfo".
func AsVariable(raw any) (Variable, bool) {
	switch v := raw.(type) {
	case Variable:
		return v, true
	case *Variable:
		if v == nil {
			return Variable{}, false
		}
		return *v, true
	case map[string]any:
		if _, ok := v["value"]; !ok {
			return Variable{}, false
		}
		t, ok := v["type"].(string)
		if !ok {
			return Variable{}, false
		}

		var valueInfo map[string]any
		switch len(v) {
		case 2:
		case 3:
			raw, exists := v["valueInfo"]
			if !exists {
				return Variable{}, false
			}
			if raw != nil {
				if valueInfo, ok = raw.(map[string]any); !ok {
					return Variable{}, false
				}
			}
		default:
			return Variable{}, false
		}
		return Variable{Type: t, Value: v["value"], ValueInfo: valueInfo}, true
	default:
		return Variable{}, false
	}
}

// Flatten normalizes raw variables to plain values, unwrapping envelopes.
func Flatten(variables map[string]any) (map[string]any, error) {
	flat := make(map[string]any, len(variables))
	for name, raw := range variables {
		variable, ok := AsVariable(raw)
		if !ok {
			flat[name] = raw
			continue
		}

		value, err := variable.Unwrap()
		if err != nil {
			return nil, fmt.Errorf("variable %s: %v", name, err)
		}
		flat[name] = value
	}
	return flat, nil
}

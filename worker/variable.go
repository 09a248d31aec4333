package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hotelbey/bey/engine"
)

// Kind is the kind of a variable value.
type Kind int

const (
	KindString  Kind = iota + 1 // string
	KindNumber                  // float64
	KindInteger                 // int64
	KindBoolean                 // bool
	KindAny                     // value as is, e.g. a JSON object or array
)

func (v Kind) String() string {
	switch v {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindAny:
		return "any"
	default:
		return "unknown"
	}
}

// Field declares a task variable.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Default  any // Value, used when the variable is absent, nil or an empty string.
}

// Required declares a variable, which must be present and not empty.
func Required(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind, Required: true}
}

// Optional declares a variable, which is absent from the values, when not provided.
func Optional(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

// Default declares a variable with a default value.
func Default(name string, kind Kind, value any) Field {
	return Field{Name: name, Kind: kind, Default: value}
}

// Schema declares the variables of a task type.
type Schema []Field

// Validate checks that field names are unique and defaults match the declared kind.
func (s Schema) Validate() error {
	names := make(map[string]bool, len(s))
	for _, field := range s {
		if field.Name == "" {
			return errors.New("field name is empty")
		}
		if names[field.Name] {
			return fmt.Errorf("field %s is declared twice", field.Name)
		}
		names[field.Name] = true

		if field.Kind < KindString || field.Kind > KindAny {
			return fmt.Errorf("field %s has no kind", field.Name)
		}
		if field.Default != nil {
			if _, err := convert(field.Default, field.Kind); err != nil {
				return fmt.Errorf("default of field %s: %v", field.Name, err)
			}
		}
	}
	return nil
}

// Names returns the names of all fields, used to restrict the variables fetched with a task.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, field := range s {
		names[i] = field.Name
	}
	return names
}

// Decode normalizes task variables, which are either flat values or envelopes, and converts them
// according to the schema.
//
// All missing and invalid fields are collected into a single [ValidationError].
func Decode(variables map[string]any, schema Schema) (Values, error) {
	values := make(Values, len(schema))

	var validationErr ValidationError
	for _, field := range schema {
		raw := variables[field.Name]

		if variable, ok := engine.AsVariable(raw); ok {
			unwrapped, err := variable.Unwrap()
			if err != nil {
				validationErr.InvalidFields = append(validationErr.InvalidFields, field.Name)
				continue
			}
			raw = unwrapped
		}

		if isEmpty(raw) {
			switch {
			case field.Default != nil:
				raw = field.Default
			case field.Required:
				validationErr.MissingFields = append(validationErr.MissingFields, field.Name)
				continue
			default:
				continue
			}
		}

		value, err := convert(raw, field.Kind)
		if err != nil {
			validationErr.InvalidFields = append(validationErr.InvalidFields, field.Name)
			continue
		}
		values[field.Name] = value
	}

	if len(validationErr.MissingFields) != 0 || len(validationErr.InvalidFields) != 0 {
		return nil, validationErr
	}
	return values, nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func convert(v any, kind Kind) (any, error) {
	switch kind {
	case KindString:
		return toString(v)
	case KindNumber:
		return toFloat(v)
	case KindInteger:
		return toInt(v)
	case KindBoolean:
		return toBool(v)
	default:
		return v, nil
	}
}

func toString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%T is not convertible to string", v)
	}
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%T is not convertible to number", v)
	}
}

func toInt(v any) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i, nil
		}
	}

	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v is not an integer", v)
	}
	return int64(f), nil
}

func toBool(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("%v is not a boolean", v)
}

// Values contains decoded variables. Absent optional variables are not contained.
type Values map[string]any

func (v Values) Any(name string) any {
	return v[name]
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) Float(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

func (v Values) Int(name string) int {
	i, _ := v[name].(int64)
	return int(i)
}

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

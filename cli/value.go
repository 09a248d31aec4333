package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// variablesValue is a custom flag value for variables, which can be repeated.
// A value is parsed as JSON. If it is not valid JSON, it is taken as string.
type variablesValue map[string]any

func (v *variablesValue) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("required format %s", v.Type())
	}

	if *v == nil {
		*v = make(variablesValue)
	}

	(*v)[name] = parseValue(value)
	return nil
}

func (v variablesValue) String() string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}

	slices.Sort(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		b, _ := json.Marshal(v[name])
		pairs[i] = name + "=" + string(b)
	}
	return strings.Join(pairs, ",")
}

func (v variablesValue) Type() string {
	return "name=value"
}

// parseValue parses a JSON value. Integral numbers are returned as int, other numbers as float64.
func parseValue(s string) any {
	decoder := json.NewDecoder(bytes.NewReader([]byte(s)))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil || decoder.More() {
		return s
	}

	return mapNumbers(value)
}

func mapNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return f
	case []any:
		for i := range v {
			v[i] = mapNumbers(v[i])
		}
	case map[string]any:
		for name := range v {
			v[name] = mapNumbers(v[name])
		}
	}
	return value
}

// millisValue is a custom flag value for a duration, sent in milliseconds to the engine.
type millisValue time.Duration

func (v *millisValue) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("duration %s is negative", s)
	}

	*v = millisValue(d)
	return nil
}

func (v millisValue) String() string {
	return time.Duration(v).String()
}

func (v millisValue) Type() string {
	return "duration"
}

func (v millisValue) millis() int64 {
	return time.Duration(v).Milliseconds()
}

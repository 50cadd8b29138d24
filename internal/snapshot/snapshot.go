package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Snapshot is one /ja document, grouped by section ("settings", "options",
// "stations", "status", "programs") and keyed by the device's abbreviations.
// Numbers are kept as json.Number so raw values survive untouched.
type Snapshot map[string]map[string]any

// Parse decodes a raw JSON document into a Snapshot. Top-level keys whose
// value is not an object are ignored.
func Parse(data []byte) (Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	snap := make(Snapshot, len(top))
	for name, raw := range top {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var section map[string]any
		if err := dec.Decode(&section); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot section %s: %w", name, err)
		}
		snap[name] = section
	}
	return snap, nil
}

// Lookup returns the raw value stored under section/key.
func (s Snapshot) Lookup(section, key string) (any, bool) {
	sec, ok := s[section]
	if !ok {
		return nil, false
	}
	v, ok := sec[key]
	return v, ok
}

// Int coerces a decoded JSON number to int. Integral floats are accepted.
func Int(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n.String())
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case bool:
		return 0, fmt.Errorf("boolean %t is not a number", n)
	case string:
		return 0, fmt.Errorf("string %q is not a number", n)
	case nil:
		return 0, fmt.Errorf("null is not a number")
	default:
		return 0, fmt.Errorf("%T is not a number", v)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%s is not an integer", strconv.FormatFloat(f, 'g', -1, 64))
	}
	return int(f), nil
}

// Bool applies JSON truthiness: false, null, zero, "" and empty
// arrays/objects are false.
func Bool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case json.Number:
		f, err := b.Float64()
		return err != nil || f != 0
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		return b != ""
	case []any:
		return len(b) > 0
	case map[string]any:
		return len(b) > 0
	default:
		return true
	}
}

// Array returns v as a JSON array.
func Array(v any) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

// Ints coerces a JSON array of numbers.
func Ints(v any) ([]int, error) {
	arr, ok := Array(v)
	if !ok {
		return nil, fmt.Errorf("%T is not an array", v)
	}
	out := make([]int, len(arr))
	for i, item := range arr {
		n, err := Int(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

// Strings coerces a JSON array of strings.
func Strings(v any) ([]string, error) {
	arr, ok := Array(v)
	if !ok {
		return nil, fmt.Errorf("%T is not an array", v)
	}
	out := make([]string, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %d: %T is not a string", i, item)
		}
		out[i] = s
	}
	return out, nil
}

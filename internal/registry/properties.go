package registry

import (
	"errors"
	"fmt"

	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

var ErrPropertyNotFound = errors.New("property not found")

// PropertyNotFoundError reports a lookup of a name the registry does not
// declare. Missing snapshot data never produces it.
type PropertyNotFoundError struct {
	Name string
}

func (e *PropertyNotFoundError) Error() string {
	return fmt.Sprintf("unknown property %q", e.Name)
}

func (e *PropertyNotFoundError) Unwrap() error {
	return ErrPropertyNotFound
}

type Property struct {
	Name  string `json:"name"`
	Value any    `json:"val"`
}

// Properties holds one resolved value per registry definition. It is not
// safe for concurrent writes.
type Properties struct {
	values []any
}

func (p *Properties) Get(name string) (any, error) {
	i, ok := index[name]
	if !ok {
		return nil, &PropertyNotFoundError{Name: name}
	}
	return cloneValue(p.values[i]), nil
}

// Set overwrites a resolved value. Last write wins; the value is not checked.
func (p *Properties) Set(name string, value any) error {
	i, ok := index[name]
	if !ok {
		return &PropertyNotFoundError{Name: name}
	}
	p.values[i] = value
	return nil
}

// Int returns a numeric property as int.
func (p *Properties) Int(name string) (int, error) {
	v, err := p.Get(name)
	if err != nil {
		return 0, err
	}
	n, err := snapshot.Int(v)
	if err != nil {
		return 0, fmt.Errorf("property %s: %w", name, err)
	}
	return n, nil
}

// String returns a property rendered with %v.
func (p *Properties) String(name string) (string, error) {
	v, err := p.Get(name)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// All lists every property in registry order.
func (p *Properties) All() []Property {
	out := make([]Property, len(definitions))
	for i, d := range definitions {
		out[i] = Property{Name: d.Name, Value: cloneValue(p.values[i])}
	}
	return out
}

// Clone returns an independent copy of every value.
func (p *Properties) Clone() *Properties {
	values := make([]any, len(p.values))
	for i, v := range p.values {
		values[i] = cloneValue(v)
	}
	return &Properties{values: values}
}

// cloneValue copies the list and object values a snapshot decodes into.
// Scalars are returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

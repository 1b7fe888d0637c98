package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Results maps query names to normalized results, in registration order.
// A Results value is never modified after Resolve returns it.
type Results struct {
	names  []string
	values map[string]any
}

func newResults(n int) *Results {
	return &Results{names: make([]string, 0, n), values: make(map[string]any, n)}
}

func (r *Results) set(name string, v any) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns the result of the query name.
func (r *Results) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Value returns the result of the query name, or nil.
func (r *Results) Value(name string) any { return r.values[name] }

func (r *Results) Names() []string { return append([]string(nil), r.names...) }

func (r *Results) Len() int { return len(r.names) }

// Map returns a shallow copy of the results.
func (r *Results) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the results as an object whose keys follow
// registration order.
func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Package registry holds named query definitions for a consuming type.
//
// A Registry is a template: it is written at definition time and only read
// afterwards. Executing queries never writes results back into it, so any
// number of executors can share one Registry.
package registry

import (
	"fmt"
	"sync"

	build "github.com/hanpama/graphtown/internal/build"
)

// Entry is one registered query.
type Entry struct {
	Name       string
	Definition Definition
}

// Registry is an ordered mapping from query name to Definition.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []string
	defs  map[string]Definition
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register associates name with def. Registering an existing name replaces
// its definition and keeps its original position.
func (r *Registry) Register(name string, def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs == nil {
		r.defs = make(map[string]Definition)
	}
	if _, ok := r.defs[name]; !ok {
		r.order = append(r.order, name)
	}
	r.defs[name] = def
}

// Query registers a structured operation under name.
func (r *Registry) Query(name string, op *build.Operation) {
	r.Register(name, Expression(op))
}

// Literal registers raw query text under name.
func (r *Registry) Literal(name, text string) {
	r.Register(name, Literal(text))
}

// All returns a snapshot of the registered entries in registration order.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.order))
	for i, name := range r.order {
		out[i] = Entry{Name: name, Definition: r.defs[name]}
	}
	return out
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Validate reports names that are not valid GraphQL names and definitions
// that cannot be rendered. Registration itself never fails; Validate is for
// tooling that wants to catch mistakes before anything executes.
func (r *Registry) Validate() error {
	for _, e := range r.All() {
		if !build.IsName(e.Name) {
			return fmt.Errorf("registry: %q is not a valid query name", e.Name)
		}
		if _, err := e.Definition.Text(); err != nil {
			return fmt.Errorf("registry: query %q: %w", e.Name, err)
		}
	}
	return nil
}

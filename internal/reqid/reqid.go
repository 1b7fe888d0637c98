// Package reqid tags a resolve pass with an identifier so that events
// published during the pass can be correlated.
package reqid

import (
	"context"
	"math/rand"
)

// key is the context key for the pass ID.
type key struct{}

// NewContext returns a copy of parent with a new random ID stored, unless
// parent already carries one. It also returns the ID in effect.
func NewContext(parent context.Context) (context.Context, int64) {
	if id, ok := FromContext(parent); ok {
		return parent, id
	}
	id := rand.Int63n(1<<62) + 1
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(key{})
	id, ok := v.(int64)
	return id, ok
}

package reqid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx, id := NewContext(context.Background())
	require.NotZero(t, id)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	same, again := NewContext(ctx)
	require.Equal(t, id, again)
	require.Equal(t, ctx, same)
}

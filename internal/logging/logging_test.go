package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	eventbus "github.com/hanpama/graphtown/internal/eventbus"
	events "github.com/hanpama/graphtown/internal/events"
	reqid "github.com/hanpama/graphtown/internal/reqid"
	"github.com/stretchr/testify/require"
)

func TestRegisterLogsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := eventbus.New()
	unregister := RegisterOn(b, logger)

	ctx, id := reqid.NewContext(context.Background())
	eventbus.Emit(ctx, b, events.ResolveStart{Endpoint: "http://x", Queries: 2})
	eventbus.Emit(ctx, b, events.QueryFinish{Name: "somethings", Kind: "expression", Duration: time.Millisecond})
	eventbus.Emit(ctx, b, events.QueryFinish{Name: "broken", Kind: "literal", Err: errors.New("boom")})
	eventbus.Emit(ctx, b, events.HTTPClientFinish{Request: httptest.NewRequest("POST", "http://x/graphql", nil), Status: 200})
	eventbus.Emit(ctx, b, events.ResolveFinish{Endpoint: "http://x", Queries: 2, Err: errors.New("boom")})

	out := buf.String()
	require.Contains(t, out, "resolving queries")
	require.Contains(t, out, "query=somethings")
	require.Contains(t, out, "query failed")
	require.Contains(t, out, "error=boom")
	require.Contains(t, out, "status=200")
	require.Contains(t, out, "resolve failed")
	require.Contains(t, out, "pass=")
	require.Contains(t, out, slog.Int64("pass", id).String())

	unregister()
	buf.Reset()
	eventbus.Emit(ctx, b, events.ResolveStart{})
	require.Empty(t, buf.String())
}

func TestRegisterWithoutGlobalBus(t *testing.T) {
	prev := eventbus.Current()
	t.Cleanup(func() { eventbus.Use(prev) })
	eventbus.Use(nil)
	require.NotPanics(t, func() { Register(slog.Default())() })
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

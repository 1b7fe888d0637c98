// Package logging writes executor and client events to a slog.Logger.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	eventbus "github.com/hanpama/graphtown/internal/eventbus"
	events "github.com/hanpama/graphtown/internal/events"
	reqid "github.com/hanpama/graphtown/internal/reqid"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
	return l, nil
}

// Register subscribes logger to the events of the global bus. The returned
// function removes the subscriptions.
func Register(logger *slog.Logger) (unregister func()) {
	return RegisterOn(eventbus.Current(), logger)
}

// RegisterOn subscribes logger to the events of b.
func RegisterOn(b *eventbus.Bus, logger *slog.Logger) (unregister func()) {
	if b == nil {
		return func() {}
	}
	unsubs := []func(){
		eventbus.On(b, func(ctx context.Context, e events.ResolveStart) {
			logger.LogAttrs(ctx, slog.LevelDebug, "resolving queries",
				withPass(ctx, slog.String("endpoint", e.Endpoint), slog.Int("queries", e.Queries))...)
		}),
		eventbus.On(b, func(ctx context.Context, e events.ResolveFinish) {
			attrs := withPass(ctx,
				slog.String("endpoint", e.Endpoint),
				slog.Int("queries", e.Queries),
				slog.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				logger.LogAttrs(ctx, slog.LevelError, "resolve failed", append(attrs, slog.Any("error", e.Err))...)
				return
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "queries resolved", attrs...)
		}),
		eventbus.On(b, func(ctx context.Context, e events.QueryFinish) {
			attrs := withPass(ctx,
				slog.String("query", e.Name),
				slog.String("kind", e.Kind),
				slog.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				logger.LogAttrs(ctx, slog.LevelWarn, "query failed", append(attrs, slog.Any("error", e.Err))...)
				return
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "query executed", append(attrs, slog.Bool("fallback", e.Fallback))...)
		}),
		eventbus.On(b, func(ctx context.Context, e events.HTTPClientFinish) {
			attrs := withPass(ctx,
				slog.String("url", e.Request.URL.String()),
				slog.Int("status", e.Status),
				slog.Duration("duration", e.Duration),
			)
			if e.OperationName != "" {
				attrs = append(attrs, slog.String("operation", e.OperationName))
			}
			if e.Err != nil {
				attrs = append(attrs, slog.Any("error", e.Err))
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "graphql request", attrs...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func withPass(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	if id, ok := reqid.FromContext(ctx); ok {
		return append(attrs, slog.Int64("pass", id))
	}
	return attrs
}

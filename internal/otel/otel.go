package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/graphtown/internal/eventbus"
	events "github.com/hanpama/graphtown/internal/events"
	reqid "github.com/hanpama/graphtown/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)
	unregister := Register(eventbus.Current(), tp)

	return func(ctx context.Context) error {
		unregister()
		return tp.Shutdown(ctx)
	}, nil
}

// Register subscribes span producers to b using tracers from tp:
// graphtown.resolve, with graphql.query children, with http.client children.
func Register(b *eventbus.Bus, tp trace.TracerProvider) (unregister func()) {
	if b == nil {
		return func() {}
	}
	s := &subscriber{tracer: tp.Tracer("graphtown")}
	return s.register(b)
}

type subscriber struct {
	tracer       trace.Tracer
	resolveSpans sync.Map // pass id -> trace.Span
	querySpans   sync.Map // pass id -> trace.Span
	httpSpans    sync.Map // pass id -> trace.Span
}

func (s *subscriber) register(b *eventbus.Bus) func() {
	unsubs := []func(){
		eventbus.On(b, func(ctx context.Context, e events.ResolveStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "graphtown.resolve")
			span.SetAttributes(
				attribute.String("graphtown.endpoint", e.Endpoint),
				attribute.Int("graphtown.query_count", e.Queries),
			)
			s.resolveSpans.Store(rid, span)
		}),

		eventbus.On(b, func(ctx context.Context, e events.ResolveFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.resolveSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			finish(span, e.Err)
		}),

		eventbus.On(b, func(ctx context.Context, e events.QueryStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.resolveSpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "graphql.query")
			span.SetAttributes(
				attribute.String("graphtown.query.name", e.Name),
				attribute.String("graphtown.query.kind", e.Kind),
			)
			s.querySpans.Store(rid, span)
		}),

		eventbus.On(b, func(ctx context.Context, e events.QueryFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.querySpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Bool("graphtown.query.fallback", e.Fallback))
			finish(span, e.Err)
		}),

		eventbus.On(b, func(ctx context.Context, e events.HTTPClientStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.querySpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			} else if v, ok := s.resolveSpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "http.client", trace.WithSpanKind(trace.SpanKindClient))
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				semconv.HTTPURLKey.String(e.Request.URL.String()),
				attribute.String("graphql.operation.name", e.OperationName),
			)
			s.httpSpans.Store(rid, span)
		}),

		eventbus.On(b, func(ctx context.Context, e events.HTTPClientFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.httpSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			if e.Status != 0 {
				span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			}
			finish(span, e.Err)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

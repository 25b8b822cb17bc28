// Package telemetry is the distributed tracing and metrics core used by the
// SwiftCMS server. It provides span creation and propagation, a fire-and-forget
// metric recorder, a batched export pipeline with pluggable exporters, and
// HTTP middleware that instruments every inbound request.
//
// The Manager is constructed once at process start and passed down explicitly;
// there is no ambient global state. Telemetry failures (malformed propagation
// headers, missing exporter endpoints) degrade observability but never
// application correctness.
package telemetry

import "context"

type contextKey string

const (
	contextKeySpan        contextKey = "span"
	contextKeySpanContext contextKey = "span_context"
	contextKeyRequestID   contextKey = "request_id"
)

// ContextWithSpan stores a live span in the context so nested code can create
// children of it.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, contextKeySpan, span)
}

// SpanFromContext extracts the live span from the context, if any.
func SpanFromContext(ctx context.Context) *Span {
	if v, ok := ctx.Value(contextKeySpan).(*Span); ok {
		return v
	}
	return nil
}

// ContextWithSpanContext stores a bare span context. Used when the caller has
// propagated identity (e.g. from a queue message) but no live span object.
func ContextWithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, contextKeySpanContext, sc)
}

// SpanContextFromContext extracts a stored span context, if any.
func SpanContextFromContext(ctx context.Context) *SpanContext {
	if v, ok := ctx.Value(contextKeySpanContext).(SpanContext); ok {
		return &v
	}
	return nil
}

// RequestIDFromContext extracts the request ID assigned by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

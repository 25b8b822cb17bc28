package telemetry

import "context"

// Tracer is the convenience façade request-scoped callers use to create and
// auto-close nested spans around database, cache, search and domain
// operations. A Tracer with a nil Manager degrades to pure no-ops, so hosts
// can leave telemetry unconfigured without branching at call sites.
type Tracer struct {
	manager *Manager
}

// NewTracer binds a Tracer to a Manager. A nil manager is allowed.
func NewTracer(m *Manager) *Tracer {
	return &Tracer{manager: m}
}

// StartSpan creates a child span of whatever span identity is carried by ctx:
// a live span first, then a stored SpanContext, else a new trace root.
// Returns nil when no manager is configured; all Span methods on the result
// must then be guarded by the caller — prefer Trace, which handles this.
func (t *Tracer) StartSpan(ctx context.Context, name string, kind SpanKind) *Span {
	if t == nil || t.manager == nil {
		return nil
	}
	return t.manager.StartSpan(name, kind, parentFromContext(ctx))
}

// EndSpan ends a span obtained from StartSpan. Safe on nil spans and nil
// tracers.
func (t *Tracer) EndSpan(span *Span) {
	if t == nil || t.manager == nil || span == nil {
		return
	}
	t.manager.EndSpan(span)
}

// Trace runs fn inside a child span, records success and duration, and
// guarantees the span is ended exactly once on every exit path, including a
// panicking fn. The error returned by fn is passed through unchanged.
func (t *Tracer) Trace(ctx context.Context, name string, kind SpanKind, fn func(ctx context.Context) error) error {
	if t == nil || t.manager == nil {
		return fn(ctx)
	}

	span := t.manager.StartSpan(name, kind, parentFromContext(ctx))
	defer t.manager.EndSpan(span)

	err := fn(ContextWithSpan(ctx, span))

	span.SetAttribute("duration_ms", FloatValue(float64(span.Duration().Microseconds())/1000))
	if err != nil {
		span.RecordError(err)
		span.SetAttribute("success", BoolValue(false))
		return err
	}
	span.SetStatus(StatusOK, "")
	span.SetAttribute("success", BoolValue(true))
	return nil
}

// parentFromContext resolves the parent identity for a new child span.
func parentFromContext(ctx context.Context) *SpanContext {
	if span := SpanFromContext(ctx); span != nil {
		sc := span.Context
		return &sc
	}
	return SpanContextFromContext(ctx)
}

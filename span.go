package telemetry

import (
	"fmt"
	"sync"
	"time"
)

// SpanKind is the role an operation plays in the distributed call graph.
type SpanKind string

const (
	SpanKindInternal SpanKind = "internal"
	SpanKindServer   SpanKind = "server"
	SpanKindClient   SpanKind = "client"
	SpanKindProducer SpanKind = "producer"
	SpanKindConsumer SpanKind = "consumer"
)

// StatusCode classifies the outcome of a span.
type StatusCode string

const (
	StatusUnset StatusCode = "unset"
	StatusOK    StatusCode = "ok"
	StatusError StatusCode = "error"
)

// SpanStatus is the outcome of a span. Description is only meaningful for
// StatusError.
type SpanStatus struct {
	Code        StatusCode
	Description string
}

// ValueType tags the scalar kind held by a Value.
type ValueType int

const (
	ValueTypeString ValueType = iota
	ValueTypeInt
	ValueTypeFloat
	ValueTypeBool
)

// Value is a tagged attribute scalar. Exactly one of the payload fields is
// meaningful, selected by Type.
type Value struct {
	Type  ValueType
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// StringValue wraps a string attribute.
func StringValue(v string) Value { return Value{Type: ValueTypeString, Str: v} }

// IntValue wraps an integer attribute.
func IntValue(v int64) Value { return Value{Type: ValueTypeInt, Int: v} }

// FloatValue wraps a floating-point attribute.
func FloatValue(v float64) Value { return Value{Type: ValueTypeFloat, Float: v} }

// BoolValue wraps a boolean attribute.
func BoolValue(v bool) Value { return Value{Type: ValueTypeBool, Bool: v} }

// Any returns the wrapped scalar as an untyped value, for logging.
func (v Value) Any() any {
	switch v.Type {
	case ValueTypeInt:
		return v.Int
	case ValueTypeFloat:
		return v.Float
	case ValueTypeBool:
		return v.Bool
	default:
		return v.Str
	}
}

// Event is a timestamped named occurrence within a span.
type Event struct {
	Name       string
	Timestamp  time.Time
	Attributes map[string]Value
}

// Span is a mutable record of one traced operation. Identity fields (Context,
// Name, Kind, StartTime, ParentContext) are immutable after construction; all
// mutable state is guarded by a single mutex so concurrent attribute and event
// writes from the owning call path and nested helpers are always safe.
//
// Spans are created by Manager.StartSpan and moved to the export queue by
// Manager.EndSpan.
type Span struct {
	Context       SpanContext
	Name          string
	Kind          SpanKind
	StartTime     time.Time
	ParentContext *SpanContext

	now func() time.Time

	mu         sync.Mutex
	attributes map[string]Value
	events     []Event
	status     SpanStatus
	endTime    time.Time
	ended      bool
}

// SetAttribute sets an attribute, replacing any existing value for the key.
// Under concurrent calls the last write for a given key wins.
func (s *Span) SetAttribute(key string, value Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[key] = value
}

// AddEvent appends a timestamped event. Concurrent appends are serialized to
// a single total order.
func (s *Span) AddEvent(name string, attributes map[string]Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{
		Name:       name,
		Timestamp:  s.now(),
		Attributes: attributes,
	})
}

// SetStatus sets the span outcome. Last write wins; callers are responsible
// for not reporting success after a caught failure.
func (s *Span) SetStatus(code StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = SpanStatus{Code: code, Description: description}
}

// Status returns the current span outcome.
func (s *Span) Status() SpanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RecordError marks the span as failed and appends an "exception" event
// carrying the error's type and message. It does not end the span.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.SetStatus(StatusError, err.Error())
	s.AddEvent("exception", map[string]Value{
		"exception.type":    StringValue(fmt.Sprintf("%T", err)),
		"exception.message": StringValue(err.Error()),
	})
}

// End freezes the span's end time. Only the first call has effect; both
// explicit caller code and wrapping helpers may attempt to end the same span.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.endTime = s.now()
}

// Ended reports whether End has been called.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// EndTime returns the end time and whether the span has ended.
func (s *Span) EndTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime, s.ended
}

// Duration is elapsed time since start while the span is live, and frozen at
// endTime-startTime once ended.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return s.endTime.Sub(s.StartTime)
	}
	return s.now().Sub(s.StartTime)
}

// Attributes returns a copy of the current attribute set.
func (s *Span) Attributes() map[string]Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Value, len(s.attributes))
	for k, v := range s.attributes {
		out[k] = v
	}
	return out
}

// Events returns a copy of the event sequence.
func (s *Span) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

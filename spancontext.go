package telemetry

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// FlagSampled is the only trace flag with defined meaning. A span carrying it
// was selected by the sampling decision and will be exported.
const FlagSampled = 0x1

// SpanContext is the immutable, copyable identity of a span within a trace.
// TraceID is shared by a span and all of its ancestors and descendants;
// SpanID is unique per span.
type SpanContext struct {
	TraceID    string // 32 lowercase hex digits
	SpanID     string // 16 lowercase hex digits
	TraceFlags int
}

// IsSampled reports whether the sampled flag is set.
func (c SpanContext) IsSampled() bool {
	return c.TraceFlags&FlagSampled != 0
}

// newTraceID returns a fresh 128-bit trace ID as 32 hex digits.
func newTraceID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// newSpanID returns a fresh 64-bit span ID as 16 hex digits.
func newSpanID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:8])
}

package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Propagation headers. Traceparent follows the W3C Trace Context format and
// is the only format this core emits. The uber-trace-id format is consumed
// for compatibility with Jaeger clients but never written.
const (
	TraceparentHeader = "traceparent"
	UberTraceIDHeader = "uber-trace-id"

	// TraceIDHeader carries the bare trace ID on responses for quick log
	// correlation.
	TraceIDHeader = "X-Trace-ID"

	// TenantIDHeader optionally identifies the tenant on multi-tenant hosts.
	TenantIDHeader = "X-Tenant-ID"
)

// ExtractContext parses the inbound propagation headers. The traceparent
// format is tried first, then uber-trace-id. Absent or malformed headers
// yield nil — the caller starts a new trace root; propagation errors are
// never surfaced.
func ExtractContext(h http.Header) *SpanContext {
	if sc := parseTraceparent(h.Get(TraceparentHeader)); sc != nil {
		return sc
	}
	return parseUberTraceID(h.Get(UberTraceIDHeader))
}

// InjectContext writes the traceparent header, overwriting any existing
// value. The injected version byte is always 00.
func InjectContext(sc *SpanContext, h http.Header) {
	if sc == nil {
		return
	}
	h.Set(TraceparentHeader, fmt.Sprintf("00-%s-%s-%02x", sc.TraceID, sc.SpanID, sc.TraceFlags&0xff))
}

// parseTraceparent parses "version-traceId-spanId-flags" with 2/32/16/2 hex
// digits per field. Version 0xff is reserved and rejected, as are all-zero
// trace and span IDs.
func parseTraceparent(v string) *SpanContext {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, "-")
	if len(parts) != 4 {
		return nil
	}
	version, traceID, spanID, flagsHex := parts[0], parts[1], parts[2], parts[3]
	if len(version) != 2 || !isLowerHex(version) || version == "ff" {
		return nil
	}
	if len(traceID) != 32 || !isLowerHex(traceID) || allZero(traceID) {
		return nil
	}
	if len(spanID) != 16 || !isLowerHex(spanID) || allZero(spanID) {
		return nil
	}
	if len(flagsHex) != 2 {
		return nil
	}
	flags, err := strconv.ParseInt(flagsHex, 16, 32)
	if err != nil {
		return nil
	}
	return &SpanContext{TraceID: traceID, SpanID: spanID, TraceFlags: int(flags)}
}

// parseUberTraceID parses "traceId:spanId:parentSpanId:flags". Only the first
// two fields are required. Jaeger clients emit unpadded IDs, so short IDs are
// left-padded with zeros; a flags field that fails to parse degrades to 0
// rather than rejecting otherwise valid IDs.
func parseUberTraceID(v string) *SpanContext {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ":")
	if len(parts) < 2 {
		return nil
	}
	traceID := strings.ToLower(parts[0])
	spanID := strings.ToLower(parts[1])
	if len(traceID) == 0 || len(traceID) > 32 || !isLowerHex(traceID) || allZero(traceID) {
		return nil
	}
	if len(spanID) == 0 || len(spanID) > 16 || !isLowerHex(spanID) || allZero(spanID) {
		return nil
	}
	flags := 0
	if len(parts) >= 4 {
		if f, err := strconv.ParseInt(parts[3], 16, 32); err == nil {
			flags = int(f)
		}
	}
	return &SpanContext{
		TraceID:    padHex(traceID, 32),
		SpanID:     padHex(spanID, 16),
		TraceFlags: flags,
	}
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return len(s) > 0
}

func allZero(s string) bool {
	return strings.Trim(s, "0") == ""
}

func padHex(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

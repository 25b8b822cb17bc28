package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// statusWriter captures the response status code and attaches the prepared
// trace headers just before the header block is flushed.
type statusWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	beforeWrite func(http.Header)
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if w.beforeWrite != nil {
			w.beforeWrite(w.Header())
		}
	}
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// RequestIDMiddleware assigns a unique request ID to each request.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), contextKeyRequestID, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs each request with structured fields. Level escalates
// with the status class.
func LoggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if reqID := RequestIDFromContext(r.Context()); reqID != "" {
			attrs = append(attrs, "request_id", reqID)
		}
		if span := SpanFromContext(r.Context()); span != nil {
			attrs = append(attrs, "trace_id", span.Context.TraceID)
		}

		level := slog.LevelInfo
		if wrapped.statusCode >= 500 {
			level = slog.LevelError
		} else if wrapped.statusCode >= 400 {
			level = slog.LevelWarn
		}
		logger.Log(r.Context(), level, "http request", attrs...)
	})
}

// TraceMiddleware instruments every inbound request: it extracts the parent
// trace context, opens a server span, decorates it with standard HTTP
// attributes, measures duration, derives the span status from the outcome,
// records request metrics, injects trace headers into the response and ends
// the span exactly once on every exit path — success, error status or panic.
// Panics are recorded on the span and re-raised unchanged.
func TraceMiddleware(mgr *Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parent := mgr.ExtractContext(r.Header)
		span := mgr.StartSpan(r.Method+" "+r.URL.Path, SpanKindServer, parent)
		ctx := ContextWithSpan(r.Context(), span)

		span.SetAttribute("http.method", StringValue(r.Method))
		span.SetAttribute("http.url", StringValue(requestURL(r)))
		span.SetAttribute("http.scheme", StringValue(requestScheme(r)))
		span.SetAttribute("http.host", StringValue(r.Host))
		span.SetAttribute("http.target", StringValue(r.URL.Path))
		span.SetAttribute("http.client_ip", StringValue(clientIP(r)))
		if ua := r.UserAgent(); ua != "" {
			span.SetAttribute("http.user_agent", StringValue(ua))
		}
		if tenant := r.Header.Get(TenantIDHeader); tenant != "" {
			span.SetAttribute("tenant.id", StringValue(tenant))
		}
		if reqID := RequestIDFromContext(ctx); reqID != "" {
			span.SetAttribute("http.request_id", StringValue(reqID))
		}

		// Prepared here, attached when the header block flushes (or after the
		// handler returns, if it never wrote).
		sc := span.Context
		inject := func(h http.Header) {
			mgr.InjectContext(&sc, h)
			h.Set(TraceIDHeader, sc.TraceID)
		}
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK, beforeWrite: inject}

		defer func() {
			if rec := recover(); rec != nil {
				span.SetAttribute("duration_ms", FloatValue(float64(span.Duration().Microseconds())/1000))
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				span.RecordError(err)
				mgr.RecordCounter("http.server.error_count", 1, map[string]string{
					"method": r.Method,
					"route":  r.URL.Path,
					"error":  fmt.Sprintf("%T", rec),
				})
				mgr.EndSpan(span)
				panic(rec)
			}
		}()

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if !wrapped.wroteHeader {
			// Handler returned without writing; headers are still open.
			inject(w.Header())
		}

		status := wrapped.statusCode
		durationMS := float64(span.Duration().Microseconds()) / 1000
		span.SetAttribute("http.status_code", IntValue(int64(status)))
		span.SetAttribute("duration_ms", FloatValue(durationMS))
		if status >= 400 {
			span.SetStatus(StatusError, fmt.Sprintf("HTTP %d", status))
		} else {
			span.SetStatus(StatusOK, "")
		}

		attrs := map[string]string{
			"method":      r.Method,
			"status_code": strconv.Itoa(status),
			"route":       r.URL.Path,
		}
		mgr.RecordCounter("http.server.request_count", 1, attrs)
		mgr.RecordGauge("http.server.duration_ms", durationMS, attrs)
		if status >= 400 {
			mgr.RecordCounter("http.server.error_count", 1, attrs)
		}

		mgr.EndSpan(span)
	})
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func requestURL(r *http.Request) string {
	return requestScheme(r) + "://" + r.Host + r.URL.RequestURI()
}

// clientIP prefers the first X-Forwarded-For entry over the raw peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

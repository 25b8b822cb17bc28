package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExporterSelection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := map[ExporterKind]string{
		ExporterConsole: "console",
		ExporterOTLP:    "otlp",
		ExporterJaeger:  "jaeger",
		ExporterNone:    "none",
	}
	for kind, name := range cases {
		cfg := testConfig()
		cfg.Exporter = kind
		assert.Equal(t, name, newExporter(cfg, logger).Name())
	}
}

func TestConsoleExporterLogsSpansAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	mgr, _ := newTestManager(t, testConfig())

	span := mgr.StartSpan("GET /content", SpanKindServer, nil)
	span.SetStatus(StatusError, "HTTP 500")
	mgr.EndSpan(span)

	exp := NewConsoleExporter(logger)
	err := exp.Export(context.Background(), []*Span{span}, []Metric{
		{Name: "http.server.request_count", Value: 1, Timestamp: time.Now()},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, span.Context.TraceID)
	assert.Contains(t, out, `"msg":"span"`)
	assert.Contains(t, out, `"error":"HTTP 500"`)
	assert.Contains(t, out, `"msg":"metric"`)
	assert.Contains(t, out, "http.server.request_count")
}

func TestOTLPExporterSkipsWithoutEndpoint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	exp := &OTLPExporter{logger: logger}
	err := exp.Export(context.Background(), []*Span{{Name: "op"}}, nil)
	require.NoError(t, err, "a misconfigured exporter degrades, it never fails the pipeline")
	assert.Contains(t, buf.String(), "no endpoint configured")
}

func TestJaegerExporterSkipsWithoutEndpoint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	exp := &JaegerExporter{logger: logger}
	require.NoError(t, exp.Export(context.Background(), nil, []Metric{{Name: "m"}}))
	assert.Contains(t, buf.String(), "no endpoint configured")
}

func TestOTLPExporterLogsIntent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	exp := &OTLPExporter{Endpoint: "http://collector:4318", logger: logger}
	require.NoError(t, exp.Export(context.Background(), []*Span{{Name: "op"}}, nil))

	out := buf.String()
	assert.Contains(t, out, "otlp export")
	assert.Contains(t, out, "http://collector:4318")
}

func TestNopExporter(t *testing.T) {
	require.NoError(t, NopExporter{}.Export(context.Background(), []*Span{{Name: "op"}}, nil))
	assert.Equal(t, "none", NopExporter{}.Name())
}

package telemetry

import (
	"context"
	"log/slog"
)

// Exporter receives batches of completed spans and metrics. Implementations
// must be safe for use from the export loop and from the final shutdown
// flush; batches are never re-delivered.
type Exporter interface {
	Export(ctx context.Context, spans []*Span, metrics []Metric) error
	Name() string
}

// newExporter builds the exporter selected by the configuration.
func newExporter(cfg Config, logger *slog.Logger) Exporter {
	switch cfg.Exporter {
	case ExporterOTLP:
		return &OTLPExporter{Endpoint: cfg.OTLPEndpoint, logger: logger}
	case ExporterJaeger:
		return &JaegerExporter{Endpoint: cfg.JaegerEndpoint, logger: logger}
	case ExporterNone:
		return NopExporter{}
	default:
		return &ConsoleExporter{logger: logger}
	}
}

// ConsoleExporter writes spans and metrics to the structured log. Intended
// for development and as the safe default.
type ConsoleExporter struct {
	logger *slog.Logger
}

// NewConsoleExporter creates a console exporter backed by the given logger.
func NewConsoleExporter(logger *slog.Logger) *ConsoleExporter {
	return &ConsoleExporter{logger: logger}
}

func (e *ConsoleExporter) Name() string { return string(ExporterConsole) }

func (e *ConsoleExporter) Export(ctx context.Context, spans []*Span, metrics []Metric) error {
	for _, s := range spans {
		status := s.Status()
		attrs := []any{
			"name", s.Name,
			"kind", string(s.Kind),
			"trace_id", s.Context.TraceID,
			"span_id", s.Context.SpanID,
			"status", string(status.Code),
			"duration_ms", float64(s.Duration().Microseconds()) / 1000,
			"events", len(s.Events()),
		}
		if s.ParentContext != nil {
			attrs = append(attrs, "parent_span_id", s.ParentContext.SpanID)
		}
		if status.Code == StatusError && status.Description != "" {
			attrs = append(attrs, "error", status.Description)
		}
		e.logger.Info("span", attrs...)
	}
	for _, m := range metrics {
		e.logger.Info("metric",
			"name", m.Name,
			"value", m.Value,
			"attributes", m.Attributes,
			"timestamp", m.Timestamp,
		)
	}
	return nil
}

// OTLPExporter is the OTLP strategy. Wire encoding and transmission are not
// implemented; the exporter records export intent so a real encoder can be
// substituted without touching the Manager.
type OTLPExporter struct {
	Endpoint string
	logger   *slog.Logger
}

func (e *OTLPExporter) Name() string { return string(ExporterOTLP) }

func (e *OTLPExporter) Export(ctx context.Context, spans []*Span, metrics []Metric) error {
	if e.Endpoint == "" {
		e.logger.Warn("otlp exporter: no endpoint configured, skipping export",
			"spans", len(spans), "metrics", len(metrics))
		return nil
	}
	e.logger.Info("otlp export",
		"endpoint", e.Endpoint, "spans", len(spans), "metrics", len(metrics))
	return nil
}

// JaegerExporter is the Jaeger strategy. Like OTLPExporter, transmission is
// not implemented.
type JaegerExporter struct {
	Endpoint string
	logger   *slog.Logger
}

func (e *JaegerExporter) Name() string { return string(ExporterJaeger) }

func (e *JaegerExporter) Export(ctx context.Context, spans []*Span, metrics []Metric) error {
	if e.Endpoint == "" {
		e.logger.Warn("jaeger exporter: no endpoint configured, skipping export",
			"spans", len(spans), "metrics", len(metrics))
		return nil
	}
	e.logger.Info("jaeger export",
		"endpoint", e.Endpoint, "spans", len(spans), "metrics", len(metrics))
	return nil
}

// NopExporter discards everything.
type NopExporter struct{}

func (NopExporter) Name() string { return string(ExporterNone) }

func (NopExporter) Export(context.Context, []*Span, []Metric) error { return nil }

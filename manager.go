package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Manager is the central coordinator: it creates spans under the sampling
// decision, tracks active versus completed spans, accumulates metrics, runs
// the periodic export loop and dispatches to the configured exporter.
//
// All mutable collection state lives here, guarded by one mutex, so callers
// never need their own locks. Construct one Manager at process start, pass it
// down explicitly, and call Shutdown at process end to flush in-flight data.
type Manager struct {
	cfg      Config
	logger   *slog.Logger
	exporter Exporter

	now       func() time.Time
	randFloat func() float64

	mu        sync.Mutex
	active    map[string]*Span // keyed by span ID
	completed []*Span
	metrics   []Metric

	cancel       context.CancelFunc
	loopDone     chan struct{}
	shutdownOnce sync.Once
}

// HealthStatus is a point-in-time snapshot of the manager's state, intended
// to back an operational status endpoint. A growing ActiveSpans count with
// steady traffic indicates spans that are never ended.
type HealthStatus struct {
	Exporter       string  `json:"exporter"`
	Healthy        bool    `json:"healthy"`
	ActiveSpans    int     `json:"active_spans"`
	PendingSpans   int     `json:"pending_spans"`
	PendingMetrics int     `json:"pending_metrics"`
	SamplingRate   float64 `json:"sampling_rate"`
	MetricsEnabled bool    `json:"metrics_enabled"`
}

// NewManager validates the configuration, builds the configured exporter and
// starts the background export loop. The caller owns the Manager and must
// call Shutdown.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.exporter == nil {
		o.exporter = newExporter(cfg, o.logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:       cfg,
		logger:    o.logger,
		exporter:  o.exporter,
		now:       o.now,
		randFloat: o.randFloat,
		active:    make(map[string]*Span),
		cancel:    cancel,
		loopDone:  make(chan struct{}),
	}
	go m.exportLoop(ctx)
	return m, nil
}

// Config returns the immutable configuration the Manager was built with.
func (m *Manager) Config() Config { return m.cfg }

// StartSpan creates a span. If parent is non-nil the span joins the parent's
// trace, otherwise it becomes a new trace root. The sampling decision is
// applied here: unsampled spans are still returned so caller code never needs
// to branch, but they are not tracked and ending them costs nothing.
func (m *Manager) StartSpan(name string, kind SpanKind, parent *SpanContext) *Span {
	traceID := newTraceID()
	if parent != nil {
		traceID = parent.TraceID
	}

	span := &Span{
		Context:    SpanContext{TraceID: traceID, SpanID: newSpanID()},
		Name:       name,
		Kind:       kind,
		StartTime:  m.now(),
		now:        m.now,
		attributes: make(map[string]Value),
		status:     SpanStatus{Code: StatusUnset},
	}
	if parent != nil {
		pc := *parent
		span.ParentContext = &pc
	}

	if m.sampled() {
		span.Context.TraceFlags |= FlagSampled
		m.mu.Lock()
		m.active[span.Context.SpanID] = span
		m.mu.Unlock()
	}
	return span
}

// sampled draws the per-span sampling decision. Each span draws
// independently; the decision is deliberately not inherited from the parent.
func (m *Manager) sampled() bool {
	rate := m.cfg.SamplingRate
	if rate >= 1.0 {
		return true
	}
	if rate <= 0 {
		return false
	}
	return m.randFloat() <= rate
}

// EndSpan ends the span and, if it was tracked, moves it from the active set
// to the completed queue. Ending an unsampled or already-ended span is a safe
// no-op.
func (m *Manager) EndSpan(span *Span) {
	if span == nil {
		return
	}
	span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if tracked, ok := m.active[span.Context.SpanID]; ok && tracked == span {
		delete(m.active, span.Context.SpanID)
		m.completed = append(m.completed, span)
	}
}

// RecordMetric enqueues a metric for export. Dropped when metrics export is
// disabled in the configuration.
func (m *Manager) RecordMetric(metric Metric) {
	if !m.cfg.ExportMetrics {
		return
	}
	if metric.Timestamp.IsZero() {
		metric.Timestamp = m.now()
	}
	m.mu.Lock()
	m.metrics = append(m.metrics, metric)
	m.mu.Unlock()
}

// RecordCounter records a monotonic increment.
func (m *Manager) RecordCounter(name string, value float64, attributes map[string]string) {
	m.RecordMetric(Metric{Name: name, Value: value, Attributes: attributes})
}

// RecordGauge records a point-in-time value.
func (m *Manager) RecordGauge(name string, value float64, attributes map[string]string) {
	m.RecordMetric(Metric{Name: name, Value: value, Attributes: attributes})
}

// Export atomically swaps out the completed-span and metric queues and
// dispatches the drained batch to the exporter. Producers never block on the
// exporter, and nothing is exported twice. Returns immediately when there is
// nothing to export.
func (m *Manager) Export(ctx context.Context) error {
	m.mu.Lock()
	if len(m.completed) == 0 && len(m.metrics) == 0 {
		m.mu.Unlock()
		return nil
	}
	spans := m.completed
	metrics := m.metrics
	m.completed = nil
	m.metrics = nil
	m.mu.Unlock()

	if err := m.exporter.Export(ctx, spans, metrics); err != nil {
		m.logger.Warn("telemetry export failed",
			"exporter", m.exporter.Name(),
			"spans", len(spans),
			"metrics", len(metrics),
			"error", err,
		)
		return err
	}
	return nil
}

// exportLoop drains the queues every BatchInterval until cancelled.
func (m *Manager) exportLoop(ctx context.Context) {
	defer close(m.loopDone)
	ticker := time.NewTicker(m.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = m.Export(ctx)
		}
	}
}

// Shutdown cancels the export loop, waits for it to stop and performs one
// final export so queued data is not lost. Safe to call more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	var err error
	m.shutdownOnce.Do(func() {
		m.cancel()
		select {
		case <-m.loopDone:
		case <-ctx.Done():
		}
		err = m.Export(ctx)
	})
	return err
}

// ExtractContext parses inbound propagation headers. Thin delegation kept as
// a method so callers reach propagation through the same object they use for
// span lifecycle.
func (m *Manager) ExtractContext(h http.Header) *SpanContext {
	return ExtractContext(h)
}

// InjectContext writes outbound propagation headers.
func (m *Manager) InjectContext(sc *SpanContext, h http.Header) {
	InjectContext(sc, h)
}

// HealthStatus returns a snapshot of the manager's counts. Taken under the
// collection mutex so it never observes a half-finished queue swap.
func (m *Manager) HealthStatus() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return HealthStatus{
		Exporter:       m.exporter.Name(),
		Healthy:        true,
		ActiveSpans:    len(m.active),
		PendingSpans:   len(m.completed),
		PendingMetrics: len(m.metrics),
		SamplingRate:   m.cfg.SamplingRate,
		MetricsEnabled: m.cfg.ExportMetrics,
	}
}

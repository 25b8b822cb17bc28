package telemetry

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// Option configures a Manager.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger    *slog.Logger
	exporter  Exporter
	now       func() time.Time
	randFloat func() float64
}

func defaultOptions() resolvedOptions {
	return resolvedOptions{
		logger:    slog.Default(),
		now:       time.Now,
		randFloat: rand.Float64,
	}
}

// WithLogger sets the structured logger for the Manager and the exporters it
// constructs. If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithExporter replaces the exporter selected by the configuration. Use this
// to plug in a real wire encoder or a capturing exporter in tests.
func WithExporter(e Exporter) Option {
	return func(o *resolvedOptions) { o.exporter = e }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *resolvedOptions) { o.now = now }
}

// WithRand overrides the uniform [0,1) source used for sampling draws.
// Intended for tests and for slotting in a deterministic sampler.
func WithRand(randFloat func() float64) Option {
	return func(o *resolvedOptions) { o.randFloat = randFloat }
}

package telemetry

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ExporterKind selects the export backend.
type ExporterKind string

const (
	ExporterConsole ExporterKind = "console"
	ExporterOTLP    ExporterKind = "otlp"
	ExporterJaeger  ExporterKind = "jaeger"
	ExporterNone    ExporterKind = "none"
)

// Config holds all telemetry configuration. Immutable after construction;
// loaded once at process start and read-only for the process lifetime.
type Config struct {
	ServiceName    string
	ServiceVersion string

	Exporter       ExporterKind
	OTLPEndpoint   string // required only when Exporter == ExporterOTLP
	JaegerEndpoint string // required only when Exporter == ExporterJaeger

	ExportMetrics bool
	SamplingRate  float64 // 0.0–1.0 inclusive
	BatchInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName:    envStr("TELEMETRY_SERVICE_NAME", "swiftcms"),
		ServiceVersion: envStr("TELEMETRY_SERVICE_VERSION", "1.0.0"),
		Exporter:       ExporterKind(envStr("TELEMETRY_EXPORTER", string(ExporterConsole))),
		OTLPEndpoint:   envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		JaegerEndpoint: envStr("JAEGER_ENDPOINT", ""),
		ExportMetrics:  envBool("TELEMETRY_EXPORT_METRICS", false),
		SamplingRate:   envFloat("TELEMETRY_SAMPLING_RATE", 1.0),
		BatchInterval:  time.Duration(envFloat("TELEMETRY_BATCH_INTERVAL", 5.0) * float64(time.Second)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.Exporter {
	case ExporterConsole, ExporterOTLP, ExporterJaeger, ExporterNone:
	default:
		return fmt.Errorf("config: unknown exporter %q", c.Exporter)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("config: TELEMETRY_SERVICE_NAME must not be empty")
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("config: TELEMETRY_SAMPLING_RATE must be in [0.0, 1.0], got %g", c.SamplingRate)
	}
	if c.BatchInterval <= 0 {
		return fmt.Errorf("config: TELEMETRY_BATCH_INTERVAL must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

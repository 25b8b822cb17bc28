package telemetry

import "time"

// Metric is an immutable measurement: a name, a numeric value, a tag set and
// the capture time. Counters and gauges share this shape; the distinction is
// semantic (monotonic vs. point-in-time), not enforced by the type.
type Metric struct {
	Name       string
	Value      float64
	Attributes map[string]string
	Timestamp  time.Time
}

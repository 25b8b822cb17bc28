package telemetry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestSpanEndIdempotent(t *testing.T) {
	clock := newFakeClock()
	mgr, _ := newTestManager(t, testConfig(), WithClock(clock.Now))

	span := mgr.StartSpan("op", SpanKindInternal, nil)
	clock.Advance(12 * time.Millisecond)
	span.End()

	endTime, ended := span.EndTime()
	require.True(t, ended)
	duration := span.Duration()

	clock.Advance(time.Hour)
	span.End()

	laterEndTime, _ := span.EndTime()
	assert.Equal(t, endTime, laterEndTime)
	assert.Equal(t, duration, span.Duration())
	assert.Equal(t, 12*time.Millisecond, duration)
}

func TestSpanDurationLiveThenFrozen(t *testing.T) {
	clock := newFakeClock()
	mgr, _ := newTestManager(t, testConfig(), WithClock(clock.Now))

	span := mgr.StartSpan("op", SpanKindInternal, nil)
	assert.Equal(t, time.Duration(0), span.Duration())

	clock.Advance(5 * time.Millisecond)
	first := span.Duration()
	clock.Advance(5 * time.Millisecond)
	second := span.Duration()
	assert.GreaterOrEqual(t, first, time.Duration(0))
	assert.Greater(t, second, first)

	span.End()
	frozen := span.Duration()
	clock.Advance(time.Hour)
	assert.Equal(t, frozen, span.Duration())
}

func TestSpanRecordError(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())

	span := mgr.StartSpan("op", SpanKindInternal, nil)
	span.RecordError(errors.New("disk on fire"))

	status := span.Status()
	assert.Equal(t, StatusError, status.Code)
	assert.Equal(t, "disk on fire", status.Description)

	events := span.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "exception", events[0].Name)
	assert.Equal(t, "disk on fire", events[0].Attributes["exception.message"].Any())
	assert.Equal(t, "*errors.errorString", events[0].Attributes["exception.type"].Any())

	assert.False(t, span.Ended(), "RecordError must not end the span")
}

func TestSpanRecordErrorNil(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())

	span := mgr.StartSpan("op", SpanKindInternal, nil)
	span.RecordError(nil)

	assert.Equal(t, StatusUnset, span.Status().Code)
	assert.Empty(t, span.Events())
}

func TestSpanStatusLastWriteWins(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())

	span := mgr.StartSpan("op", SpanKindInternal, nil)
	span.SetStatus(StatusError, "HTTP 500")
	span.SetStatus(StatusOK, "")

	assert.Equal(t, StatusOK, span.Status().Code)
}

func TestSpanAttributeLastWriteWins(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())

	span := mgr.StartSpan("op", SpanKindInternal, nil)
	span.SetAttribute("retries", IntValue(1))
	span.SetAttribute("retries", IntValue(2))

	attrs := span.Attributes()
	assert.Equal(t, int64(2), attrs["retries"].Any())
}

func TestSpanConcurrentWrites(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())
	span := mgr.StartSpan("op", SpanKindInternal, nil)

	const writers = 32
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			span.SetAttribute(fmt.Sprintf("key.%d", i), IntValue(int64(i)))
			span.SetAttribute("shared", IntValue(int64(i)))
			span.AddEvent("tick", map[string]Value{"n": IntValue(int64(i))})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	attrs := span.Attributes()
	assert.Len(t, span.Events(), writers)
	// writers distinct keys plus the contended one.
	assert.Len(t, attrs, writers+1)
	shared, ok := attrs["shared"]
	require.True(t, ok)
	assert.Equal(t, ValueTypeInt, shared.Type)
}

func TestValueAny(t *testing.T) {
	assert.Equal(t, "a", StringValue("a").Any())
	assert.Equal(t, int64(7), IntValue(7).Any())
	assert.Equal(t, 1.5, FloatValue(1.5).Any())
	assert.Equal(t, true, BoolValue(true).Any())
}

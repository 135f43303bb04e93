package mux

import (
	"sync/atomic"
	"time"

	"github.com/dshills/keymux/internal/event"
)

// Metrics counts what the dispatch loop does. All methods are safe for
// concurrent use.
type Metrics struct {
	units        atomic.Uint64
	keyEvents    atomic.Uint64
	mouseEvents  atomic.Uint64
	charEvents   atomic.Uint64
	invocations  atomic.Uint64
	yields       atomic.Uint64
	failures     atomic.Uint64
	readErrors   atomic.Uint64
	droppedMouse atomic.Uint64

	dispatchCount   atomic.Uint64
	dispatchTotalNs atomic.Int64
	dispatchMaxNs   atomic.Int64

	startTime time.Time
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordUnit records a unit read from the backend.
func (m *Metrics) RecordUnit() {
	m.units.Add(1)
}

// RecordReadError records a failed backend read.
func (m *Metrics) RecordReadError() {
	m.readErrors.Add(1)
}

// RecordDroppedMouse records a mouse sentinel with no report behind it.
func (m *Metrics) RecordDroppedMouse() {
	m.droppedMouse.Add(1)
}

// RecordEvent records a dispatch on a channel and how many listeners it
// completed.
func (m *Metrics) RecordEvent(ch event.Channel, completed int) {
	switch ch {
	case event.ChannelKey:
		m.keyEvents.Add(1)
	case event.ChannelMouse:
		m.mouseEvents.Add(1)
	case event.ChannelChar:
		m.charEvents.Add(1)
	}
	m.invocations.Add(uint64(completed))
}

// RecordYield records a unit yielded to the stream.
func (m *Metrics) RecordYield() {
	m.yields.Add(1)
}

// RecordFailure records a listener failure.
func (m *Metrics) RecordFailure() {
	m.failures.Add(1)
}

// RecordDispatch records how long one unit took to classify and dispatch.
func (m *Metrics) RecordDispatch(d time.Duration) {
	ns := d.Nanoseconds()
	m.dispatchCount.Add(1)
	m.dispatchTotalNs.Add(ns)

	for {
		old := m.dispatchMaxNs.Load()
		if ns <= old || m.dispatchMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	count := m.dispatchCount.Load()
	var avg int64
	if count > 0 {
		avg = m.dispatchTotalNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Uptime:           time.Since(m.startTime),
		Units:            m.units.Load(),
		KeyEvents:        m.keyEvents.Load(),
		MouseEvents:      m.mouseEvents.Load(),
		CharEvents:       m.charEvents.Load(),
		Invocations:      m.invocations.Load(),
		Yields:           m.yields.Load(),
		ListenerFailures: m.failures.Load(),
		ReadErrors:       m.readErrors.Load(),
		DroppedMouse:     m.droppedMouse.Load(),
		AvgDispatchNs:    avg,
		MaxDispatchNs:    m.dispatchMaxNs.Load(),
	}
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	m.units.Store(0)
	m.keyEvents.Store(0)
	m.mouseEvents.Store(0)
	m.charEvents.Store(0)
	m.invocations.Store(0)
	m.yields.Store(0)
	m.failures.Store(0)
	m.readErrors.Store(0)
	m.droppedMouse.Store(0)
	m.dispatchCount.Store(0)
	m.dispatchTotalNs.Store(0)
	m.dispatchMaxNs.Store(0)
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	Uptime           time.Duration
	Units            uint64
	KeyEvents        uint64
	MouseEvents      uint64
	CharEvents       uint64
	Invocations      uint64
	Yields           uint64
	ListenerFailures uint64
	ReadErrors       uint64
	DroppedMouse     uint64
	AvgDispatchNs    int64
	MaxDispatchNs    int64
}

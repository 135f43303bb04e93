package mux

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/keymux/internal/backend"
	"github.com/dshills/keymux/internal/event"
	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/mouse"
	"github.com/dshills/keymux/internal/logging"
)

// ErrStopped is returned by Stream.Next once the multiplexer has stopped.
var ErrStopped = errors.New("multiplexer stopped")

// State is the run state of a Multiplexer.
type State int

const (
	// StateIdle means Start has never been called.
	StateIdle State = iota
	// StateRunning means the loop accepts input.
	StateRunning
	// StateStopped means the loop has ended. Start may run it again.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Multiplexer reads units from a backend and dispatches them through a
// registry.
type Multiplexer struct {
	mu sync.Mutex

	backend  backend.Backend
	registry *event.Registry
	logger   *logging.Logger
	metrics  *Metrics

	state      State
	opts       Options
	exceptions input.Exceptions
	stream     *Stream
}

// New creates a multiplexer over b. A nil registry gets a fresh one.
func New(b backend.Backend, reg *event.Registry, opts ...Option) *Multiplexer {
	if reg == nil {
		reg = event.NewRegistry()
	}
	m := &Multiplexer{
		backend:  b,
		registry: reg,
		logger:   logging.Nop(),
		metrics:  NewMetrics(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the registry listeners are dispatched from.
func (m *Multiplexer) Registry() *event.Registry {
	return m.registry
}

// Metrics returns the loop metrics.
func (m *Multiplexer) Metrics() *Metrics {
	return m.metrics
}

// State returns the current run state.
func (m *Multiplexer) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Running reports whether the loop accepts input.
func (m *Multiplexer) Running() bool {
	return m.State() == StateRunning
}

// Init puts the terminal into raw mode. Repeated calls do nothing.
func (m *Multiplexer) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked()
}

func (m *Multiplexer) initLocked() error {
	if m.backend.Initialized() {
		return nil
	}
	if err := m.backend.Init(); err != nil {
		return err
	}
	m.logger.Debug("terminal initialized")
	return nil
}

// Start moves the loop to running and returns the stream of
// character-class units. The terminal is initialized if needed, the mouse
// mask applied and, when motion is requested, any-event tracking switched
// on. A non-zero Click replaces the backend's click thresholds. Calling
// Start while running re-applies the mouse configuration and
// returns the current stream.
func (m *Multiplexer) Start(opts Options) (*Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initLocked(); err != nil {
		return nil, err
	}

	hadMotion := m.state == StateRunning && m.opts.Motion
	if opts.Click != (mouse.Config{}) {
		m.backend.SetMouseConfig(opts.Click)
	}
	if err := m.backend.SetMouseMask(opts.Buttons&mouse.AllButtons, opts.Motion); err != nil {
		return nil, err
	}
	switch {
	case opts.Motion:
		if err := m.backend.WriteRaw(backend.MotionOn); err != nil {
			return nil, err
		}
		m.backend.Refresh()
	case hadMotion:
		if err := m.backend.WriteRaw(backend.MotionOff); err != nil {
			return nil, err
		}
		m.backend.Refresh()
	}

	m.opts = opts
	m.exceptions = input.NewExceptions(opts.Exceptions...)

	if m.state == StateRunning {
		m.logger.Debug("mouse configuration re-applied: %v", opts.enabled())
		return m.stream, nil
	}

	m.state = StateRunning
	m.stream = &Stream{m: m}
	m.logger.Info("started with mouse mask %v", opts.enabled())
	return m.stream, nil
}

// Stop ends the loop. Pending input is discarded, a blocked read is woken
// and mouse reporting is disabled. Stop on a loop that is not running does
// nothing.
func (m *Multiplexer) Stop() {
	m.halt(nil)
}

// halt stops the loop, recording cause on the stream when non-nil.
func (m *Multiplexer) halt(cause error) {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return
	}
	m.state = StateStopped
	s := m.stream
	motion := m.opts.Motion
	m.mu.Unlock()

	s.end(cause)

	m.backend.FlushInput()
	m.backend.Interrupt()
	if err := m.backend.SetMouseMask(0, false); err != nil {
		m.logger.Warn("disable mouse: %v", err)
	}
	if motion {
		if err := m.backend.WriteRaw(backend.MotionOff); err != nil {
			m.logger.Warn("disable motion tracking: %v", err)
		}
		m.backend.Refresh()
	}

	if cause != nil {
		m.logger.Error("stopped: %v", cause)
	} else {
		m.logger.Info("stopped")
	}
}

// Shutdown stops the loop and restores the terminal.
func (m *Multiplexer) Shutdown() {
	m.Stop()
	m.backend.Shutdown()
}

// Run starts the loop and drives it until it stops, for callers that
// only use listeners. Cancelling ctx stops the loop. Run returns nil
// after Stop, ctx.Err() after cancellation, or the failure that ended
// the loop.
func (m *Multiplexer) Run(ctx context.Context, opts Options) error {
	s, err := m.Start(opts)
	if err != nil {
		return err
	}
	release := context.AfterFunc(ctx, m.Stop)
	defer release()

	for {
		if _, err := s.Next(); err != nil {
			if errors.Is(err, ErrStopped) {
				return ctx.Err()
			}
			return err
		}
	}
}

// step runs one loop iteration: read, classify and dispatch a single
// unit. It reports whether the unit is character-class.
func (m *Multiplexer) step() (input.Unit, bool, error) {
	u, err := m.backend.ReadUnit()
	if err != nil {
		return u, false, err
	}
	start := time.Now()
	m.metrics.RecordUnit()

	if u.IsMouse() {
		if err := m.dispatchMouse(); err != nil {
			return u, false, err
		}
	} else {
		n, err := m.registry.DispatchKey(u)
		m.metrics.RecordEvent(event.ChannelKey, n)
		if err != nil {
			return u, false, err
		}
	}

	m.mu.Lock()
	exc := m.exceptions
	m.mu.Unlock()

	isChar := input.IsCharEvent(u, exc)
	if isChar {
		n, err := m.registry.DispatchChar(u)
		m.metrics.RecordEvent(event.ChannelChar, n)
		if err != nil {
			return u, false, err
		}
	}

	m.metrics.RecordDispatch(time.Since(start))
	return u, isChar, nil
}

func (m *Multiplexer) dispatchMouse() error {
	row, col, mask, err := m.backend.ResolveMouse()
	if errors.Is(err, backend.ErrNoMouseEvent) || (err == nil && mask == 0) {
		m.metrics.RecordDroppedMouse()
		m.logger.Debug("mouse sentinel without a report")
		return nil
	}
	if err != nil {
		return err
	}
	n, err := m.registry.DispatchMouse(row, col, mask)
	m.metrics.RecordEvent(event.ChannelMouse, n)
	return err
}

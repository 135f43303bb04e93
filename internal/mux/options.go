package mux

import (
	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/mouse"
	"github.com/dshills/keymux/internal/logging"
)

// Options configures a run of the multiplexer.
type Options struct {
	// Buttons selects the mouse button events reported.
	Buttons mouse.Mask

	// Motion enables reporting of pointer movement.
	Motion bool

	// Click sets the click and multi-click thresholds. The zero value
	// keeps the backend's current ones.
	Click mouse.Config

	// Exceptions are units yielded as characters even though they are
	// not printable, such as Enter or Backspace.
	Exceptions []input.Unit
}

// DefaultOptions reports every button and motion with the default click
// thresholds and no exceptions.
func DefaultOptions() Options {
	return Options{
		Buttons: mouse.AllButtons,
		Motion:  true,
		Click:   mouse.DefaultConfig(),
	}
}

// enabled returns the full mask requested by o.
func (o Options) enabled() mouse.Mask {
	m := o.Buttons & mouse.AllButtons
	if o.Motion {
		m |= mouse.Motion
	}
	return m
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(m *Multiplexer) {
		if l != nil {
			m.logger = l.WithComponent("mux")
		}
	}
}

// WithMetrics sets the metrics collector, for sharing one across runs.
func WithMetrics(mt *Metrics) Option {
	return func(m *Multiplexer) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// Package backend provides the terminal backends the multiplexer reads from.
package backend

import (
	"errors"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/mouse"
)

// Escape sequences toggling any-event mouse tracking (xterm mode 1003).
const (
	MotionOn  = "\x1b[?1003h"
	MotionOff = "\x1b[?1003l"
)

// Backend errors.
var (
	// ErrClosed is returned by ReadUnit once the terminal input is gone.
	ErrClosed = errors.New("terminal input closed")

	// ErrInterrupted is returned by a ReadUnit woken by Interrupt.
	ErrInterrupted = errors.New("read interrupted")

	// ErrNoMouseEvent is returned by ResolveMouse when no mouse sentinel
	// was read since the last call.
	ErrNoMouseEvent = errors.New("no pending mouse event")

	// ErrNotInitialized is returned by operations that need Init first.
	ErrNotInitialized = errors.New("backend not initialized")
)

// Backend is a terminal the multiplexer reads raw units from.
type Backend interface {
	// Init puts the terminal into raw mode: no line buffering, no echo,
	// per-key delivery, no signals from control characters.
	// Calling Init again is a no-op.
	Init() error

	// Initialized returns true once Init succeeded.
	Initialized() bool

	// ReadUnit blocks until one raw unit arrives. It returns input.Mouse
	// when a mouse report is pending, ErrInterrupted when woken by
	// Interrupt and ErrClosed when the input is gone.
	ReadUnit() (input.Unit, error)

	// ResolveMouse returns the report announced by the last input.Mouse.
	ResolveMouse() (row, col int, m mouse.Mask, err error)

	// SetMouseMask selects the mouse events to report. A zero mask with
	// motion off disables mouse reporting.
	SetMouseMask(buttons mouse.Mask, motion bool) error

	// SetMouseConfig sets the click thresholds used to resolve reports.
	SetMouseConfig(cfg mouse.Config)

	// FlushInput discards input that has arrived but not been read.
	FlushInput()

	// Interrupt wakes a blocked ReadUnit. Safe to call at any time.
	Interrupt()

	// WriteRaw sends seq straight to the terminal output.
	WriteRaw(seq string) error

	// Refresh flushes pending output to the terminal.
	Refresh()

	// Shutdown restores the terminal. Further reads return ErrClosed.
	Shutdown()
}

// MouseReport is a resolved mouse event.
type MouseReport struct {
	Row, Col int
	Mask     mouse.Mask
}

package backend

import (
	"sync"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/mouse"
)

// read is one scripted ReadUnit result.
type read struct {
	unit      input.Unit
	report    MouseReport
	hasReport bool
	err       error
}

// NullBackend is a scripted backend for testing. Units fed to it are
// returned by ReadUnit in order.
type NullBackend struct {
	mu sync.Mutex

	reads chan read
	wake  chan struct{}
	done  chan struct{}

	inits     int
	closed    bool
	pending   *MouseReport
	mask      mouse.Mask
	motion    bool
	maskCalls []MouseReport
	click     mouse.Config
	raw       []string
	flushes   int
	refreshes int
}

// NewNullBackend creates a null backend. capacity bounds how many reads
// can be fed ahead of the reader.
func NewNullBackend(capacity int) *NullBackend {
	if capacity <= 0 {
		capacity = 256
	}
	return &NullBackend{
		reads: make(chan read, capacity),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (b *NullBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inits++
	return nil
}

func (b *NullBackend) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inits > 0
}

// Feed queues units for ReadUnit.
func (b *NullBackend) Feed(units ...input.Unit) {
	for _, u := range units {
		b.reads <- read{unit: u}
	}
}

// FeedMouse queues a mouse sentinel whose report is (row, col, m).
func (b *NullBackend) FeedMouse(row, col int, m mouse.Mask) {
	b.reads <- read{unit: input.Mouse, report: MouseReport{Row: row, Col: col, Mask: m}, hasReport: true}
}

// FeedError queues a read failure.
func (b *NullBackend) FeedError(err error) {
	b.reads <- read{err: err}
}

func (b *NullBackend) ReadUnit() (input.Unit, error) {
	select {
	case r := <-b.reads:
		if r.err != nil {
			return input.Unit{}, r.err
		}
		// A mouse sentinel fed without a report resolves to nothing.
		if r.hasReport {
			b.mu.Lock()
			report := r.report
			b.pending = &report
			b.mu.Unlock()
		}
		return r.unit, nil
	case <-b.wake:
		return input.Unit{}, ErrInterrupted
	case <-b.done:
		return input.Unit{}, ErrClosed
	}
}

func (b *NullBackend) ResolveMouse() (int, int, mouse.Mask, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil {
		return 0, 0, 0, ErrNoMouseEvent
	}
	r := *b.pending
	b.pending = nil
	return r.Row, r.Col, r.Mask, nil
}

func (b *NullBackend) SetMouseMask(buttons mouse.Mask, motion bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mask = buttons
	b.motion = motion
	m := buttons
	if motion {
		m |= mouse.Motion
	}
	b.maskCalls = append(b.maskCalls, MouseReport{Mask: m})
	return nil
}

func (b *NullBackend) SetMouseConfig(cfg mouse.Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.click = cfg
}

func (b *NullBackend) FlushInput() {
	b.mu.Lock()
	b.flushes++
	b.mu.Unlock()

	for {
		select {
		case <-b.reads:
		default:
			return
		}
	}
}

func (b *NullBackend) Interrupt() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *NullBackend) WriteRaw(seq string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raw = append(b.raw, seq)
	return nil
}

func (b *NullBackend) Refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshes++
}

func (b *NullBackend) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

// InitCount returns how many times Init was called.
func (b *NullBackend) InitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inits
}

// MouseMask returns the current mask and motion setting.
func (b *NullBackend) MouseMask() (mouse.Mask, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mask, b.motion
}

// MouseConfig returns the click thresholds last set.
func (b *NullBackend) MouseConfig() mouse.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.click
}

// MaskHistory returns every mask passed to SetMouseMask, with Motion set
// when motion was requested.
func (b *NullBackend) MaskHistory() []mouse.Mask {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]mouse.Mask, len(b.maskCalls))
	for i, c := range b.maskCalls {
		out[i] = c.Mask
	}
	return out
}

// RawWrites returns the sequences passed to WriteRaw.
func (b *NullBackend) RawWrites() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.raw...)
}

// Flushes returns how many times FlushInput was called.
func (b *NullBackend) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// Refreshes returns how many times Refresh was called.
func (b *NullBackend) Refreshes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes
}

// Pending returns how many fed reads have not been consumed.
func (b *NullBackend) Pending() int {
	return len(b.reads)
}

package mux

import (
	"errors"
	"iter"
	"sync"

	"github.com/dshills/keymux/internal/backend"
	"github.com/dshills/keymux/internal/event"
	"github.com/dshills/keymux/internal/input"
)

// Stream is the lazy sequence of character-class units produced by one
// run of the multiplexer. A stream is not restartable: once it ends,
// Start returns a new one.
type Stream struct {
	m *Multiplexer

	// read serializes loop iterations.
	read sync.Mutex

	mu      sync.Mutex
	stopped bool
	err     error
}

// end marks the stream finished. cause is kept when it is the first.
func (s *Stream) end(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.err == nil {
		s.err = cause
	}
}

// state returns whether the stream has ended and why.
func (s *Stream) state() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped, s.err
}

// Next runs the loop until it produces a character-class unit. Every unit
// read along the way is dispatched to its listeners. Next returns
// ErrStopped once the loop has been stopped, or the error that ended it.
func (s *Stream) Next() (input.Unit, error) {
	s.read.Lock()
	defer s.read.Unlock()

	for {
		if stopped, err := s.state(); stopped {
			if err != nil {
				return input.Unit{}, err
			}
			return input.Unit{}, ErrStopped
		}

		u, isChar, err := s.m.step()
		if err != nil {
			if errors.Is(err, backend.ErrInterrupted) {
				continue
			}
			s.fail(err)
			return input.Unit{}, err
		}
		if isChar {
			s.m.metrics.RecordYield()
			return u, nil
		}
	}
}

// fail ends the loop because of err.
func (s *Stream) fail(err error) {
	if errors.Is(err, event.ErrListenerFailed) {
		s.m.metrics.RecordFailure()
	} else {
		s.m.metrics.RecordReadError()
	}
	s.m.halt(err)
	// halt is a no-op when a listener already stopped the loop.
	s.end(err)
}

// All returns an iterator over the remaining units. It ends when the loop
// stops; check Err afterwards.
func (s *Stream) All() iter.Seq[input.Unit] {
	return func(yield func(input.Unit) bool) {
		for {
			u, err := s.Next()
			if err != nil || !yield(u) {
				return
			}
		}
	}
}

// Err returns the error that ended the stream, or nil if it was stopped
// normally or is still running.
func (s *Stream) Err() error {
	_, err := s.state()
	return err
}

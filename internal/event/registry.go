package event

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
	"github.com/dshills/keymux/internal/input/mouse"
)

// entry is one registration in a table.
type entry[L any] struct {
	id ListenerID
	fn L
}

// table maps event identifiers to ordered listener sequences.
type table[K comparable, L any] struct {
	mu   sync.RWMutex
	seqs map[K][]entry[L]
}

func newTable[K comparable, L any]() *table[K, L] {
	return &table[K, L]{seqs: make(map[K][]entry[L])}
}

// add appends fn to the sequence for k.
func (t *table[K, L]) add(k K, fn L) ListenerID {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := newListenerID()
	t.seqs[k] = append(t.seqs[k], entry[L]{id: id, fn: fn})
	return id
}

// remove deletes the registration id from the sequence for k. The
// sequence itself stays, possibly empty.
func (t *table[K, L]) remove(k K, id ListenerID) (found, hadListeners bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seq := t.seqs[k]
	if len(seq) == 0 {
		return false, false
	}
	for i, e := range seq {
		if e.id == id {
			// Copy so snapshots handed to running dispatches stay intact.
			next := make([]entry[L], 0, len(seq)-1)
			next = append(next, seq[:i]...)
			next = append(next, seq[i+1:]...)
			t.seqs[k] = next
			return true, true
		}
	}
	return false, true
}

// snapshot returns the current sequence for k. The returned slice is never
// written to again: add may append past its length but remove copies.
func (t *table[K, L]) snapshot(k K) []entry[L] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seq := t.seqs[k]
	return seq[:len(seq):len(seq)]
}

func (t *table[K, L]) count(k K) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seqs[k])
}

func (t *table[K, L]) total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, seq := range t.seqs {
		n += len(seq)
	}
	return n
}

func (t *table[K, L]) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seqs = make(map[K][]entry[L])
}

// Registry holds the key, mouse and char listener tables.
// It is safe for concurrent use.
type Registry struct {
	keys  *table[key.Code, KeyListener]
	mice  *table[mouse.Mask, MouseListener]
	chars *table[input.Unit, CharListener]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		keys:  newTable[key.Code, KeyListener](),
		mice:  newTable[mouse.Mask, MouseListener](),
		chars: newTable[input.Unit, CharListener](),
	}
}

// OnKey registers fn for a key. Control chords are folded with
// key.Canonical before they are stored.
func (r *Registry) OnKey(code key.Code, fn KeyListener) ListenerID {
	return r.keys.add(key.Canonical(code), fn)
}

// OffKey removes the registration id for a key.
func (r *Registry) OffKey(code key.Code, id ListenerID) error {
	c := key.Canonical(code)
	found, had := r.keys.remove(c, id)
	if !found {
		return &NotFoundError{Channel: ChannelKey, Event: c.String(), ID: id, NoListeners: !had}
	}
	return nil
}

// OnMouse registers fn for an exact mouse mask.
func (r *Registry) OnMouse(m mouse.Mask, fn MouseListener) ListenerID {
	return r.mice.add(m, fn)
}

// OffMouse removes the registration id for a mouse mask.
func (r *Registry) OffMouse(m mouse.Mask, id ListenerID) error {
	found, had := r.mice.remove(m, id)
	if !found {
		return &NotFoundError{Channel: ChannelMouse, Event: m.String(), ID: id, NoListeners: !had}
	}
	return nil
}

// OnChar registers fn for a character-class unit.
func (r *Registry) OnChar(u input.Unit, fn CharListener) ListenerID {
	return r.chars.add(u, fn)
}

// OffChar removes the registration id for a unit.
func (r *Registry) OffChar(u input.Unit, id ListenerID) error {
	found, had := r.chars.remove(u, id)
	if !found {
		return &NotFoundError{Channel: ChannelChar, Event: u.String(), ID: id, NoListeners: !had}
	}
	return nil
}

// DispatchKey calls the listeners of u's canonical ordinal in registration
// order. It returns how many listeners ran to completion and the first
// failure.
func (r *Registry) DispatchKey(u input.Unit) (int, error) {
	c := key.Canonical(u.Ordinal())
	seq := r.keys.snapshot(c)
	for i, e := range seq {
		if err := invoke(func() error { return e.fn(u) }); err != nil {
			return i, &ListenerError{Channel: ChannelKey, Event: c.String(), ID: e.id, Err: err}
		}
	}
	return len(seq), nil
}

// DispatchMouse calls the listeners registered under exactly m.
func (r *Registry) DispatchMouse(row, col int, m mouse.Mask) (int, error) {
	seq := r.mice.snapshot(m)
	for i, e := range seq {
		if err := invoke(func() error { return e.fn(row, col, m) }); err != nil {
			return i, &ListenerError{Channel: ChannelMouse, Event: m.String(), ID: e.id, Err: err}
		}
	}
	return len(seq), nil
}

// DispatchChar calls the listeners registered under u.
func (r *Registry) DispatchChar(u input.Unit) (int, error) {
	seq := r.chars.snapshot(u)
	for i, e := range seq {
		if err := invoke(func() error { return e.fn(u) }); err != nil {
			return i, &ListenerError{Channel: ChannelChar, Event: u.String(), ID: e.id, Err: err}
		}
	}
	return len(seq), nil
}

// Count returns the number of listeners for an event on a channel. id must
// be a key.Code, mouse.Mask or input.Unit matching the channel.
func (r *Registry) Count(ch Channel, id any) int {
	switch ch {
	case ChannelKey:
		if c, ok := id.(key.Code); ok {
			return r.keys.count(key.Canonical(c))
		}
	case ChannelMouse:
		if m, ok := id.(mouse.Mask); ok {
			return r.mice.count(m)
		}
	case ChannelChar:
		if u, ok := id.(input.Unit); ok {
			return r.chars.count(u)
		}
	}
	return 0
}

// Len returns the total number of registrations across all channels.
func (r *Registry) Len() int {
	return r.keys.total() + r.mice.total() + r.chars.total()
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.keys.clear()
	r.mice.clear()
	r.chars.clear()
}

// invoke runs fn and turns a panic into a *PanicError.
func invoke(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

// String implements fmt.Stringer for debugging.
func (r *Registry) String() string {
	return fmt.Sprintf("Registry{key: %d, mouse: %d, char: %d}", r.keys.total(), r.mice.total(), r.chars.total())
}

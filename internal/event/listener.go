package event

import (
	"github.com/google/uuid"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/mouse"
)

// Channel names one of the three listener namespaces.
type Channel uint8

const (
	ChannelKey Channel = iota
	ChannelMouse
	ChannelChar
)

// String returns a string representation of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelKey:
		return "key"
	case ChannelMouse:
		return "mouse"
	case ChannelChar:
		return "char"
	default:
		return "unknown"
	}
}

// ListenerID identifies one registration.
type ListenerID string

// newListenerID returns a fresh random ID.
func newListenerID() ListenerID {
	return ListenerID(uuid.NewString())
}

// KeyListener receives the raw unit that matched its key.
type KeyListener func(u input.Unit) error

// MouseListener receives the cell and the exact mask of a mouse event.
type MouseListener func(row, col int, m mouse.Mask) error

// CharListener receives a character-class unit.
type CharListener func(u input.Unit) error

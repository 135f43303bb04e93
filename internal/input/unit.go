package input

import (
	"fmt"

	"github.com/dshills/keymux/internal/input/key"
)

// Kind says what a Unit carries.
type Kind uint8

const (
	// KindNone is the zero Unit.
	KindNone Kind = iota
	// KindChar is a character, including control bytes.
	KindChar
	// KindKey is a key code decoded by the terminal.
	KindKey
	// KindMouse marks a pending mouse report.
	KindMouse
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindKey:
		return "key"
	case KindMouse:
		return "mouse"
	default:
		return "none"
	}
}

// Unit is one raw read from the terminal. Units are comparable and can be
// used as map keys.
type Unit struct {
	Kind Kind
	Code key.Code
}

// Mouse is the sentinel unit announcing a mouse report.
var Mouse = Unit{Kind: KindMouse, Code: key.Mouse}

// Char returns the unit for a character.
func Char(r rune) Unit {
	return Unit{Kind: KindChar, Code: key.Code(r)}
}

// Key returns the unit for a decoded key code.
func Key(c key.Code) Unit {
	return Unit{Kind: KindKey, Code: c}
}

// FromCode returns the unit a terminal delivers for c. Control chords fold
// to their control character, special and Alt keys arrive decoded and
// everything else arrives as a character.
func FromCode(c key.Code) Unit {
	c = key.Canonical(c)
	switch {
	case c == key.Mouse:
		return Mouse
	case c.IsSpecial() || c.HasAlt():
		return Key(c)
	default:
		return Char(rune(c))
	}
}

// ParseUnit parses a key name such as "Enter", "Ctrl+H" or "x" into the
// unit the terminal delivers for it.
func ParseUnit(spec string) (Unit, error) {
	c, err := key.Parse(spec)
	if err != nil {
		return Unit{}, err
	}
	return FromCode(c), nil
}

// Ordinal returns the unit's numeric identity: the code for keys, the
// character's ordinal for characters.
func (u Unit) Ordinal() key.Code {
	return u.Code
}

// Rune returns the character of a char unit, or 0.
func (u Unit) Rune() rune {
	if u.Kind != KindChar {
		return 0
	}
	return rune(u.Code)
}

// IsMouse returns true for the mouse sentinel.
func (u Unit) IsMouse() bool {
	return u.Kind == KindMouse
}

// IsPrintable returns true for characters in [32, 127) or at least 512.
func (u Unit) IsPrintable() bool {
	if u.Kind != KindChar {
		return false
	}
	return (u.Code >= 32 && u.Code < 127) || u.Code >= 512
}

// String returns the character for printable char units and a
// descriptive form otherwise.
func (u Unit) String() string {
	switch {
	case u.IsPrintable():
		return string(u.Rune())
	case u.Kind == KindChar:
		return fmt.Sprintf("char(%d)", int(u.Code))
	case u.Kind == KindNone:
		return "none"
	default:
		return u.Code.String()
	}
}

// Exceptions is a set of units treated as character input regardless of
// their ordinal.
type Exceptions map[Unit]struct{}

// NewExceptions returns a set holding units.
func NewExceptions(units ...Unit) Exceptions {
	e := make(Exceptions, len(units))
	for _, u := range units {
		e[u] = struct{}{}
	}
	return e
}

// Contains reports whether u is in the set. A nil set contains nothing.
func (e Exceptions) Contains(u Unit) bool {
	_, ok := e[u]
	return ok
}

// Units returns the members of the set in no particular order.
func (e Exceptions) Units() []Unit {
	out := make([]Unit, 0, len(e))
	for u := range e {
		out = append(out, u)
	}
	return out
}

// IsCharEvent reports whether u goes to the char channel and the output
// stream: it is whitelisted in exc or is a printable character.
func IsCharEvent(u Unit, exc Exceptions) bool {
	return exc.Contains(u) || u.IsPrintable()
}

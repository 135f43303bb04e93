package key

import (
	"fmt"
	"strconv"
	"strings"
)

// Code identifies a key. Printable characters use their ordinal value.
type Code int

// Character keys. Plus is '*' (42) and Add is '+' (43). The names "plus"
// and "add" both parse to '+'.
const (
	None      Code = 0
	Tab       Code = 9
	Enter     Code = 10
	Escape    Code = 27
	Space     Code = 32
	Plus      Code = 42
	Add       Code = 43
	Minus     Code = 45
	Div       Code = 47
	DeleteChr Code = 127
)

// Letters. Lowercase letters are their ordinal too: Code('a') == 97.
const (
	A Code = 'A' + iota
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z
)

// Keys without a character. The values match the curses key codes.
const (
	Down Code = 0o402 + iota
	Up
	Left
	Right
	Home
	Backspace
	F0
)

const (
	Delete   Code = 0o512
	Insert   Code = 0o513
	PageDown Code = 0o522
	PageUp   Code = 0o523
	End      Code = 0o550
	Mouse    Code = 0o631
	Resize   Code = 0o632
)

// Modifier masks. They sit above every key code and can be ORed with one.
const (
	Ctrl Code = 1 << 25
	Alt  Code = 1 << 27
)

// Fn returns the code of function key n (F1 is Fn(1)).
func Fn(n int) Code {
	return F0 + Code(n)
}

// Canonical folds a control chord into the byte the terminal delivers for
// it. Codes without the Ctrl bit are returned unchanged.
func Canonical(c Code) Code {
	if c&Ctrl != 0 {
		return (c & 0x7F) - 64
	}
	return c
}

// HasCtrl returns true if the Ctrl bit is set.
func (c Code) HasCtrl() bool {
	return c&Ctrl != 0
}

// HasAlt returns true if the Alt bit is set.
func (c Code) HasAlt() bool {
	return c&Alt != 0
}

// Base returns the code with both modifier bits cleared.
func (c Code) Base() Code {
	return c &^ (Ctrl | Alt)
}

// IsSpecial returns true for keys that have no character.
func (c Code) IsSpecial() bool {
	b := c.Base()
	return b >= Down && b <= Resize
}

// IsFunctionKey returns true for F0 through F63.
func (c Code) IsFunctionKey() bool {
	b := c.Base()
	return b >= F0 && b < F0+64
}

// IsArrowKey returns true if this is an arrow key.
func (c Code) IsArrowKey() bool {
	b := c.Base()
	return b >= Down && b <= Right
}

var specialNames = map[Code]string{
	Tab:       "Tab",
	Enter:     "Enter",
	Escape:    "Escape",
	Space:     "Space",
	DeleteChr: "Del",
	Down:      "Down",
	Up:        "Up",
	Left:      "Left",
	Right:     "Right",
	Home:      "Home",
	Backspace: "Backspace",
	Delete:    "Delete",
	Insert:    "Insert",
	PageDown:  "PageDown",
	PageUp:    "PageUp",
	End:       "End",
	Mouse:     "Mouse",
	Resize:    "Resize",
}

// String returns a human-readable name such as "Enter", "Ctrl+Q" or "Alt+x".
func (c Code) String() string {
	var parts []string
	if c.HasCtrl() {
		parts = append(parts, "Ctrl")
	}
	if c.HasAlt() {
		parts = append(parts, "Alt")
	}
	parts = append(parts, baseName(c.Base()))
	return strings.Join(parts, "+")
}

func baseName(b Code) string {
	if name, ok := specialNames[b]; ok {
		return name
	}
	switch {
	case b.IsFunctionKey():
		return fmt.Sprintf("F%d", b-F0)
	case b > 0 && b < Space:
		// Canonical control chords read back as Ctrl+letter.
		return "Ctrl+" + string(rune(b+64))
	case b >= Space && b < DeleteChr, b >= 0xA0 && !b.IsSpecial():
		return string(rune(b))
	default:
		return fmt.Sprintf("Code(%d)", int(b))
	}
}

// keyNameMap maps key names (lowercase) to codes.
var keyNameMap = map[string]Code{
	"tab":       Tab,
	"enter":     Enter,
	"return":    Enter,
	"cr":        Enter,
	"nl":        Enter,
	"escape":    Escape,
	"esc":       Escape,
	"space":     Space,
	"plus":      Add,
	"add":       Add,
	"star":      Plus,
	"asterisk":  Plus,
	"minus":     Minus,
	"div":       Div,
	"down":      Down,
	"up":        Up,
	"left":      Left,
	"right":     Right,
	"home":      Home,
	"end":       End,
	"backspace": Backspace,
	"bs":        Backspace,
	"delete":    Delete,
	"del":       Delete,
	"insert":    Insert,
	"ins":       Insert,
	"pageup":    PageUp,
	"pgup":      PageUp,
	"pagedown":  PageDown,
	"pgdn":      PageDown,
	"resize":    Resize,
	"lt":        '<',
	"gt":        '>',
	"bar":       '|',
	"bslash":    '\\',
}

// FromName returns the code for a named key (case-insensitive).
// Returns None if the name is not recognized.
func FromName(name string) Code {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := keyNameMap[name]; ok {
		return c
	}
	if len(name) >= 2 && name[0] == 'f' {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n < 64 {
			return Fn(n)
		}
	}
	return None
}

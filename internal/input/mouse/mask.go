package mouse

import (
	"errors"
	"fmt"
	"strings"
)

// Mask is a set of mouse event bits.
type Mask uint32

// Button slots. Each button owns five bits: up, down, click, double, triple.
const (
	LeftUp Mask = 1 << iota
	LeftDown
	LeftClick
	LeftDouble
	LeftTriple
	MiddleUp
	MiddleDown
	MiddleClick
	MiddleDouble
	MiddleTriple
	RightUp
	RightDown
	RightClick
	RightDouble
	RightTriple
)

// Scroll and motion bits.
const (
	ScrollUp   Mask = 1 << 16
	ScrollDown Mask = 1 << 21
	Motion     Mask = 1 << 28
)

// AllButtons enables every button slot and both scroll directions.
const AllButtons = LeftUp | LeftDown | LeftClick | LeftDouble | LeftTriple |
	MiddleUp | MiddleDown | MiddleClick | MiddleDouble | MiddleTriple |
	RightUp | RightDown | RightClick | RightDouble | RightTriple |
	ScrollUp | ScrollDown

// ErrUnknownMask is returned by Parse for an unrecognized name.
var ErrUnknownMask = errors.New("unknown mouse event")

var maskNames = []struct {
	mask Mask
	name string
}{
	{LeftUp, "left-up"},
	{LeftDown, "left-down"},
	{LeftClick, "left-click"},
	{LeftDouble, "left-double"},
	{LeftTriple, "left-triple"},
	{MiddleUp, "middle-up"},
	{MiddleDown, "middle-down"},
	{MiddleClick, "middle-click"},
	{MiddleDouble, "middle-double"},
	{MiddleTriple, "middle-triple"},
	{RightUp, "right-up"},
	{RightDown, "right-down"},
	{RightClick, "right-click"},
	{RightDouble, "right-double"},
	{RightTriple, "right-triple"},
	{ScrollUp, "scroll-up"},
	{ScrollDown, "scroll-down"},
	{Motion, "motion"},
}

// Has returns true if m contains every bit of other.
func (m Mask) Has(other Mask) bool {
	return other != 0 && m&other == other
}

// String returns the names of the set bits joined by "|".
func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	rest := m
	for _, n := range maskNames {
		if m&n.mask != 0 {
			parts = append(parts, n.name)
			rest &^= n.mask
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Parse parses names like "left-click|right-double". Underscores, case and
// the "three" spelling of triple are accepted, as are "all" and "none".
func Parse(s string) (Mask, error) {
	var m Mask
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	}) {
		name := strings.ToLower(strings.ReplaceAll(part, "_", "-"))
		name = strings.Replace(name, "-three", "-triple", 1)
		switch name {
		case "all":
			m |= AllButtons
			continue
		case "none":
			continue
		}
		bit, ok := lookupName(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownMask, part)
		}
		m |= bit
	}
	return m, nil
}

func lookupName(name string) (Mask, bool) {
	for _, n := range maskNames {
		if n.name == name {
			return n.mask, true
		}
	}
	return 0, false
}

// slot returns the five-bit block for a button, with up at bit 0.
func slot(b Button) (Mask, bool) {
	switch b {
	case ButtonLeft:
		return LeftUp, true
	case ButtonMiddle:
		return MiddleUp, true
	case ButtonRight:
		return RightUp, true
	default:
		return 0, false
	}
}

// Bit returns the mask bit for a button and action. Clicks count 1 to 3.
func Bit(b Button, kind Kind) Mask {
	switch b {
	case ButtonScrollUp:
		return ScrollUp
	case ButtonScrollDown:
		return ScrollDown
	}
	base, ok := slot(b)
	if !ok {
		return 0
	}
	return base << Mask(kind)
}

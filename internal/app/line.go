package app

import (
	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
)

// LineBuffer assembles lines from yielded character units.
type LineBuffer struct {
	buf []rune
}

// Feed applies u. It returns the finished line and true on Enter.
func (b *LineBuffer) Feed(u input.Unit) (string, bool) {
	switch {
	case u == input.Char('\n') || u == input.Char('\r'):
		line := string(b.buf)
		b.buf = b.buf[:0]
		return line, true
	case u == input.Key(key.Backspace) || u == input.Char(127) || u == input.Char(8):
		if len(b.buf) > 0 {
			b.buf = b.buf[:len(b.buf)-1]
		}
	case u.IsPrintable():
		b.buf = append(b.buf, u.Rune())
	}
	return "", false
}

// String returns the line so far.
func (b *LineBuffer) String() string {
	return string(b.buf)
}

// Reset discards the line so far.
func (b *LineBuffer) Reset() {
	b.buf = b.buf[:0]
}

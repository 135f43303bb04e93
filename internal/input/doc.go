// Package input defines the raw unit read from a terminal and the
// predicate that decides whether a unit is character input.
//
// A Unit is one atomic read: a character, a key code the terminal decoded
// (arrows, function keys, Alt chords), or the mouse sentinel that tells the
// reader to fetch the pending mouse report.
//
// # Character Input
//
// A unit is character input when it is a character whose ordinal lies in
// [32, 127) or is at least 512, or when the caller whitelisted it:
//
//	exc := input.NewExceptions(input.Char('\n'), input.Key(key.Backspace))
//	if input.IsCharEvent(u, exc) {
//	    line = append(line, u)
//	}
//
// The range 127..511 is excluded on purpose: it holds DEL, the C1 controls
// and the curses key codes, none of which belong in a line buffer.
package input

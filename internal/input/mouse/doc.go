// Package mouse defines the mouse bitmask taxonomy and resolves raw button
// reports into it.
//
// # Masks
//
// A Mask combines a button slot with an action. Each of the left, middle and
// right buttons owns five consecutive bits (up, down, click, double, triple),
// followed by two scroll directions and a motion bit:
//
//	LeftClick | RightDouble    // either event
//	AllButtons                 // every button and scroll slot
//	AllButtons | Motion        // plus position reports
//
// The layout matches the ncurses mouse interface, so masks written for a
// curses program keep their meaning.
//
// # Resolver
//
// Terminals only report presses, releases and movement. Resolver turns
// those reports into masks: a press yields the button's down bit, a release
// close in time and space to its press yields click, double or triple, and
// any other release yields the up bit. Events whose resolved bit is not in
// the enabled mask fall back to the nearest enabled action or are dropped.
//
// Resolver is safe for concurrent use.
package mouse

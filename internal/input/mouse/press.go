package mouse

import "time"

// pressTracker remembers the button held since the last press.
type pressTracker struct {
	active bool
	button Button
	pos    Position
	at     time.Time
}

// held is a snapshot of a finished press.
type held struct {
	button Button
	pos    Position
	at     time.Time
}

// start begins tracking a press. A new press replaces any unreleased one.
func (t *pressTracker) start(button Button, pos Position, at time.Time) {
	t.active = true
	t.button = button
	t.pos = pos
	t.at = at
}

// end stops tracking and returns what was held.
func (t *pressTracker) end() held {
	h := held{button: t.button, pos: t.pos, at: t.at}
	*t = pressTracker{}
	return h
}

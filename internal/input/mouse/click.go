package mouse

import "time"

// clickTracker counts consecutive clicks of one button for double and
// triple click detection.
type clickTracker struct {
	maxTime     time.Duration
	maxDistance int

	lastButton Button
	lastPos    Position
	lastTime   time.Time
	lastCount  int
}

// newClickTracker creates a new click tracker.
func newClickTracker(maxTime time.Duration, maxDistance int) *clickTracker {
	return &clickTracker{
		maxTime:     maxTime,
		maxDistance: maxDistance,
	}
}

// recordClick records a click and returns the click count (1, 2, or 3).
// The count wraps back to 1 after 3. A zero timestamp means now.
func (t *clickTracker) recordClick(button Button, pos Position, timestamp time.Time) int {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	if t.continues(button, pos, timestamp) {
		t.lastCount++
		if t.lastCount > 3 {
			t.lastCount = 1
		}
	} else {
		t.lastCount = 1
	}

	t.lastButton = button
	t.lastPos = pos
	t.lastTime = timestamp

	return t.lastCount
}

// continues reports whether a click extends the current sequence.
func (t *clickTracker) continues(button Button, pos Position, timestamp time.Time) bool {
	if t.lastCount == 0 || t.lastTime.IsZero() || button != t.lastButton {
		return false
	}

	// Negative elapsed time means the clock went backwards: start over.
	elapsed := timestamp.Sub(t.lastTime)
	if elapsed < 0 || elapsed > t.maxTime {
		return false
	}

	return pos.Distance(t.lastPos) <= t.maxDistance
}

// reset clears the click tracking state.
func (t *clickTracker) reset() {
	*t = clickTracker{maxTime: t.maxTime, maxDistance: t.maxDistance}
}

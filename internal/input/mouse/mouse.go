package mouse

import (
	"sync"
	"time"
)

// Button represents a mouse button.
type Button uint8

const (
	// ButtonNone indicates no button.
	ButtonNone Button = iota
	// ButtonLeft is the primary (left) mouse button.
	ButtonLeft
	// ButtonMiddle is the middle mouse button (scroll wheel click).
	ButtonMiddle
	// ButtonRight is the secondary (right) mouse button.
	ButtonRight
	// ButtonScrollUp indicates scroll wheel up.
	ButtonScrollUp
	// ButtonScrollDown indicates scroll wheel down.
	ButtonScrollDown
)

// String returns a string representation of the button.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	case ButtonScrollUp:
		return "scroll-up"
	case ButtonScrollDown:
		return "scroll-down"
	default:
		return "none"
	}
}

// IsScroll returns true if this is a scroll button.
func (b Button) IsScroll() bool {
	return b == ButtonScrollUp || b == ButtonScrollDown
}

// Action represents the type of raw mouse report.
type Action uint8

const (
	// ActionNone indicates no action.
	ActionNone Action = iota
	// ActionPress indicates a button press.
	ActionPress
	// ActionRelease indicates a button release.
	ActionRelease
	// ActionMove indicates mouse movement (no button held).
	ActionMove
	// ActionDrag indicates mouse movement with a button held.
	ActionDrag
)

// String returns a string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionPress:
		return "press"
	case ActionRelease:
		return "release"
	case ActionMove:
		return "move"
	case ActionDrag:
		return "drag"
	default:
		return "none"
	}
}

// Kind is the offset of an action inside a button's five-bit slot.
type Kind uint8

const (
	KindUp Kind = iota
	KindDown
	KindClick
	KindDouble
	KindTriple
)

// Position represents a terminal cell coordinate.
type Position struct {
	X int
	Y int
}

// Equal returns true if two positions are equal.
func (p Position) Equal(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// Distance returns the Manhattan distance (|dx| + |dy|) between two positions.
func (p Position) Distance(other Position) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Event is a raw mouse report from a terminal.
type Event struct {
	// Position is the cell the report refers to. X is the column, Y the row.
	Position Position

	// Button is the button pressed. Releases may carry ButtonNone since
	// most terminals do not say which button went up.
	Button Button

	// Action is the type of report.
	Action Action

	// Timestamp is when the report arrived.
	Timestamp time.Time
}

// Config configures click resolution.
type Config struct {
	// ClickTime is the maximum press-to-release time for a click.
	ClickTime time.Duration

	// DoubleClickTime is the maximum time between clicks for a double-click.
	DoubleClickTime time.Duration

	// DoubleClickDistance is the maximum distance between clicks for a double-click.
	DoubleClickDistance int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		ClickTime:           300 * time.Millisecond,
		DoubleClickTime:     400 * time.Millisecond,
		DoubleClickDistance: 1,
	}
}

// Resolver turns raw reports into masks.
type Resolver struct {
	mu     sync.Mutex
	config Config

	click *clickTracker
	press *pressTracker
}

// NewResolver creates a resolver with the given configuration.
func NewResolver(config Config) *Resolver {
	return &Resolver{
		config: config,
		click:  newClickTracker(config.DoubleClickTime, config.DoubleClickDistance),
		press:  &pressTracker{},
	}
}

// Resolve returns the mask bit for ev, restricted to enabled. It returns 0
// when the report maps to nothing enabled and should be dropped.
func (r *Resolver) Resolve(ev Event, enabled Mask) Mask {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	switch ev.Action {
	case ActionPress:
		return r.resolvePress(ev, enabled)
	case ActionRelease:
		return r.resolveRelease(ev, enabled)
	case ActionMove, ActionDrag:
		if enabled&Motion != 0 {
			return Motion
		}
	}
	return 0
}

func (r *Resolver) resolvePress(ev Event, enabled Mask) Mask {
	if ev.Button.IsScroll() {
		return Bit(ev.Button, KindUp) & enabled
	}
	if _, ok := slot(ev.Button); !ok {
		return 0
	}
	r.press.start(ev.Button, ev.Position, ev.Timestamp)
	return Bit(ev.Button, KindDown) & enabled
}

func (r *Resolver) resolveRelease(ev Event, enabled Mask) Mask {
	if !r.press.active {
		return 0
	}
	held := r.press.end()
	if ev.Button != ButtonNone && ev.Button != held.button {
		r.click.reset()
		return Bit(held.button, KindUp) & enabled
	}

	elapsed := ev.Timestamp.Sub(held.at)
	isClick := elapsed >= 0 && elapsed <= r.config.ClickTime &&
		ev.Position.Distance(held.pos) <= r.config.DoubleClickDistance
	if !isClick {
		r.click.reset()
		return Bit(held.button, KindUp) & enabled
	}

	count := r.click.recordClick(held.button, held.pos, ev.Timestamp)
	for kind := KindClick + Kind(count-1); kind >= KindClick; kind-- {
		if bit := Bit(held.button, kind); enabled&bit != 0 {
			return bit
		}
	}
	return Bit(held.button, KindUp) & enabled
}

// SetConfig replaces the click thresholds. Click counting starts over.
func (r *Resolver) SetConfig(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config = config
	r.click = newClickTracker(config.DoubleClickTime, config.DoubleClickDistance)
}

// Config returns the click thresholds in use.
func (r *Resolver) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config
}

// Reset clears all resolver state.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.click.reset()
	r.press.end()
}

// Pressed returns the button currently held, if any.
func (r *Resolver) Pressed() (Button, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.press.button, r.press.active
}

package mouse

import (
	"errors"
	"testing"
	"time"
)

func TestMaskLayout(t *testing.T) {
	tests := []struct {
		mask Mask
		want uint32
	}{
		{LeftUp, 1 << 0},
		{LeftTriple, 1 << 4},
		{MiddleUp, 1 << 5},
		{MiddleTriple, 1 << 9},
		{RightUp, 1 << 10},
		{RightTriple, 1 << 14},
		{ScrollUp, 1 << 16},
		{ScrollDown, 1 << 21},
	}

	for _, tt := range tests {
		if uint32(tt.mask) != tt.want {
			t.Errorf("%s = %#x, want %#x", tt.mask, uint32(tt.mask), tt.want)
		}
	}
	if AllButtons&Motion != 0 {
		t.Error("AllButtons should not include Motion")
	}
}

func TestBit(t *testing.T) {
	tests := []struct {
		button Button
		kind   Kind
		want   Mask
	}{
		{ButtonLeft, KindUp, LeftUp},
		{ButtonLeft, KindClick, LeftClick},
		{ButtonMiddle, KindDouble, MiddleDouble},
		{ButtonRight, KindTriple, RightTriple},
		{ButtonRight, KindDown, RightDown},
		{ButtonScrollUp, KindUp, ScrollUp},
		{ButtonScrollDown, KindDown, ScrollDown},
		{ButtonNone, KindClick, 0},
	}

	for _, tt := range tests {
		if got := Bit(tt.button, tt.kind); got != tt.want {
			t.Errorf("Bit(%s, %d) = %s, want %s", tt.button, tt.kind, got, tt.want)
		}
	}
}

func TestMaskString(t *testing.T) {
	tests := []struct {
		mask Mask
		want string
	}{
		{0, "none"},
		{LeftClick, "left-click"},
		{LeftClick | RightDouble, "left-click|right-double"},
		{Motion, "motion"},
		{Mask(1 << 15), "0x8000"},
	}

	for _, tt := range tests {
		if got := tt.mask.String(); got != tt.want {
			t.Errorf("Mask.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mask
	}{
		{"left-click", LeftClick},
		{"LEFT_CLICK", LeftClick},
		{"left-three", LeftTriple},
		{"left-click|right-double", LeftClick | RightDouble},
		{"scroll-up, scroll-down", ScrollUp | ScrollDown},
		{"all", AllButtons},
		{"all|motion", AllButtons | Motion},
		{"none", 0},
		{"", 0},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := Parse("left-wiggle"); !errors.Is(err, ErrUnknownMask) {
		t.Errorf("Parse(left-wiggle) error = %v, want ErrUnknownMask", err)
	}
}

func TestMaskHas(t *testing.T) {
	m := LeftClick | ScrollUp
	if !m.Has(LeftClick) || !m.Has(LeftClick|ScrollUp) {
		t.Error("Has should report set bits")
	}
	if m.Has(LeftDouble) || m.Has(0) {
		t.Error("Has should reject unset bits and the empty mask")
	}
}

func TestPositionDistance(t *testing.T) {
	tests := []struct {
		p1, p2   Position
		expected int
	}{
		{Position{0, 0}, Position{0, 0}, 0},
		{Position{0, 0}, Position{3, 4}, 7},
		{Position{5, 5}, Position{2, 1}, 7},
	}

	for _, tt := range tests {
		if got := tt.p1.Distance(tt.p2); got != tt.expected {
			t.Errorf("Distance(%v, %v) = %d, want %d", tt.p1, tt.p2, got, tt.expected)
		}
	}
}

func TestClickTrackerSequence(t *testing.T) {
	tracker := newClickTracker(400*time.Millisecond, 1)
	pos := Position{X: 10, Y: 5}
	now := time.Now()

	for i, want := range []int{1, 2, 3, 1} {
		got := tracker.recordClick(ButtonLeft, pos, now.Add(time.Duration(i)*100*time.Millisecond))
		if got != want {
			t.Errorf("click %d count = %d, want %d", i+1, got, want)
		}
	}
}

func TestClickTrackerResets(t *testing.T) {
	pos := Position{X: 10, Y: 5}
	now := time.Now()

	tests := []struct {
		name   string
		button Button
		pos    Position
		at     time.Time
	}{
		{"timeout", ButtonLeft, pos, now.Add(500 * time.Millisecond)},
		{"distance", ButtonLeft, Position{X: 40, Y: 5}, now.Add(100 * time.Millisecond)},
		{"other button", ButtonRight, pos, now.Add(100 * time.Millisecond)},
		{"clock skew", ButtonLeft, pos, now.Add(-100 * time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newClickTracker(400*time.Millisecond, 1)
			tracker.recordClick(ButtonLeft, pos, now)
			if got := tracker.recordClick(tt.button, tt.pos, tt.at); got != 1 {
				t.Errorf("count = %d, want 1", got)
			}
		})
	}
}

// click feeds a press and a quick release to r.
func click(r *Resolver, b Button, pos Position, at time.Time, enabled Mask) (down, up Mask) {
	down = r.Resolve(Event{Position: pos, Button: b, Action: ActionPress, Timestamp: at}, enabled)
	up = r.Resolve(Event{Position: pos, Action: ActionRelease, Timestamp: at.Add(50 * time.Millisecond)}, enabled)
	return down, up
}

func TestResolverClicks(t *testing.T) {
	r := NewResolver(DefaultConfig())
	pos := Position{X: 10, Y: 5}
	now := time.Now()

	want := []Mask{LeftClick, LeftDouble, LeftTriple}
	for i, w := range want {
		down, up := click(r, ButtonLeft, pos, now.Add(time.Duration(i)*150*time.Millisecond), AllButtons)
		if down != LeftDown {
			t.Errorf("press %d = %s, want left-down", i+1, down)
		}
		if up != w {
			t.Errorf("release %d = %s, want %s", i+1, up, w)
		}
	}
}

func TestResolverSlowReleaseIsUp(t *testing.T) {
	r := NewResolver(DefaultConfig())
	now := time.Now()
	pos := Position{X: 1, Y: 1}

	r.Resolve(Event{Position: pos, Button: ButtonRight, Action: ActionPress, Timestamp: now}, AllButtons)
	got := r.Resolve(Event{Position: pos, Action: ActionRelease, Timestamp: now.Add(time.Second)}, AllButtons)
	if got != RightUp {
		t.Errorf("slow release = %s, want right-up", got)
	}
	if _, held := r.Pressed(); held {
		t.Error("release should clear the held button")
	}
}

func TestResolverSetConfig(t *testing.T) {
	r := NewResolver(DefaultConfig())
	pos := Position{X: 2, Y: 2}
	now := time.Now()

	release := func(at time.Time) Mask {
		r.Resolve(Event{Position: pos, Button: ButtonLeft, Action: ActionPress, Timestamp: at}, AllButtons)
		return r.Resolve(Event{Position: pos, Action: ActionRelease, Timestamp: at.Add(500 * time.Millisecond)}, AllButtons)
	}

	if got := release(now); got != LeftUp {
		t.Fatalf("500ms release with defaults = %s, want left-up", got)
	}

	cfg := DefaultConfig()
	cfg.ClickTime = 2 * time.Second
	r.SetConfig(cfg)
	if r.Config() != cfg {
		t.Errorf("Config() = %+v, want %+v", r.Config(), cfg)
	}
	if got := release(now.Add(10 * time.Second)); got != LeftClick {
		t.Errorf("500ms release with 2s click time = %s, want left-click", got)
	}
}

func TestResolverFallsBackToEnabled(t *testing.T) {
	r := NewResolver(DefaultConfig())
	pos := Position{X: 3, Y: 3}
	now := time.Now()
	enabled := LeftClick | LeftUp

	click(r, ButtonLeft, pos, now, enabled)
	down, up := click(r, ButtonLeft, pos, now.Add(150*time.Millisecond), enabled)
	if down != 0 {
		t.Errorf("press with left-down disabled = %s, want none", down)
	}
	if up != LeftClick {
		t.Errorf("double click with only left-click enabled = %s, want left-click", up)
	}

	if _, up := click(NewResolver(DefaultConfig()), ButtonLeft, pos, now, LeftUp); up != LeftUp {
		t.Errorf("click with only left-up enabled = %s, want left-up", up)
	}
}

func TestResolverScrollAndMotion(t *testing.T) {
	r := NewResolver(DefaultConfig())
	pos := Position{X: 0, Y: 0}

	if got := r.Resolve(Event{Position: pos, Button: ButtonScrollDown, Action: ActionPress}, AllButtons); got != ScrollDown {
		t.Errorf("scroll down = %s", got)
	}
	if got := r.Resolve(Event{Position: pos, Action: ActionMove}, AllButtons); got != 0 {
		t.Errorf("motion without Motion enabled = %s, want none", got)
	}
	if got := r.Resolve(Event{Position: pos, Action: ActionDrag}, AllButtons|Motion); got != Motion {
		t.Errorf("drag with Motion enabled = %s, want motion", got)
	}
	if got := r.Resolve(Event{Position: pos, Action: ActionRelease}, AllButtons); got != 0 {
		t.Errorf("release without press = %s, want none", got)
	}
}

func TestResolverReset(t *testing.T) {
	r := NewResolver(DefaultConfig())
	r.Resolve(Event{Button: ButtonLeft, Action: ActionPress}, AllButtons)
	r.Reset()
	if _, held := r.Pressed(); held {
		t.Error("Reset should clear the held button")
	}
}

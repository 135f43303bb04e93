package backend

import (
	"io"
	"os"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
	"github.com/dshills/keymux/internal/input/mouse"
)

// eventBuffer is how many tcell events the pump holds ahead of the reader.
const eventBuffer = 128

// Terminal implements Backend on top of a tcell screen.
type Terminal struct {
	mu sync.Mutex

	screen   tcell.Screen
	out      io.Writer
	resolver *mouse.Resolver

	events chan tcell.Event
	wake   chan struct{}
	done   chan struct{}

	initialized bool
	closed      bool
	mask        mouse.Mask
	motion      bool
	pending     *MouseReport

	// flushed discards events stamped before the last FlushInput.
	flushed time.Time
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithOutput sets where WriteRaw sends escape sequences.
// The default is os.Stdout.
func WithOutput(w io.Writer) TerminalOption {
	return func(t *Terminal) {
		t.out = w
	}
}

// NewTerminal creates a terminal backend on the controlling tty.
func NewTerminal(opts ...TerminalOption) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(screen, opts...), nil
}

// NewTerminalWithScreen creates a terminal backend on an existing screen.
func NewTerminalWithScreen(screen tcell.Screen, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		screen:   screen,
		out:      os.Stdout,
		resolver: mouse.NewResolver(mouse.DefaultConfig()),
		events:   make(chan tcell.Event, eventBuffer),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}
	if t.closed {
		return ErrClosed
	}
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.DisableMouse()
	t.initialized = true

	go t.pump()
	return nil
}

func (t *Terminal) Initialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized
}

// pump moves screen events onto the events channel until the screen
// is finalized.
func (t *Terminal) pump() {
	defer close(t.events)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

func (t *Terminal) ReadUnit() (input.Unit, error) {
	if !t.Initialized() {
		return input.Unit{}, ErrNotInitialized
	}
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return input.Unit{}, ErrClosed
			}
			if t.stale(ev) {
				continue
			}
			if u, ok := t.translate(ev); ok {
				return u, nil
			}
		case <-t.wake:
			return input.Unit{}, ErrInterrupted
		case <-t.done:
			return input.Unit{}, ErrClosed
		}
	}
}

// stale reports whether ev arrived before the last FlushInput. Such an
// event was held by the pump or still queued inside tcell.
func (t *Terminal) stale(ev tcell.Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ev.When().Before(t.flushed)
}

// translate converts a tcell event to a unit. It returns false for
// events that produce nothing, such as a mouse report nobody asked for.
func (t *Terminal) translate(ev tcell.Event) (input.Unit, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return translateKey(e)
	case *tcell.EventMouse:
		return t.translateMouse(e)
	case *tcell.EventResize:
		return input.Key(key.Resize), true
	default:
		return input.Unit{}, false
	}
}

// translateKey folds a tcell key event into a curses-style unit.
func translateKey(e *tcell.EventKey) (input.Unit, bool) {
	mod := e.Modifiers()
	k := e.Key()

	// tcell numbers control chords from 64, so Ctrl+Q is KeyCtrlSpace+17.
	// Ctrl+H, I, M and [ arrive as Backspace, Tab, Enter and Escape.
	if k >= tcell.KeyCtrlSpace && k <= tcell.KeyCtrlUnderscore {
		c := rune(k - tcell.KeyCtrlSpace)
		if mod&tcell.ModAlt != 0 {
			return input.Key(key.Alt | key.Code(c)), true
		}
		return input.Char(c), true
	}

	switch k {
	case tcell.KeyRune:
		r := e.Rune()
		// Letters arrive as KeyCtrlA..Z; punctuation chords such as
		// Ctrl+_ from extended keyboard protocols stay runes.
		if mod&tcell.ModCtrl != 0 && r < unicode.MaxASCII {
			if c := unicode.ToUpper(r); c >= '@' && c <= '_' {
				return input.Char(c - '@'), true
			}
		}
		if mod&tcell.ModAlt != 0 {
			return input.Key(key.Alt | key.Code(r)), true
		}
		return input.Char(r), true
	case tcell.KeyEnter:
		return input.Char('\n'), true
	case tcell.KeyTab:
		return input.Char('\t'), true
	case tcell.KeyEscape:
		return input.Char(27), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return input.Key(key.Backspace), true
	case tcell.KeyDelete:
		return input.Key(key.Delete), true
	case tcell.KeyInsert:
		return input.Key(key.Insert), true
	case tcell.KeyHome:
		return input.Key(key.Home), true
	case tcell.KeyEnd:
		return input.Key(key.End), true
	case tcell.KeyPgUp:
		return input.Key(key.PageUp), true
	case tcell.KeyPgDn:
		return input.Key(key.PageDown), true
	case tcell.KeyUp:
		return input.Key(key.Up), true
	case tcell.KeyDown:
		return input.Key(key.Down), true
	case tcell.KeyLeft:
		return input.Key(key.Left), true
	case tcell.KeyRight:
		return input.Key(key.Right), true
	default:
		if k >= tcell.KeyF1 && k <= tcell.KeyF64 {
			return input.Key(key.Fn(int(k-tcell.KeyF1) + 1)), true
		}
	}
	return input.Unit{}, false
}

// translateMouse resolves a tcell mouse report against the current mask.
// A resolved report is parked for ResolveMouse and announced with the
// mouse sentinel.
func (t *Terminal) translateMouse(e *tcell.EventMouse) (input.Unit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	enabled := t.mask
	if t.motion {
		enabled |= mouse.Motion
	}
	if enabled == 0 {
		return input.Unit{}, false
	}

	col, row := e.Position()
	ev := mouse.Event{
		Position:  mouse.Position{X: col, Y: row},
		Timestamp: e.When(),
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	held, pressed := t.resolver.Pressed()
	button := buttonOf(e.Buttons())
	switch {
	case button == mouse.ButtonNone && pressed:
		ev.Action = mouse.ActionRelease
	case button == mouse.ButtonNone:
		ev.Action = mouse.ActionMove
	case pressed && button == held:
		ev.Action = mouse.ActionDrag
		ev.Button = button
	default:
		ev.Action = mouse.ActionPress
		ev.Button = button
	}

	m := t.resolver.Resolve(ev, enabled)
	if m == 0 {
		return input.Unit{}, false
	}
	t.pending = &MouseReport{Row: row, Col: col, Mask: m}
	return input.Mouse, true
}

// buttonOf picks the button a tcell report is about.
func buttonOf(b tcell.ButtonMask) mouse.Button {
	switch {
	case b&tcell.ButtonPrimary != 0:
		return mouse.ButtonLeft
	case b&tcell.ButtonMiddle != 0:
		return mouse.ButtonMiddle
	case b&tcell.ButtonSecondary != 0:
		return mouse.ButtonRight
	case b&tcell.WheelUp != 0:
		return mouse.ButtonScrollUp
	case b&tcell.WheelDown != 0:
		return mouse.ButtonScrollDown
	default:
		return mouse.ButtonNone
	}
}

func (t *Terminal) ResolveMouse() (int, int, mouse.Mask, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return 0, 0, 0, ErrNoMouseEvent
	}
	r := *t.pending
	t.pending = nil
	return r.Row, r.Col, r.Mask, nil
}

func (t *Terminal) SetMouseMask(buttons mouse.Mask, motion bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}
	t.mask = buttons & mouse.AllButtons
	t.motion = motion

	if t.mask == 0 && !motion {
		t.screen.DisableMouse()
		t.resolver.Reset()
		return nil
	}
	flags := tcell.MouseButtonEvents | tcell.MouseDragEvents
	if motion {
		flags |= tcell.MouseMotionEvents
	}
	t.screen.EnableMouse(flags)
	return nil
}

func (t *Terminal) SetMouseConfig(cfg mouse.Config) {
	t.resolver.SetConfig(cfg)
}

// FlushInput drops buffered events. Events the pump or tcell still hold
// are dropped by ReadUnit through their timestamp.
func (t *Terminal) FlushInput() {
	t.mu.Lock()
	t.pending = nil
	t.flushed = time.Now()
	t.mu.Unlock()

	for {
		select {
		case _, ok := <-t.events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (t *Terminal) Interrupt() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Terminal) WriteRaw(seq string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := io.WriteString(t.out, seq)
	return err
}

func (t *Terminal) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		t.screen.Show()
	}
}

func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
	if t.initialized {
		t.screen.Fini()
	}
}

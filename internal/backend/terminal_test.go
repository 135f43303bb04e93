package backend

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
	"github.com/dshills/keymux/internal/input/mouse"
)

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen, *bytes.Buffer) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	out := &bytes.Buffer{}
	term := NewTerminalWithScreen(screen, WithOutput(out))
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(term.Shutdown)
	return term, screen, out
}

// reader reads a terminal from one goroutine for the whole test, so a
// timed-out read never races a later one for the next event.
type reader struct {
	units chan readResult
}

type readResult struct {
	u   input.Unit
	err error
}

func newReader(t *testing.T, term *Terminal) *reader {
	t.Helper()
	r := &reader{units: make(chan readResult, eventBuffer)}
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })

	go func() {
		for {
			u, err := term.ReadUnit()
			if err == nil && u == input.Key(key.Resize) {
				continue
			}
			select {
			case r.units <- readResult{u, err}:
			case <-stop:
				return
			}
			if errors.Is(err, ErrClosed) {
				return
			}
		}
	}()
	return r
}

// next returns the next unit, skipping resize notifications.
func (r *reader) next(t *testing.T) input.Unit {
	t.Helper()
	select {
	case res := <-r.units:
		if res.err != nil {
			t.Fatalf("ReadUnit: %v", res.err)
		}
		return res.u
	case <-time.After(2 * time.Second):
		t.Fatal("ReadUnit timed out")
	}
	return input.Unit{}
}

func TestTerminal_InitIdempotent(t *testing.T) {
	term, _, _ := newSimTerminal(t)
	if err := term.Init(); err != nil {
		t.Errorf("second Init: %v", err)
	}
	if !term.Initialized() {
		t.Error("Initialized() = false after Init")
	}
}

func TestTerminal_ReadBeforeInit(t *testing.T) {
	term := NewTerminalWithScreen(tcell.NewSimulationScreen("UTF-8"))
	if _, err := term.ReadUnit(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ReadUnit before Init = %v, want ErrNotInitialized", err)
	}
	if err := term.SetMouseMask(mouse.AllButtons, true); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetMouseMask before Init = %v, want ErrNotInitialized", err)
	}
}

func TestTerminal_Keys(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		mod  tcell.ModMask
		want input.Unit
	}{
		{"rune", tcell.KeyRune, 'a', tcell.ModNone, input.Char('a')},
		{"wide rune", tcell.KeyRune, 'é', tcell.ModNone, input.Char('é')},
		{"enter", tcell.KeyEnter, 0, tcell.ModNone, input.Char('\n')},
		{"tab", tcell.KeyTab, 0, tcell.ModNone, input.Char('\t')},
		{"escape", tcell.KeyEscape, 0, tcell.ModNone, input.Char(27)},
		{"ctrl-q", tcell.KeyCtrlQ, 0, tcell.ModCtrl, input.Char(17)},
		{"ctrl-q from raw byte", tcell.KeyCtrlSpace + 0x11, 0, tcell.ModCtrl, input.Char(17)},
		{"ctrl rune", tcell.KeyRune, 'q', tcell.ModCtrl, input.Char(17)},
		{"ctrl-a", tcell.KeyCtrlA, 0, tcell.ModCtrl, input.Char(1)},
		{"ctrl-z", tcell.KeyCtrlZ, 0, tcell.ModCtrl, input.Char(26)},
		{"ctrl-space", tcell.KeyCtrlSpace, 0, tcell.ModCtrl, input.Char(0)},
		{"ctrl-underscore", tcell.KeyCtrlUnderscore, 0, tcell.ModCtrl, input.Char(31)},
		{"ctrl punctuation rune", tcell.KeyRune, '_', tcell.ModCtrl, input.Char(31)},
		{"alt ctrl-x", tcell.KeyCtrlX, 0, tcell.ModCtrl | tcell.ModAlt, input.Key(key.Alt | 24)},
		{"alt rune", tcell.KeyRune, 'x', tcell.ModAlt, input.Key(key.Alt | 'x')},
		{"backspace", tcell.KeyBackspace2, 0, tcell.ModNone, input.Key(key.Backspace)},
		// tcell parses a raw Ctrl+H byte as KeyBackspace.
		{"ctrl-h byte", tcell.KeyBackspace, 0, tcell.ModNone, input.Key(key.Backspace)},
		{"up", tcell.KeyUp, 0, tcell.ModNone, input.Key(key.Up)},
		{"down", tcell.KeyDown, 0, tcell.ModNone, input.Key(key.Down)},
		{"left", tcell.KeyLeft, 0, tcell.ModNone, input.Key(key.Left)},
		{"right", tcell.KeyRight, 0, tcell.ModNone, input.Key(key.Right)},
		{"home", tcell.KeyHome, 0, tcell.ModNone, input.Key(key.Home)},
		{"end", tcell.KeyEnd, 0, tcell.ModNone, input.Key(key.End)},
		{"delete", tcell.KeyDelete, 0, tcell.ModNone, input.Key(key.Delete)},
		{"page up", tcell.KeyPgUp, 0, tcell.ModNone, input.Key(key.PageUp)},
		{"f5", tcell.KeyF5, 0, tcell.ModNone, input.Key(key.Fn(5))},
	}

	term, screen, _ := newSimTerminal(t)
	r := newReader(t, term)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen.InjectKey(tt.key, tt.r, tt.mod)
			if got := r.next(t); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTerminal_MouseClick(t *testing.T) {
	term, screen, _ := newSimTerminal(t)
	r := newReader(t, term)
	if err := term.SetMouseMask(mouse.LeftDown|mouse.LeftClick, false); err != nil {
		t.Fatalf("SetMouseMask: %v", err)
	}

	screen.InjectMouse(3, 5, tcell.ButtonPrimary, tcell.ModNone)
	if u := r.next(t); u != input.Mouse {
		t.Fatalf("press unit = %v, want mouse sentinel", u)
	}
	row, col, m, err := term.ResolveMouse()
	if err != nil {
		t.Fatalf("ResolveMouse: %v", err)
	}
	if row != 5 || col != 3 || m != mouse.LeftDown {
		t.Errorf("press = (%d, %d, %v), want (5, 3, LeftDown)", row, col, m)
	}

	screen.InjectMouse(3, 5, tcell.ButtonNone, tcell.ModNone)
	if u := r.next(t); u != input.Mouse {
		t.Fatalf("release unit = %v, want mouse sentinel", u)
	}
	if _, _, m, _ = term.ResolveMouse(); m != mouse.LeftClick {
		t.Errorf("release mask = %v, want LeftClick", m)
	}

	if _, _, _, err := term.ResolveMouse(); !errors.Is(err, ErrNoMouseEvent) {
		t.Errorf("second ResolveMouse = %v, want ErrNoMouseEvent", err)
	}
}

func TestTerminal_MouseFilteredByMask(t *testing.T) {
	term, screen, _ := newSimTerminal(t)
	r := newReader(t, term)
	if err := term.SetMouseMask(mouse.RightDown, false); err != nil {
		t.Fatalf("SetMouseMask: %v", err)
	}

	screen.InjectMouse(1, 1, tcell.ButtonPrimary, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)

	if got := r.next(t); got != input.Char('z') {
		t.Errorf("got %v, want 'z' (left press should be dropped)", got)
	}
}

func TestTerminal_MouseConfig(t *testing.T) {
	term, screen, _ := newSimTerminal(t)
	r := newReader(t, term)
	if err := term.SetMouseMask(mouse.LeftUp|mouse.LeftClick, false); err != nil {
		t.Fatalf("SetMouseMask: %v", err)
	}
	cfg := mouse.DefaultConfig()
	cfg.ClickTime = time.Nanosecond
	term.SetMouseConfig(cfg)

	screen.InjectMouse(1, 1, tcell.ButtonPrimary, tcell.ModNone)
	time.Sleep(time.Millisecond)
	screen.InjectMouse(1, 1, tcell.ButtonNone, tcell.ModNone)

	if u := r.next(t); u != input.Mouse {
		t.Fatalf("release unit = %v, want mouse sentinel", u)
	}
	if _, _, m, _ := term.ResolveMouse(); m != mouse.LeftUp {
		t.Errorf("release past the click time = %v, want left-up", m)
	}
}

func TestTerminal_FlushInputDropsQueued(t *testing.T) {
	term, screen, _ := newSimTerminal(t)
	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'b', tcell.ModNone)
	time.Sleep(10 * time.Millisecond)
	term.FlushInput()
	screen.InjectKey(tcell.KeyRune, 'c', tcell.ModNone)

	r := newReader(t, term)
	if got := r.next(t); got != input.Char('c') {
		t.Errorf("first unit after flush = %v, want 'c'", got)
	}
}

func TestTerminal_Interrupt(t *testing.T) {
	term, _, _ := newSimTerminal(t)

	done := make(chan error, 1)
	go func() {
		for {
			u, err := term.ReadUnit()
			if err == nil && u == input.Key(key.Resize) {
				continue
			}
			done <- err
			return
		}
	}()

	time.Sleep(10 * time.Millisecond)
	term.Interrupt()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Errorf("ReadUnit = %v, want ErrInterrupted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Interrupt did not wake ReadUnit")
	}
}

func TestTerminal_WriteRaw(t *testing.T) {
	term, _, out := newSimTerminal(t)
	if err := term.WriteRaw(MotionOn); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if out.String() != MotionOn {
		t.Errorf("output = %q, want %q", out.String(), MotionOn)
	}
}

func TestTerminal_Shutdown(t *testing.T) {
	term, _, _ := newSimTerminal(t)
	term.Shutdown()
	term.Shutdown()

	// Events already pumped may drain first.
	var err error
	for i := 0; i < eventBuffer+1 && err == nil; i++ {
		_, err = term.ReadUnit()
	}
	if !errors.Is(err, ErrClosed) {
		t.Errorf("ReadUnit after Shutdown = %v, want ErrClosed", err)
	}
}

package event

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
	"github.com/dshills/keymux/internal/input/mouse"
)

// recorder collects listener calls in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) key(name string) KeyListener {
	return func(u input.Unit) error {
		r.add(name)
		return nil
	}
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func equal(a, b []string) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistry_ControlFold(t *testing.T) {
	r := NewRegistry()
	rec := &recorder{}
	r.OnKey(key.Ctrl|key.Q, rec.key("quit"))

	if r.Count(ChannelKey, key.Code(17)) != 1 {
		t.Fatalf("expected listener stored under canonical code 17")
	}

	for code := key.Code(0); code < 600; code++ {
		n, err := r.DispatchKey(input.Char(rune(code)))
		if err != nil {
			t.Fatalf("DispatchKey(%d) error = %v", code, err)
		}
		want := 0
		if code == 17 {
			want = 1
		}
		if n != want {
			t.Errorf("DispatchKey(%d) invoked %d listeners, want %d", code, n, want)
		}
	}
	if !equal(rec.got(), []string{"quit"}) {
		t.Errorf("calls = %v, want [quit]", rec.got())
	}
}

func TestRegistry_DispatchOrder(t *testing.T) {
	r := NewRegistry()
	rec := &recorder{}
	r.OnKey(key.Enter, rec.key("L1"))
	r.OnKey(key.Enter, rec.key("L2"))
	r.OnKey(key.Enter, rec.key("L3"))

	if _, err := r.DispatchKey(input.Char('\n')); err != nil {
		t.Fatal(err)
	}
	if !equal(rec.got(), []string{"L1", "L2", "L3"}) {
		t.Errorf("calls = %v, want [L1 L2 L3]", rec.got())
	}
}

func TestRegistry_UnregisterRemovesOne(t *testing.T) {
	r := NewRegistry()
	rec := &recorder{}
	fn := rec.key("L")
	first := r.OnKey('a', fn)
	r.OnKey('a', fn)

	if _, err := r.DispatchKey(input.Char('a')); err != nil {
		t.Fatal(err)
	}
	if len(rec.got()) != 2 {
		t.Fatalf("duplicate registration should fire twice, got %d", len(rec.got()))
	}

	if err := r.OffKey('a', first); err != nil {
		t.Fatalf("OffKey error = %v", err)
	}
	if _, err := r.DispatchKey(input.Char('a')); err != nil {
		t.Fatal(err)
	}
	if len(rec.got()) != 3 {
		t.Errorf("after one OffKey listener should fire once, total calls = %d", len(rec.got()))
	}
}

func TestRegistry_UnregisterNotFound(t *testing.T) {
	r := NewRegistry()

	err := r.OffKey('x', ListenerID("missing"))
	var nf *NotFoundError
	if !errors.As(err, &nf) || !nf.NoListeners {
		t.Fatalf("OffKey on empty event error = %v, want NotFoundError with NoListeners", err)
	}

	id := r.OnMouse(mouse.LeftClick, func(int, int, mouse.Mask) error { return nil })
	if err := r.OffMouse(mouse.LeftClick, ListenerID("other")); !errors.Is(err, ErrNotFound) {
		t.Errorf("OffMouse unknown id error = %v, want ErrNotFound", err)
	}
	if err := r.OffMouse(mouse.LeftClick, id); err != nil {
		t.Errorf("OffMouse error = %v", err)
	}
	if err := r.OffMouse(mouse.LeftClick, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second OffMouse error = %v, want ErrNotFound", err)
	}
	if err := r.OffChar(input.Char('z'), id); !errors.Is(err, ErrNotFound) {
		t.Errorf("OffChar error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_OffKeyCanonicalizes(t *testing.T) {
	r := NewRegistry()
	id := r.OnKey(key.Ctrl|key.A, func(input.Unit) error { return nil })

	if err := r.OffKey(key.Code(1), id); err != nil {
		t.Errorf("OffKey with the folded code should find the listener: %v", err)
	}
}

func TestRegistry_FailFast(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		dispatch func(r *Registry, rec *recorder) (int, error)
		channel  Channel
	}{
		{
			name: "key",
			dispatch: func(r *Registry, rec *recorder) (int, error) {
				r.OnKey('k', rec.key("L1"))
				r.OnKey('k', func(input.Unit) error { return boom })
				r.OnKey('k', rec.key("L3"))
				return r.DispatchKey(input.Char('k'))
			},
			channel: ChannelKey,
		},
		{
			name: "mouse",
			dispatch: func(r *Registry, rec *recorder) (int, error) {
				r.OnMouse(mouse.LeftClick, func(int, int, mouse.Mask) error { rec.add("L1"); return nil })
				r.OnMouse(mouse.LeftClick, func(int, int, mouse.Mask) error { return boom })
				r.OnMouse(mouse.LeftClick, func(int, int, mouse.Mask) error { rec.add("L3"); return nil })
				return r.DispatchMouse(1, 2, mouse.LeftClick)
			},
			channel: ChannelMouse,
		},
		{
			name: "char",
			dispatch: func(r *Registry, rec *recorder) (int, error) {
				u := input.Char('c')
				r.OnChar(u, func(input.Unit) error { rec.add("L1"); return nil })
				r.OnChar(u, func(input.Unit) error { return boom })
				r.OnChar(u, func(input.Unit) error { rec.add("L3"); return nil })
				return r.DispatchChar(u)
			},
			channel: ChannelChar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			n, err := tt.dispatch(NewRegistry(), rec)
			if n != 1 {
				t.Errorf("completed = %d, want 1", n)
			}
			var le *ListenerError
			if !errors.As(err, &le) {
				t.Fatalf("error = %v, want ListenerError", err)
			}
			if le.Channel != tt.channel {
				t.Errorf("channel = %s, want %s", le.Channel, tt.channel)
			}
			if !errors.Is(err, boom) || !errors.Is(err, ErrListenerFailed) {
				t.Errorf("error should wrap the listener error and match ErrListenerFailed")
			}
			if !equal(rec.got(), []string{"L1"}) {
				t.Errorf("calls = %v, want [L1]", rec.got())
			}
		})
	}
}

func TestRegistry_PanicRecovered(t *testing.T) {
	r := NewRegistry()
	r.OnKey('p', func(input.Unit) error { panic("listener bug") })

	_, err := r.DispatchKey(input.Char('p'))
	if !errors.Is(err, ErrListenerPanic) {
		t.Fatalf("error = %v, want ErrListenerPanic", err)
	}
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "listener bug" || pe.Stack == "" {
		t.Errorf("PanicError = %+v", pe)
	}
}

func TestRegistry_MouseExactMask(t *testing.T) {
	r := NewRegistry()
	var gotRow, gotCol int
	var gotMask mouse.Mask
	r.OnMouse(mouse.LeftClick, func(row, col int, m mouse.Mask) error {
		gotRow, gotCol, gotMask = row, col, m
		return nil
	})
	doubles := 0
	r.OnMouse(mouse.LeftDouble, func(int, int, mouse.Mask) error { doubles++; return nil })

	n, err := r.DispatchMouse(5, 10, mouse.LeftClick)
	if err != nil || n != 1 {
		t.Fatalf("DispatchMouse = %d, %v", n, err)
	}
	if gotRow != 5 || gotCol != 10 || gotMask != mouse.LeftClick {
		t.Errorf("listener got (%d, %d, %s)", gotRow, gotCol, gotMask)
	}
	if doubles != 0 {
		t.Error("left-double listener should not fire for left-click")
	}
	if n, _ := r.DispatchMouse(5, 10, mouse.LeftClick|mouse.LeftDouble); n != 0 {
		t.Error("combined masks should not match single-bit registrations")
	}
}

func TestRegistry_MutationDuringDispatch(t *testing.T) {
	r := NewRegistry()
	rec := &recorder{}
	var second ListenerID
	r.OnKey('m', func(u input.Unit) error {
		rec.add("first")
		r.OnKey('m', rec.key("late"))
		return r.OffKey('m', second)
	})
	second = r.OnKey('m', rec.key("second"))

	if _, err := r.DispatchKey(input.Char('m')); err != nil {
		t.Fatal(err)
	}
	if !equal(rec.got(), []string{"first", "second"}) {
		t.Errorf("calls = %v, want the snapshot [first second]", rec.got())
	}
}

func TestRegistry_MissingEventIsNoop(t *testing.T) {
	r := NewRegistry()
	for _, fn := range []func() (int, error){
		func() (int, error) { return r.DispatchKey(input.Key(key.Up)) },
		func() (int, error) { return r.DispatchMouse(0, 0, mouse.ScrollUp) },
		func() (int, error) { return r.DispatchChar(input.Char('q')) },
	} {
		if n, err := fn(); n != 0 || err != nil {
			t.Errorf("dispatch on empty registry = %d, %v", n, err)
		}
	}
}

func TestRegistry_ClearAndLen(t *testing.T) {
	r := NewRegistry()
	r.OnKey('a', func(input.Unit) error { return nil })
	r.OnMouse(mouse.Motion, func(int, int, mouse.Mask) error { return nil })
	r.OnChar(input.Char('a'), func(input.Unit) error { return nil })

	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", r.Len())
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := r.OnChar(input.Char('x'), func(input.Unit) error { return nil })
				_ = r.OffChar(input.Char('x'), id)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = r.DispatchChar(input.Char('x'))
			}
		}()
	}
	wg.Wait()

	if r.Count(ChannelChar, input.Char('x')) != 0 {
		t.Errorf("expected all listeners removed")
	}
}

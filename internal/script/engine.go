package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keymux/internal/event"
	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
	"github.com/dshills/keymux/internal/input/mouse"
	"github.com/dshills/keymux/internal/logging"
)

// DefaultTimeout bounds a script load or a single listener call.
const DefaultTimeout = time.Second

// ErrClosed is returned by a closed Engine.
var ErrClosed = errors.New("script engine closed")

// binding is a listener registered by a script.
type binding struct {
	ch   event.Channel
	code key.Code
	mask mouse.Mask
	unit input.Unit
	id   event.ListenerID
}

// Engine runs Lua scripts that register listeners on a registry.
//
// A gopher-lua state is not goroutine-safe. Loads and listener calls are
// serialized by the engine's mutex.
type Engine struct {
	mu sync.Mutex

	L        *lua.LState
	registry *event.Registry
	logger   *logging.Logger
	stop     func()
	timeout  time.Duration

	scripts  []string
	bindings []binding
	closed   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStop sets what the Lua stop() function calls.
func WithStop(fn func()) Option {
	return func(e *Engine) {
		e.stop = fn
	}
}

// WithLogger sets the logger used by log() and print().
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithComponent("script")
		}
	}
}

// WithTimeout bounds each load and listener call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates an engine registering into reg.
func New(reg *event.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		logger:   logging.Nop(),
		stop:     func() {},
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.L = e.newState()
	return e
}

// Load runs script files. Each path is remembered for Reload even when
// it fails, so a fixed script is picked up on the next reload.
func (e *Engine) Load(paths ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	var errs []error
	for _, p := range paths {
		e.scripts = append(e.scripts, p)
		if err := e.run(func() error { return e.L.DoFile(p) }); err != nil {
			errs = append(errs, fmt.Errorf("loading %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// LoadString runs a chunk of Lua. It is not replayed by Reload.
func (e *Engine) LoadString(name, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	if err := e.run(func() error {
		return e.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	}); err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	return nil
}

// Reload removes every listener the scripts registered, discards the Lua
// state and runs the script files again in a fresh one.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	removed := e.unbindAll()
	e.L.Close()
	e.L = e.newState()

	var errs []error
	for _, p := range e.scripts {
		if err := e.run(func() error { return e.L.DoFile(p) }); err != nil {
			errs = append(errs, fmt.Errorf("loading %s: %w", p, err))
		}
	}
	e.logger.Info("reloaded %d scripts, %d listeners replaced by %d", len(e.scripts), removed, len(e.bindings))
	return errors.Join(errs...)
}

// Close removes every listener and releases the Lua state.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.unbindAll()
	e.L.Close()
	e.closed = true
	return nil
}

// Bindings returns how many listeners scripts currently hold.
func (e *Engine) Bindings() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bindings)
}

// Scripts returns the files loaded so far.
func (e *Engine) Scripts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.scripts...)
}

// run executes fn with the call timeout applied to the state.
func (e *Engine) run(fn func() error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// call invokes a script listener. Listeners left over from a state that
// Reload replaced do nothing.
func (e *Engine) call(st *lua.LState, fn *lua.LFunction, args ...lua.LValue) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.L != st {
		return nil
	}
	return e.run(func() error {
		return st.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	})
}

// unbindAll removes every registered listener and returns how many.
func (e *Engine) unbindAll() int {
	n := len(e.bindings)
	for _, b := range e.bindings {
		if err := e.unbind(b); err != nil {
			e.logger.Warn("removing listener %s: %v", b.id, err)
		}
	}
	e.bindings = nil
	return n
}

func (e *Engine) unbind(b binding) error {
	switch b.ch {
	case event.ChannelKey:
		return e.registry.OffKey(b.code, b.id)
	case event.ChannelMouse:
		return e.registry.OffMouse(b.mask, b.id)
	default:
		return e.registry.OffChar(b.unit, b.id)
	}
}

package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keymux/internal/event"
	"github.com/dshills/keymux/internal/input"
	"github.com/dshills/keymux/internal/input/key"
	"github.com/dshills/keymux/internal/input/mouse"
)

// newState creates a sandboxed state with the keymux API installed.
func (e *Engine) newState() *lua.LState {
	L := newSandbox(e.logger)

	L.SetGlobal("onkey", L.NewFunction(e.luaOnKey))
	L.SetGlobal("onchar", L.NewFunction(e.luaOnChar))
	L.SetGlobal("onmouse", L.NewFunction(e.luaOnMouse))
	L.SetGlobal("off", L.NewFunction(e.luaOff))
	L.SetGlobal("stop", L.NewFunction(func(*lua.LState) int {
		e.stop()
		return 0
	}))
	L.SetGlobal("log", L.NewFunction(e.luaLog))

	L.SetGlobal("key", keyTable(L))
	L.SetGlobal("mouse", mouseTable(L))
	return L
}

// keySpec reads a key code argument: a name or a number.
func keySpec(L *lua.LState, n int) key.Code {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		return key.Code(int64(v))
	case lua.LString:
		c, err := key.Parse(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return c
	default:
		L.ArgError(n, "key name or code expected")
		return key.None
	}
}

func (e *Engine) luaOnKey(L *lua.LState) int {
	code := keySpec(L, 1)
	fn := L.CheckFunction(2)

	id := e.registry.OnKey(code, func(u input.Unit) error {
		return e.call(L, fn, lua.LNumber(u.Ordinal()), unitString(u))
	})
	e.bindings = append(e.bindings, binding{ch: event.ChannelKey, code: code, id: id})
	L.Push(lua.LString(id))
	return 1
}

func (e *Engine) luaOnChar(L *lua.LState) int {
	u := input.FromCode(keySpec(L, 1))
	fn := L.CheckFunction(2)

	id := e.registry.OnChar(u, func(u input.Unit) error {
		return e.call(L, fn, unitString(u), lua.LNumber(u.Ordinal()))
	})
	e.bindings = append(e.bindings, binding{ch: event.ChannelChar, unit: u, id: id})
	L.Push(lua.LString(id))
	return 1
}

func (e *Engine) luaOnMouse(L *lua.LState) int {
	var m mouse.Mask
	switch v := L.Get(1).(type) {
	case lua.LNumber:
		m = mouse.Mask(uint32(v))
	case lua.LString:
		parsed, err := mouse.Parse(string(v))
		if err != nil {
			L.ArgError(1, err.Error())
		}
		m = parsed
	default:
		L.ArgError(1, "mouse mask name or number expected")
	}
	fn := L.CheckFunction(2)

	id := e.registry.OnMouse(m, func(row, col int, m mouse.Mask) error {
		return e.call(L, fn, lua.LNumber(row), lua.LNumber(col), lua.LNumber(m))
	})
	e.bindings = append(e.bindings, binding{ch: event.ChannelMouse, mask: m, id: id})
	L.Push(lua.LString(id))
	return 1
}

// luaOff removes a listener by id. It returns true when one was removed.
func (e *Engine) luaOff(L *lua.LState) int {
	id := event.ListenerID(L.CheckString(1))
	for i, b := range e.bindings {
		if b.id != id {
			continue
		}
		if err := e.unbind(b); err != nil {
			L.RaiseError("%v", err)
		}
		e.bindings = append(e.bindings[:i], e.bindings[i+1:]...)
		L.Push(lua.LTrue)
		return 1
	}
	L.Push(lua.LFalse)
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	format := L.CheckString(1)
	args := make([]any, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		switch v := L.Get(i).(type) {
		case lua.LNumber:
			if float64(v) == float64(int64(v)) {
				args = append(args, int64(v))
			} else {
				args = append(args, float64(v))
			}
		default:
			args = append(args, v.String())
		}
	}
	e.logger.Info("%s", fmt.Sprintf(format, args...))
	return 0
}

// unitString returns the character of a printable unit, or "".
func unitString(u input.Unit) lua.LString {
	if !u.IsPrintable() {
		return ""
	}
	return lua.LString(string(u.Rune()))
}

func keyTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	for name, c := range map[string]key.Code{
		"Enter":     key.Enter,
		"Escape":    key.Escape,
		"Tab":       key.Tab,
		"Space":     key.Space,
		"Up":        key.Up,
		"Down":      key.Down,
		"Left":      key.Left,
		"Right":     key.Right,
		"Home":      key.Home,
		"End":       key.End,
		"Backspace": key.Backspace,
		"Delete":    key.Delete,
		"Insert":    key.Insert,
		"PageUp":    key.PageUp,
		"PageDown":  key.PageDown,
		"Resize":    key.Resize,
		"Ctrl":      key.Ctrl,
		"Alt":       key.Alt,
	} {
		t.RawSetString(name, lua.LNumber(c))
	}
	t.RawSetString("F", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(key.Fn(L.CheckInt(1))))
		return 1
	}))
	t.RawSetString("name", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(key.Code(L.CheckInt64(1)).String()))
		return 1
	}))
	return t
}

func mouseTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	for name, m := range map[string]mouse.Mask{
		"LeftUp":       mouse.LeftUp,
		"LeftDown":     mouse.LeftDown,
		"LeftClick":    mouse.LeftClick,
		"LeftDouble":   mouse.LeftDouble,
		"LeftTriple":   mouse.LeftTriple,
		"MiddleUp":     mouse.MiddleUp,
		"MiddleDown":   mouse.MiddleDown,
		"MiddleClick":  mouse.MiddleClick,
		"MiddleDouble": mouse.MiddleDouble,
		"MiddleTriple": mouse.MiddleTriple,
		"RightUp":      mouse.RightUp,
		"RightDown":    mouse.RightDown,
		"RightClick":   mouse.RightClick,
		"RightDouble":  mouse.RightDouble,
		"RightTriple":  mouse.RightTriple,
		"ScrollUp":     mouse.ScrollUp,
		"ScrollDown":   mouse.ScrollDown,
		"Motion":       mouse.Motion,
	} {
		t.RawSetString(name, lua.LNumber(m))
	}
	t.RawSetString("name", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(mouse.Mask(uint32(L.CheckInt64(1))).String()))
		return 1
	}))
	return t
}

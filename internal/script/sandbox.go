package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keymux/internal/logging"
)

// removedGlobals are base library functions that reach the file system or
// load code.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"collectgarbage",
	"getfenv",
	"setfenv",
}

// newSandbox creates a Lua state with only safe libraries. print writes
// to logger.
func newSandbox(logger *logging.Logger) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// io, os, debug, package and channel stay closed.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info("%s", strings.Join(parts, "\t"))
		return 0
	}))
	return L
}

// Package script binds listeners written in Lua.
//
// Scripts run in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. They register listeners through these
// globals:
//
//	onkey(spec, fn)    -- fn(code, char) on the key channel
//	onchar(spec, fn)   -- fn(char, code) on the char channel
//	onmouse(spec, fn)  -- fn(row, col, mask) on the mouse channel
//	off(id)            -- remove a listener by the id on* returned
//	stop()             -- stop the multiplexer
//	log(fmt, ...)      -- write to the keymux log
//
// Specs are key names ("Ctrl+Q", "<C-x>", "Enter", "a") or mouse mask
// names ("left-click|right-click"); numbers are used as is. The key and
// mouse tables hold the named constants:
//
//	onkey(key.Ctrl + string.byte("Q"), function() stop() end)
//	onmouse(mouse.LeftDouble, function(row, col) log("double at %d,%d", row, col) end)
//
// A Lua error raised by a listener fails the dispatch like any other
// listener error.
package script

// Package config loads keymux settings.
//
// Settings come from three places, later ones overriding earlier:
//
//  1. Built-in defaults (Default).
//  2. A TOML or YAML file, chosen by extension.
//  3. KEYMUX_* environment variables.
//
// A file looks like:
//
//	watch = true
//	exceptions = ["Enter", "Backspace", "Ctrl+H"]
//	scripts = ["~/.config/keymux/bindings.lua"]
//
//	[mouse]
//	buttons = "left-click|left-double|scroll-up|scroll-down"
//	motion = false
//
//	[click]
//	time = "300ms"
//	double_time = "400ms"
//	distance = 1
//
//	[log]
//	level = "debug"
//	file = "/tmp/keymux.log"
//
// Watcher reports edits to the file and to scripts so they can be
// reloaded while the multiplexer runs.
package config

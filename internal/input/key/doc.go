// Package key defines the key taxonomy shared by registration and dispatch.
//
// A key is identified by a Code: printable characters use their ordinal
// value, keys without a character use curses-compatible codes above 255.
//
//   - Code: a key identifier (Enter, Escape, Up, 'a', ...)
//   - Ctrl, Alt: modifier masks combinable with any Code by bitwise OR
//   - Canonical: the control fold applied before every registry lookup
//
// # Control Folding
//
// A control chord registered as Ctrl|A is stored under (A & 0x7F) - 64,
// which is 1, the byte a terminal sends for Ctrl+A. The same function runs
// on the dispatch path, so a raw 0x01 read from the terminal finds it.
// Use uppercase letters with Ctrl; Ctrl|'a' folds to 33.
//
// # Key Specifications
//
// Parse accepts human-readable specifications for config files and scripts:
//
//   - Simple keys: "a", "A", "1", "Enter", "Escape"
//   - With modifiers: "Ctrl+Q", "Alt+x"
//   - Vim-style: "<C-q>", "<A-x>", "<CR>", "<Esc>"
package key

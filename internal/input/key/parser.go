package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a key specification string into a Code.
//
// Supported formats:
//   - Single character: "a", "A", "1", "@"
//   - Named keys: "Enter", "Escape", "Tab", "Backspace", "Space", "F5"
//   - With modifiers: "Ctrl+Q", "Alt+x", "Ctrl+Alt+Q"
//   - Vim-style: "<C-q>", "<A-x>", "<CR>", "<Esc>"
//
// The result is not folded; registries apply Canonical themselves. Control
// chords on letters are normalized to the uppercase letter so that the fold
// lands on the control byte (Ctrl+q and Ctrl+Q both fold to 17).
func Parse(spec string) (Code, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return None, ErrEmptySpec
	}

	if len(spec) > 2 && strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseVimStyle(spec[1 : len(spec)-1])
	}

	if len(spec) > 1 && strings.Contains(spec, "+") {
		return parseModifierStyle(spec)
	}

	return parseKeyWithModifiers(spec, None)
}

// parseVimStyle parses Vim-style notation like "C-q", "A-x", "CR", "Esc".
func parseVimStyle(inner string) (Code, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return None, ErrInvalidSpec
	}

	parts := strings.Split(inner, "-")
	if len(parts) == 1 || inner == "-" {
		return parseKeyWithModifiers(inner, None)
	}

	var mods Code
	keyPart := parts[len(parts)-1]
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "c":
			mods |= Ctrl
		case "a", "m":
			mods |= Alt
		default:
			return None, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}
	return parseKeyWithModifiers(keyPart, mods)
}

// parseModifierStyle parses "Ctrl+Q" style notation.
func parseModifierStyle(spec string) (Code, error) {
	parts := strings.Split(spec, "+")
	keyPart := parts[len(parts)-1]
	if keyPart == "" {
		// "Ctrl++" binds the plus key.
		if len(parts) < 3 || parts[len(parts)-2] != "" {
			return None, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
		keyPart = "+"
		parts = parts[:len(parts)-1]
	}

	var mods Code
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control", "c":
			mods |= Ctrl
		case "alt", "meta", "option", "a":
			mods |= Alt
		default:
			return None, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}
	return parseKeyWithModifiers(keyPart, mods)
}

// parseKeyWithModifiers parses a key part with already-known modifiers.
func parseKeyWithModifiers(keyPart string, mods Code) (Code, error) {
	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return None, ErrInvalidSpec
	}

	runes := []rune(keyPart)
	if len(runes) == 1 {
		r := runes[0]
		if mods&Ctrl != 0 {
			r = unicode.ToUpper(r)
		}
		return Code(r) | mods, nil
	}

	if c := FromName(keyPart); c != None {
		return c | mods, nil
	}

	return None, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// MustParse parses a key specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Code {
	c, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return c
}

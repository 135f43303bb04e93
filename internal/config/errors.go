package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither TOML
	// nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalid is matched by every ValidationError.
	ErrInvalid = errors.New("invalid configuration")

	// ErrWatcherClosed is returned when using a closed Watcher.
	ErrWatcherClosed = errors.New("watcher closed")
)

// ParseError is a syntax or type error in a config file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError is a setting with an unusable value.
type ValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, fmt.Sprint(e.Value), e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

package app

import "errors"

var (
	// ErrAlreadyRunning is returned by Run on a running application.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoBackend is returned by New without a backend.
	ErrNoBackend = errors.New("no terminal backend")
)

// InitError is a failure setting up one component.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the listener registry.
var (
	// ErrNotFound is returned when unregistering a listener that is not
	// registered for the event.
	ErrNotFound = errors.New("listener not found")

	// ErrListenerFailed matches every *ListenerError.
	ErrListenerFailed = errors.New("listener failed")

	// ErrListenerPanic is returned when a listener panics.
	ErrListenerPanic = errors.New("listener panicked")
)

// NotFoundError describes a failed unregistration.
type NotFoundError struct {
	// Channel is the channel the unregistration targeted.
	Channel Channel

	// Event is the canonical event identifier, formatted.
	Event string

	// ID is the listener that was not found.
	ID ListenerID

	// NoListeners is true when the event had no listeners at all.
	NoListeners bool
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.NoListeners {
		return fmt.Sprintf("%s event %s has no listeners", e.Channel, e.Event)
	}
	return fmt.Sprintf("listener %s not registered for %s event %s", e.ID, e.Channel, e.Event)
}

// Is allows errors.Is to match NotFoundError with ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ListenerError wraps the failure of one listener during dispatch.
type ListenerError struct {
	// Channel is the channel being dispatched.
	Channel Channel

	// Event is the canonical event identifier, formatted.
	Event string

	// ID is the listener that failed.
	ID ListenerID

	// Err is the error the listener returned, or a *PanicError.
	Err error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("%s listener %s on %s: %v", e.Channel, e.ID, e.Event, e.Err)
}

// Unwrap returns the underlying error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match ListenerError with ErrListenerFailed.
func (e *ListenerError) Is(target error) bool {
	return target == ErrListenerFailed
}

// PanicError wraps a panic value as an error.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrListenerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrListenerPanic
}

package core

import "errors"

// Common errors.
var (
	// ErrInvalidArgument reports a malformed change event.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange reports positional access outside the current bounds.
	ErrOutOfRange = errors.New("index out of range")
	// ErrClosed is returned when submitting to a dispatcher that has been stopped.
	ErrClosed = errors.New("dispatcher is closed")
	// ErrObserverPanic wraps a panic recovered from an observer callback.
	ErrObserverPanic = errors.New("observer panicked")
)

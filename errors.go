package actrie

import "errors"

// Errors returned by the public API. Misuse of a handle is always reported
// as a value; the engine never panics on it.
var (
	// ErrNilMatcher is returned when a method is called on a nil *Matcher.
	ErrNilMatcher = errors.New("actrie: nil matcher")

	// ErrNilContext is returned when a method is called on a nil *Context.
	ErrNilContext = errors.New("actrie: nil context")

	// ErrClosed is returned by AllocContext after Close.
	ErrClosed = errors.New("actrie: matcher closed")

	// ErrContextFreed is returned by Reset after Free.
	ErrContextFreed = errors.New("actrie: context freed")
)

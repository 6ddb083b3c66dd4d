package wireless

import (
	"errors"
	"fmt"
)

// Error is returned by every Client operation. Kind is one of the common
// sentinels (ErrTransport, ErrNotConnected, ErrConnectionFailed,
// ErrInvalidNetworkID) so callers can test it with errors.Is.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the error kind of err, or nil when err is not a *Error.
func KindOf(err error) error {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return nil
}

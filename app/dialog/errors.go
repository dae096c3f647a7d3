package dialog

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a lookup had no match (place, city, airport, flight).
	ErrNotFound = errors.New("dialog: not found")
	// ErrInvalidInput reports text that is not acceptable in the current state.
	ErrInvalidInput = errors.New("dialog: invalid input")
	// ErrNoSession is returned by stores when the session does not exist.
	ErrNoSession = errors.New("dialog: session not found")
	// ErrSessionDiscarded is returned by stores when the session was stopped
	// while a transition was in flight. Results of that transition must be dropped.
	ErrSessionDiscarded = errors.New("dialog: session discarded")
)

// TransientError wraps a failed adapter call (timeout, network, malformed response).
type TransientError struct {
	Adapter string
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Adapter, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Code is picked up by the router summary logs as err_code.
func (e *TransientError) Code() string { return "adapter_" + e.Adapter }

// IsTransient reports whether err is a transient adapter failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classify maps adapter errors onto the dialog taxonomy. Not-found passes through.
func classify(adapter string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Adapter: adapter, Err: fmt.Errorf("timeout: %w", err)}
	}
	return &TransientError{Adapter: adapter, Err: err}
}

func errMissingAdapter(name string) error {
	return fmt.Errorf("dialog: %s adapter is required", name)
}

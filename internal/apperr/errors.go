package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrMissingCredentials = errors.New("missing credentials")
)

// TransportError is returned by backend collaborators for any failed call.
// Status is the HTTP status code, or 0 when the request never got a response.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transport wraps err as a *TransportError for op. A nil err stays nil.
func Transport(op string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Status: status, Err: err}
}

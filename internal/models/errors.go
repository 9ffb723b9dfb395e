package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by record stores when no review record exists for a
// (user, question) pair. SubmitRating treats it as the first-review default
// rather than a failure.
var ErrNotFound = errors.New("review record not found")

// PersistenceError wraps a transient store failure. The scheduler retries these
// a bounded number of times before surfacing them to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// Package service implements the secret lifecycle controller: the only
// component allowed to create, advance, and destroy secret records.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the secret never existed, expired by TTL, or was
	// already destroyed. Terminal for the caller.
	ErrNotFound = errors.New("secret not found")
	// ErrExhausted means the view limit was reached. Kept distinct from
	// ErrNotFound so the caller can tell the user why the link is dead.
	ErrExhausted = errors.New("secret view limit reached")
)

// ValidationError reports bad input shape or bounds. It is raised before
// any store write and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a backend failure. It is transient from the caller's
// point of view: retryable with backoff, but never past the point where a
// mutating write may have already succeeded.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

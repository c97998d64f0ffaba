package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateReview = errors.New("review already exists")
	ErrRunFinalized    = errors.New("scrape run already finalized")
	ErrInvalidInput    = errors.New("invalid input")
)

// FetchError is a network or parse failure reaching a source. It fails the
// run but never the sweep.
type FetchError struct {
	Source Source
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Source, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError means the store rejected or could not serve a request.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigError marks a source that is nominally configured but cannot be used.
type ConfigError struct {
	Source Source
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("source %s misconfigured: %s", e.Source, e.Reason) }

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

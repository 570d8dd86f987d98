package provider

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned before any network call when the
// selected provider has no usable API key.
var ErrMissingCredential = errors.New("missing credential")

// Error wraps a backend failure with the provider it came from.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: name, Err: err}
}

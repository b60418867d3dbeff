package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a worker configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid offline cache config")
	// ErrNotActive is returned when a worker that does not control clients is
	// asked to intercept a request or route a notification.
	ErrNotActive = errors.New("worker is not active")
	// ErrInvalidTransition is returned when a lifecycle event arrives out of order.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrInstallFailed wraps asset failures under the strict install policy.
	ErrInstallFailed = errors.New("install failed")
	// ErrUnexpectedStatus marks a manifest fetch that returned a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrDependencyMissing indicates a required port was not supplied.
	ErrDependencyMissing = errors.New("worker dependency is missing")
)

// AssetError describes one manifest entry that could not be cached.
type AssetError struct {
	Path   string
	Key    string
	Status int
	Err    error
}

func (e *AssetError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("asset %s: %v (status %d)", e.Path, e.Err, e.Status)
	}
	return fmt.Sprintf("asset %s: %v", e.Path, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

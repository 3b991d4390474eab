package configs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed input that was never persisted.
	ErrValidation = errors.New("configs: invalid input")
	// ErrNotFound indicates a well-formed identifier with no matching document.
	ErrNotFound = errors.New("configs: configuration not found")
	// ErrForbidden indicates an authenticated caller who is not the owning author.
	ErrForbidden = errors.New("configs: caller is not the author")
	// ErrStoreUnavailable indicates a transient persistence-layer failure.
	ErrStoreUnavailable = errors.New("configs: store unavailable")
)

// ServiceError carries a stable operation code alongside the underlying cause.
// The cause chain retains the sentinel for the failure kind, so callers can
// both inspect the kind with errors.Is and report the code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable <operation>.<reason> identifier.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

func storeFailure(cause error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, cause)
}

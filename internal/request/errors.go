package request

import (
	"errors"
	"fmt"
)

var (
	// ErrCloudUnreachable is a soft failure: the request could not be
	// completed now but may succeed on a later attempt.
	ErrCloudUnreachable = errors.New("cloud unreachable")

	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAuthRetriesExhausted = errors.New("authorization retries exhausted")
	ErrUnhandledStatus      = errors.New("unhandled response status")
)

// StatusError carries the HTTP status behind a classified failure.
type StatusError struct {
	Status int
	Body   string
	err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (status %d)", e.err, e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.err
}

// IsFatal reports whether err leaves the session unusable without operator action.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAuthRetriesExhausted) ||
		errors.Is(err, ErrUnhandledStatus)
}

// IsRecoverable reports whether err is a soft failure worth retrying later.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrCloudUnreachable)
}

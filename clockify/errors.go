package clockify

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyResolved  = errors.New("entry ids already resolved")
	ErrUnknownIdentity  = errors.New("no api key configured for user")
)

// PermissionError is returned when Clockify refuses a project write with 403.
// Email is the identity whose api key was used.
type PermissionError struct {
	Action  string
	Project string
	Email   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s project %q as %s: %v", e.Action, e.Project, e.Email, ErrPermissionDenied)
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

// StatusError reports an unexpected HTTP status from Clockify.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

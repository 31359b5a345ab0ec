package types

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrRequestNotFound  = errors.New("access request not found")

	// ErrUnauthorized means the caller has no authenticated session.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the session exists but lacks ownership or
	// elevation for the target resource.
	ErrForbidden = errors.New("forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNameConflict signals a duplicate document name for one owner.
	ErrNameConflict = errors.New("document name already in use")

	ErrEmailConflict = errors.New("email already registered")

	// ErrInvalidTransition signals an attempt to move an access request
	// out of a terminal status.
	ErrInvalidTransition = errors.New("access request already resolved")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

package service

import (
	"errors"
	"fmt"

	"github.com/sitecraft/backend/internal/repository"
)

var (
	// ErrInvalidInput is the root of every ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMailFailed wraps a dispatcher error when a reply could not be delivered.
	ErrMailFailed = errors.New("mail failed")
)

// ValidationError names the offending field. Code is the machine-readable
// value handlers return, e.g. "email_invalid".
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Code)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Code: field + "_" + reason}
}

// mapRepoErr translates repository sentinels to service sentinels.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

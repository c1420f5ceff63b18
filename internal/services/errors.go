package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Legalistas/brixar-sub002/internal/db"
)

// Sentinel errors. Handlers map them to status codes with errors.Is.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
)

// ErrEmailExists is returned when registering an address that is already taken.
var ErrEmailExists = fmt.Errorf("%w: email already in use", ErrConflict)

// ErrInvalidCredentials is returned by Authenticate for any mismatch.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func forbiddenErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// lookupError translates a failed lookup of entity into ErrNotFound or a wrapped db error.
func lookupError(entity string, id any, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("error loading %s %v: %w", entity, id, err)
}

// writeError wraps a failed write, turning unique index violations into ErrConflict.
func writeError(action string, err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s: duplicate entry", ErrConflict, action)
	}
	return fmt.Errorf("error %s: %w", action, err)
}

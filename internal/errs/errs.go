// Package errs contains sentinel errors shared by the service and HTTP layers.
package errs

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation (barcode, username).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indicates bad credentials or an invalid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPrecondition indicates a business rule blocked the operation.
	ErrPrecondition = errors.New("precondition failed")

	// ErrUnavailable indicates the persistence layer could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
)

// Reason wraps a sentinel with a message suitable for direct display.
func Reason(kind error, format string, args ...any) error {
	return &reasonError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

type reasonError struct {
	kind error
	msg  string
}

func (e *reasonError) Error() string { return e.msg }
func (e *reasonError) Unwrap() error { return e.kind }

// FromDB classifies a GORM error. notFound is the message used when the
// record is missing.
func FromDB(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Reason(ErrNotFound, "%s", notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Reason(ErrConflict, "record already exists")
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// IsUserFacing reports whether err is a business outcome whose message can
// be shown as is, rather than an infrastructure failure.
func IsUserFacing(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrUnauthorized, ErrPrecondition} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

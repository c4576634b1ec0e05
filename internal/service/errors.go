package service

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ErrNotFound covers both a genuinely missing row and a row owned by another
// user. The two cases are deliberately indistinguishable so that callers
// cannot probe for the existence of someone else's data.
var ErrNotFound = errors.New("not found")

// ErrConflict means the store detected concurrent modification; the caller
// should retry the whole operation.
var ErrConflict = errors.New("conflict: retry the operation")

// ValidationError rejects an input without touching any state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// notFoundOr maps a missing-record lookup result onto the service taxonomy
// and leaves every other store error wrapped for the caller.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

// translateStoreErr converts driver-level constraint and locking failures
// into the service taxonomy. Anything else propagates wrapped.
func translateStoreErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.As(err, &verr) {
		return err
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch {
		case serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked:
			return ErrConflict
		case serr.ExtendedCode == sqlite3.ErrConstraintUnique:
			return validationf("name already in use")
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return validationf("name already in use")
	}
	return fmt.Errorf("%s: %w", what, err)
}

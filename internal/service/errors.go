package service

import (
	"errors"
	"fmt"

	"fithub/workout-service/internal/repository"
)

// --- Error taxonomy ---
//
// Every operation fails with exactly one of these families. Validation,
// NotFound and Conflict are never retryable; Unavailable is retryable for
// reads and idempotent writes. Conflict messages name the blocking row so the
// caller can decide what to do; nothing is resolved silently on their behalf.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("store unavailable")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// mapRepoErr translates repository sentinels that have a one-to-one public
// meaning. Duplicate-key sentinels are mapped at call sites where the message
// can name the blocking row.
func mapRepoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundErr("%s", what)
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}

package survey

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEmail is returned when a record for the email already exists.
	ErrDuplicateEmail = errors.New("email already submitted")
	// ErrEmailRequired is returned for submissions without an email.
	ErrEmailRequired = errors.New("email is required")
	// ErrNotFound is returned by lookups for an unknown email.
	ErrNotFound = errors.New("survey record not found")
	// ErrStorageUnavailable matches every *StorageError.
	ErrStorageUnavailable = errors.New("survey storage unavailable")
)

// StorageError reports that a backend could not be read or written.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	if e == nil {
		return ErrStorageUnavailable.Error()
	}
	return fmt.Sprintf("%s store %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// Unavailable wraps err as a StorageError. Nil stays nil.
func Unavailable(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Backend: backend, Op: op, Err: err}
}

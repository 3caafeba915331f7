package database

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound reports an unknown item or user.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists reports a unique-key collision on creation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrStoreUnavailable is a transient failure (database busy); the whole
	// operation may be retried.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrConflict is a transient lock conflict between transactions.
	ErrConflict = errors.New("conflict")
	// ErrVersionMismatch is returned by compare-and-set writes whose expected
	// version is no longer current.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrForeignSchema is returned by Open for a file created by another
	// application.
	ErrForeignSchema = errors.New("database was created by a different application")
)

// classify wraps a driver error with the operation name, tagging busy and
// locked conditions with the matching transient sentinel.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY:
			return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
		case sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsTransient reports whether err is safe to retry as a whole operation.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrConflict)
}

package engine

import (
	"errors"

	"github.com/TobiSchelling/clicklabel/internal/database"
)

var (
	// ErrNotFound reports an unknown item or user.
	ErrNotFound = database.ErrNotFound
	// ErrInvalidArgument reports a request the engine refuses before touching
	// the store, such as a confidence outside 1..4.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStoreUnavailable is transient; the whole operation may be retried.
	ErrStoreUnavailable = database.ErrStoreUnavailable
	// ErrConflict is a transient lock conflict; the whole operation may be retried.
	ErrConflict = database.ErrConflict
)

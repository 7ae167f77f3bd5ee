package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned when a transaction loses a locking or serialization
// conflict against a concurrent operation. The write did not happen; callers
// may retry.
var ErrConflict = errors.New("transaction conflict")

// IsLockConflict reports whether err is a Postgres serialization failure
// (40001) or deadlock (40P01).
func IsLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

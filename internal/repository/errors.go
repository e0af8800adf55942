package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested record does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique constraint (duplicate slug or email).
var ErrConflict = errors.New("conflict")

// PostgreSQL error codes mapped onto the sentinels above.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02" // malformed UUID in a WHERE clause
)

// mapError converts driver errors into ErrNotFound / ErrConflict and passes
// everything else through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgInvalidTextRepr, pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}

package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// unique_violation in the PostgreSQL error code table.
const pgDuplicateKeyCode = "23505"

// MapError rewrites driver-level errors as domain sentinels: sql.ErrNoRows
// becomes notFoundErr, a unique violation becomes duplicateErr, and anything
// else passes through untouched.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateKeyCode {
		return duplicateErr
	}
	return err
}

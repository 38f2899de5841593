package database

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsNotFound reports whether err came from a lookup that matched no row.
func IsNotFound(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// UniqueViolation returns the violated constraint name for a unique_violation.
func UniqueViolation(err error) (string, bool) { return violation(err, pgerrcode.UniqueViolation) }

// ExclusionViolation returns the violated constraint name for an exclusion_violation.
func ExclusionViolation(err error) (string, bool) {
	return violation(err, pgerrcode.ExclusionViolation)
}

func violation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}

package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation raised
// by Postgres or SQLite. When markers are provided, at least one of them (a
// constraint name or a "table.column" pair) must appear in the error.
func IsUniqueViolation(err error, markers ...string) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		unique = true
		msg = msg + " " + pgErr.ConstraintName
	}
	if !unique {
		return false
	}
	if len(markers) == 0 {
		return true
	}
	for _, marker := range markers {
		if marker != "" && strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

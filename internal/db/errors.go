package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint in either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		// without extended result codes only the message tells them apart
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}

	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}

	return false
}

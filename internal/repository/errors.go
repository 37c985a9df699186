package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}

// uniqueViolationDetail returns the driver's description of which
// constraint fired, for mapping to a typed conflict error.
func uniqueViolationDetail(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint + " " + pqErr.Detail
	}

	return err.Error()
}

func violationMentions(err error, fragment string) bool {
	return strings.Contains(uniqueViolationDetail(err), fragment)
}

package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. When constraintName is provided, the helper looks for
// the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	if strings.Contains(msg, "duplicate key value") {
		return constraintName == ""
	}
	// sqlite reports the offending columns rather than the constraint name.
	return strings.Contains(msg, "UNIQUE constraint failed")
}

// IsNotFound reports whether err is gorm's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

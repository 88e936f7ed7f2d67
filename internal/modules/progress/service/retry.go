package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	maxCompletionRetries = 3
	codeSerialization    = "40001"
	codeDeadlock         = "40P01"
	codeUniqueViolation  = "23505"
)

// isRetryable reports whether a completion transaction failed for a
// transient concurrency reason and can be replayed as-is. A unique
// violation on the attempt index means another transaction claimed the
// same attempt number; a fresh run recomputes it.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerialization, codeDeadlock, codeUniqueViolation:
			return true
		}
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

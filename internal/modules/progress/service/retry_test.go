package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped pg error", fmt.Errorf("create attempt: %w", &pgconn.PgError{Code: "40001"}), true},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"plain error", errors.New("boom"), false},
		{"record not found", gorm.ErrRecordNotFound, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isRetryable(tc.err))
		})
	}
}

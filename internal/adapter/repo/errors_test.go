package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"vydio/internal/domain"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), domain.ErrNotFound},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "webhook_events_pkey"}, domain.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "jobs_user_id_fkey"}, domain.ErrNotFound},
		{"negative balance", &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "users_credits_check"}, domain.ErrInsufficientCredits},
		{"other check", &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "jobs_duration_seconds_check"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapDBError("op", tt.err), tt.want)
		})
	}

	assert.NoError(t, mapDBError("op", nil))

	opaque := errors.New("connection reset")
	got := mapDBError("insert job", opaque)
	assert.ErrorIs(t, got, opaque)
	assert.Contains(t, got.Error(), "insert job")
}

package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/tordrt/schemagraph/internal/errs"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"pg permission", &pgconn.PgError{Code: "42501"}, errs.ErrKindPermissionDenied},
		{"pg undefined table", &pgconn.PgError{Code: "42P01"}, errs.ErrKindUnsupported},
		{"pg undefined column", &pgconn.PgError{Code: "42703"}, errs.ErrKindUnsupported},
		{"pg auth", &pgconn.PgError{Code: "28P01"}, errs.ErrKindConnectionFailed},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, errs.ErrKindQueryFailed},
		{"mysql access", &mysql.MySQLError{Number: 1045}, errs.ErrKindConnectionFailed},
		{"mysql select denied", &mysql.MySQLError{Number: 1142}, errs.ErrKindPermissionDenied},
		{"mysql unknown table", &mysql.MySQLError{Number: 1109}, errs.ErrKindUnsupported},
		{"sqlite logic error", sqlite3.Error{Code: sqlite3.ErrError}, errs.ErrKindQueryFailed},
		{"sqlite auth", sqlite3.Error{Code: sqlite3.ErrAuth}, errs.ErrKindPermissionDenied},
		{"oracle missing view", errors.New("ORA-00942: table or view does not exist"), errs.ErrKindUnsupported},
		{"oracle privileges", errors.New("ORA-01031: insufficient privileges"), errs.ErrKindPermissionDenied},
		{"oracle login", errors.New("ORA-01017: invalid username/password"), errs.ErrKindConnectionFailed},
		{"unregistered driver", errors.New(`sql: unknown driver "tds" (forgotten import?)`), errs.ErrKindInvalidInput},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), errs.ErrKindTimeout},
		{"plain", errors.New("boom"), errs.ErrKindQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("test", tt.err)
			assert.Equal(t, tt.want, errs.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.NoError(t, Classify("pgx", nil))

	kinded := errs.New(errs.ErrKindNotFound, "gone")
	assert.Same(t, kinded, Classify("pgx", kinded))
}

package sqldb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"salesdesk/internal/core"
	"salesdesk/internal/tenancy"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"pg auth", &pgconn.PgError{Code: "28P01"}, KindPermission},
		{"pg privilege", fmt.Errorf("create: %w", &pgconn.PgError{Code: "42501"}), KindPermission},
		{"pg missing database", &pgconn.PgError{Code: "3D000"}, KindUnreachable},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, KindSchema},
		{"mysql access denied", &mysql.MySQLError{Number: 1045}, KindPermission},
		{"mysql unknown database", &mysql.MySQLError{Number: 1049}, KindUnreachable},
		{"mysql missing table", &mysql.MySQLError{Number: 1146}, KindSchema},
		{"missing driver", errors.New(`sql: unknown driver "oracle" (forgotten import?)`), KindDriver},
		{"deadline", context.DeadlineExceeded, KindUnreachable},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.True(t, IsUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("UNIQUE constraint failed")))
}

func TestKindOfPrefersWrappedKind(t *testing.T) {
	err := fmt.Errorf("provision: %w", &Error{Op: "ping", Kind: KindPermission, Err: errors.New("denied")})
	assert.Equal(t, KindPermission, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
}

func TestOpenUnreachableRetriesAndClassifies(t *testing.T) {
	d := tenancy.Descriptor{Engine: core.EnginePostgres, Host: "127.0.0.1", Port: 1, User: "u", Name: "sales_acme",
		Options: map[string]string{"sslmode": "disable", "connect_timeout": "1"}}

	_, attempts, err := Open(context.Background(), d, OpenOptions{Retries: 2, PingTimeout: 2 * time.Second, InitialInterval: 10 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, KindUnreachable, KindOf(err))
}

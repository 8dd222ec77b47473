package accessor

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/errs"
)

// scriptedClient answers a statement with the first reply whose marker
// occurs in it.
type scriptedClient struct {
	driver   string
	replies  []reply
	acquired int
	released int
	queries  []string
	args     [][]any
}

type reply struct {
	marker string
	rows   db.Rows
	err    error
}

func (c *scriptedClient) Acquire(context.Context) (db.Conn, error) {
	c.acquired++
	return &scriptedConn{c: c}, nil
}

func (c *scriptedClient) Driver() string { return c.driver }
func (c *scriptedClient) Close() error   { return nil }

type scriptedConn struct{ c *scriptedClient }

func (s *scriptedConn) Query(_ context.Context, query string, args ...any) (db.Rows, error) {
	s.c.queries = append(s.c.queries, query)
	s.c.args = append(s.c.args, args)
	for _, r := range s.c.replies {
		if strings.Contains(query, r.marker) {
			return r.rows, r.err
		}
	}
	return db.Rows{}, nil
}

func (s *scriptedConn) Release() { s.c.released++ }

func TestFetch_HardFailurePropagates(t *testing.T) {
	client := &scriptedClient{
		driver:  db.DriverPgx,
		replies: []reply{{marker: "information_schema.tables", err: errs.New(errs.ErrKindPermissionDenied, "denied")}},
	}
	a := Resolve(PostgreSQL, client, nil)

	rows, err := a.FetchTables(context.Background(), Filter{})
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Contains(t, err.Error(), "failed to fetch tables")
	assert.Equal(t, client.acquired, client.released)
}

func TestFetch_SoftFailureDegrades(t *testing.T) {
	client := &scriptedClient{
		driver:  db.DriverPgx,
		replies: []reply{{marker: "pg_description", err: errs.New(errs.ErrKindPermissionDenied, "denied")}},
	}
	a := Resolve(PostgreSQL, client, nil)

	rows, err := a.FetchTableDescriptions(context.Background(), Filter{Owner: "public"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	degraded := a.Degraded()
	require.Len(t, degraded, 1)
	assert.Equal(t, TableDescriptions, degraded[0].Capability)
	assert.Equal(t, "public", degraded[0].Filter.Owner)
}

func TestFetch_SoftCapabilityStillFailsOnConnectionLoss(t *testing.T) {
	client := &scriptedClient{
		driver:  db.DriverPgx,
		replies: []reply{{marker: "pg_description", err: errs.New(errs.ErrKindConnectionFailed, "gone")}},
	}
	a := Resolve(PostgreSQL, client, nil)

	_, err := a.FetchColumnDescriptions(context.Background(), Filter{})
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Empty(t, a.Degraded())
}

func TestFetch_UnsupportedIsEmpty(t *testing.T) {
	client := &scriptedClient{
		driver:  db.DriverMySQL,
		replies: []reply{{marker: "check_constraints", err: errs.New(errs.ErrKindUnsupported, "unknown table")}},
	}
	a := Resolve(MySQL, client, nil)

	rows, err := a.FetchCheckConstraints(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, a.Degraded())
}

func TestFetch_MissingCapabilityIsEmpty(t *testing.T) {
	client := &scriptedClient{driver: db.DriverMySQL}
	a := Resolve(MySQL, client, nil)

	assert.False(t, a.Supports(Sequences))
	rows, err := a.FetchSequences(context.Background(), Filter{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Zero(t, client.acquired)
}

func TestFetch_NormalizesPostgresTypes(t *testing.T) {
	client := &scriptedClient{
		driver: db.DriverPgx,
		replies: []reply{{marker: "information_schema.columns", rows: db.Rows{
			{"table_name": "events", "column_name": "at", "data_type": "timestamp with time zone", "udt_name": "timestamptz"},
			{"table_name": "events", "column_name": "tags", "data_type": "ARRAY", "udt_name": "_int4"},
		}}},
	}
	a := Resolve(PostgreSQL, client, nil)

	rows, err := a.FetchColumns(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "timestamptz", rows[0].String("data_type"))
	assert.Equal(t, "integer[]", rows[1].String("data_type"))
}

func TestFetch_FilterBinding(t *testing.T) {
	client := &scriptedClient{driver: db.DriverPgx}
	a := Resolve(PostgreSQL, client, nil)

	_, err := a.FetchColumns(context.Background(), Filter{Owner: "sales", Name: "orders"})
	require.NoError(t, err)
	require.Len(t, client.queries, 1)
	assert.Contains(t, client.queries[0], "$1::text IS NULL")
	assert.NotContains(t, client.queries[0], "{owner}")
	assert.Equal(t, []any{"sales", "orders"}, client.args[0])

	_, err = a.FetchColumns(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil}, client.args[1])
}

func TestFetch_OracleFoldsFilterCase(t *testing.T) {
	client := &scriptedClient{driver: db.DriverOracle}
	a := Resolve(Oracle, client, nil)

	_, err := a.FetchTables(context.Background(), Filter{Owner: "scott", Name: "emp"})
	require.NoError(t, err)
	require.Len(t, client.args, 1)
	require.Len(t, client.args[0], 2)
	assert.Contains(t, client.queries[0], ":owner IS NULL")
	assert.Equal(t, sql.Named("owner", "SCOTT"), client.args[0][0])
	assert.Equal(t, sql.Named("name", "EMP"), client.args[0][1])
}

func TestFetch_OracleKeepsQuotedName(t *testing.T) {
	client := &scriptedClient{driver: db.DriverOracle}
	a := Resolve(Oracle, client, nil)

	_, err := a.FetchTables(context.Background(), Filter{Owner: "scott", Name: `"OrderItems"`})
	require.NoError(t, err)
	require.Len(t, client.args, 1)
	assert.Equal(t, sql.Named("owner", "SCOTT"), client.args[0][0])
	assert.Equal(t, sql.Named("name", "OrderItems"), client.args[0][1])
}

func TestFoldIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"emp", "EMP"},
		{"order_items$1", "ORDER_ITEMS$1"},
		{`"OrderItems"`, "OrderItems"},
		{`"Say ""hi"""`, `Say "hi"`},
		{"Order Items", "Order Items"},
		{"2fast", "2fast"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, foldIdentifier(tt.in))
		})
	}
}

func TestFetchDataTypes_FallsBackToBuiltins(t *testing.T) {
	client := &scriptedClient{driver: db.DriverSQLite}
	a := Resolve(SQLite, client, nil)

	rows, err := a.FetchDataTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, len(sqliteBuiltins))
	assert.Equal(t, "integer", rows[0].String("type_name"))
}

func TestResolve_GenericUsesClientBindStyle(t *testing.T) {
	client := &scriptedClient{driver: db.DriverSQLServer}
	a := Resolve(Dialect("informix"), client, nil)

	assert.Equal(t, Generic, a.Dialect())
	_, err := a.FetchTables(context.Background(), Filter{Name: "orders"})
	require.NoError(t, err)
	assert.Contains(t, client.queries[0], "@p2 IS NULL")
}

func TestReshapeSQLAnywhere(t *testing.T) {
	fks := reshapeSQLAnywhere(ForeignKeys, db.Rows{
		{"table_name": "orders", "constraint_name": "customers", "column_pairs": "cust_id IS id, region IS region_code"},
	})
	require.Len(t, fks, 2)
	assert.Equal(t, "cust_id", fks[0].String("column_name"))
	assert.Equal(t, "id", fks[0].String("fk_column"))
	assert.Equal(t, "region", fks[1].String("column_name"))
	assert.Equal(t, int64(2), fks[1].IntOr(0, "ordinal_position"))
	_, hasPairs := fks[0].Value("column_pairs")
	assert.False(t, hasPairs)

	idx := reshapeSQLAnywhere(Indexes, db.Rows{
		{"table_name": "orders", "index_name": "ix_orders", "column_list": "placed_at DESC,status ASC"},
	})
	require.Len(t, idx, 2)
	assert.Equal(t, "placed_at", idx[0].String("column_name"))
	assert.Equal(t, "status", idx[1].String("column_name"))
}

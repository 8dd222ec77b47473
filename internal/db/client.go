// Package db is the connection layer: pooled clients for each driver, one
// scoped connection per catalog fetch, raw rows and driver error
// classification.
package db

import (
	"context"
	"time"

	"github.com/tordrt/schemagraph/internal/errs"
)

// Driver names understood by Open.
const (
	DriverPgx       = "pgx"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite3"
	DriverSQLServer = "sqlserver"
	DriverOracle    = "oracle"
)

// Querier runs one catalog statement and returns its rows.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Conn is a connection checked out for a single fetch. Release must be
// called on every exit path.
type Conn interface {
	Querier
	Release()
}

// Client hands out scoped connections.
type Client interface {
	Acquire(ctx context.Context) (Conn, error)
	Driver() string
	Close() error
}

// PoolConfig sizes the client pool.
type PoolConfig struct {
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// DefaultPoolConfig keeps the pool small: a read session issues one query
// at a time.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        4,
		MinConns:        0,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// Open connects with the named driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (Client, error) {
	if dsn == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "connection string is required")
	}
	switch driver {
	case "":
		return nil, errs.New(errs.ErrKindInvalidInput, "driver name is required")
	case DriverPgx, "postgres":
		return NewPostgresClient(ctx, dsn, pool)
	case DriverMySQL:
		return NewMySQLClient(ctx, dsn, pool)
	case DriverSQLite:
		return NewSQLiteClient(ctx, dsn, pool)
	default:
		return NewSQLClient(ctx, driver, dsn, pool)
	}
}

// Fetch acquires a connection, runs one query and releases the connection.
func Fetch(ctx context.Context, c Client, query string, args ...any) (Rows, error) {
	conn, err := c.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	return conn.Query(ctx, query, args...)
}

package db

import (
	"context"
	"strings"
)

// NewSQLiteClient opens a SQLite database file. A sqlite:// prefix is
// accepted and stripped. The pool is capped at one connection so
// ":memory:" databases stay visible across fetches.
func NewSQLiteClient(ctx context.Context, path string, pool PoolConfig) (*SQLClient, error) {
	pool.MaxConns = 1
	pool.MinConns = 1
	pool.MaxConnLifetime = 0
	pool.MaxConnIdleTime = 0
	return NewSQLClient(ctx, DriverSQLite, SQLitePath(path), pool)
}

// SQLitePath strips a sqlite:// scheme that go-sqlite3 would
// otherwise treat as part of the file name.
func SQLitePath(path string) string {
	path = strings.TrimPrefix(path, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite3://")
	return path
}

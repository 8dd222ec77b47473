package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/sijms/go-ora/v2"
)

// SQLClient manages a database/sql pool for any registered driver.
type SQLClient struct {
	db     *sql.DB
	driver string
}

// NewSQLClient opens driver with dsn, applies the pool sizing and pings.
func NewSQLClient(ctx context.Context, driver, dsn string, pool PoolConfig) (*SQLClient, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, Classify(driver, fmt.Errorf("failed to open database: %w", err))
	}
	if pool.MaxConns > 0 {
		db.SetMaxOpenConns(int(pool.MaxConns))
	}
	db.SetMaxIdleConns(int(pool.MinConns))
	if pool.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(pool.MaxConnLifetime)
	}
	if pool.MaxConnIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.MaxConnIdleTime)
	}

	pingCtx := ctx
	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Classify(driver, fmt.Errorf("failed to ping database: %w", err))
	}

	return &SQLClient{db: db, driver: driver}, nil
}

// Acquire checks out one connection from the pool.
func (c *SQLClient) Acquire(ctx context.Context) (Conn, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, Classify(c.driver, err)
	}
	return &sqlConn{conn: conn, driver: c.driver}, nil
}

// Driver returns the driver name.
func (c *SQLClient) Driver() string { return c.driver }

// Close closes the pool.
func (c *SQLClient) Close() error {
	return c.db.Close()
}

type sqlConn struct {
	conn   *sql.Conn
	driver string
}

func (c *sqlConn) Release() { _ = c.conn.Close() }

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Classify(c.driver, err)
	}
	defer func() { _ = rows.Close() }()

	out, err := ScanRows(rows)
	if err != nil {
		return nil, Classify(c.driver, err)
	}
	return out, nil
}

package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClient manages a pgx connection pool.
type PostgresClient struct {
	pool *pgxpool.Pool
}

// NewPostgresClient creates a pooled PostgreSQL client and pings it.
func NewPostgresClient(ctx context.Context, connString string, pool PoolConfig) (*PostgresClient, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, Classify(DriverPgx, fmt.Errorf("failed to parse connection string: %w", err))
	}
	if pool.MaxConns > 0 {
		cfg.MaxConns = pool.MaxConns
	}
	if pool.MinConns > 0 {
		cfg.MinConns = pool.MinConns
	}
	if pool.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = pool.MaxConnLifetime
	}
	if pool.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = pool.MaxConnIdleTime
	}
	if pool.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = pool.ConnectTimeout
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, Classify(DriverPgx, fmt.Errorf("failed to connect to database: %w", err))
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, Classify(DriverPgx, fmt.Errorf("failed to ping database: %w", err))
	}

	return &PostgresClient{pool: p}, nil
}

// Acquire checks out one pooled connection.
func (c *PostgresClient) Acquire(ctx context.Context) (Conn, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, Classify(DriverPgx, err)
	}
	return &pgConn{conn: conn}, nil
}

// Driver returns the driver name.
func (c *PostgresClient) Driver() string { return DriverPgx }

// Close closes the pool.
func (c *PostgresClient) Close() error {
	c.pool.Close()
	return nil
}

type pgConn struct {
	conn *pgxpool.Conn
}

func (c *pgConn) Release() { c.conn.Release() }

func (c *pgConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, Classify(DriverPgx, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out Rows
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, Classify(DriverPgx, err)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[strings.ToLower(f.Name)] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(DriverPgx, err)
	}
	return out, nil
}

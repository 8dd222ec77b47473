package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// NewMySQLClient opens a MySQL pool. A mysql:// prefix is accepted and
// stripped.
func NewMySQLClient(ctx context.Context, dsn string, pool PoolConfig) (*SQLClient, error) {
	return NewSQLClient(ctx, DriverMySQL, strings.TrimPrefix(dsn, "mysql://"), pool)
}

// MySQLDatabaseName extracts the database name from a MySQL DSN. It is the
// default owner for MySQL reads.
func MySQLDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("no database name found in connection string")
	}
	return cfg.DBName, nil
}

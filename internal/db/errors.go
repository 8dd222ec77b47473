package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/tordrt/schemagraph/internal/errs"
)

// Classify maps a native driver error to a kinded *errs.Error. Errors that
// are already kinded pass through unchanged.
func Classify(driverName string, err error) error {
	if err == nil {
		return nil
	}
	var kinded *errs.Error
	if errors.As(err, &kinded) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, "catalog operation timed out", err)
	}
	if errors.Is(err, driver.ErrBadConn) {
		return errs.Wrap(errs.ErrKindConnectionFailed, "connection lost", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, "network failure", err)
	}

	if kind, ok := classifyNative(err); ok {
		return errs.Wrap(kind, driverName+" catalog query failed", err)
	}
	return errs.Wrap(classifyMessage(err.Error()), driverName+" catalog query failed", err)
}

func classifyNative(err error) (errs.ErrKind, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return postgresKind(pgErr.Code), true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return errs.ErrKindConnectionFailed, true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlKind(myErr.Number), true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return sqliteKind(liteErr), true
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return sqlServerKind(msErr.Number), true
	}
	return errs.ErrKindUnknown, false
}

func postgresKind(code string) errs.ErrKind {
	switch {
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "28"), code == "3D000":
		return errs.ErrKindConnectionFailed
	case code == "42501":
		return errs.ErrKindPermissionDenied
	case code == "42P01", code == "42703", code == "42883":
		return errs.ErrKindUnsupported
	case code == "57014":
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}

func mysqlKind(number uint16) errs.ErrKind {
	switch number {
	case 1044, 1045, 1049, 2002, 2003, 2006, 2013:
		return errs.ErrKindConnectionFailed
	case 1142, 1143, 1227, 1370:
		return errs.ErrKindPermissionDenied
	case 1146, 1109, 1054:
		return errs.ErrKindUnsupported
	default:
		return errs.ErrKindQueryFailed
	}
}

func sqliteKind(err sqlite3.Error) errs.ErrKind {
	switch err.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return errs.ErrKindConnectionFailed
	case sqlite3.ErrPerm, sqlite3.ErrAuth:
		return errs.ErrKindPermissionDenied
	}
	if strings.Contains(err.Error(), "no such") {
		return errs.ErrKindUnsupported
	}
	return errs.ErrKindQueryFailed
}

func sqlServerKind(number int32) errs.ErrKind {
	switch number {
	case 18456, 4060:
		return errs.ErrKindConnectionFailed
	case 229, 230, 297, 300:
		return errs.ErrKindPermissionDenied
	case 208, 207, 2812:
		return errs.ErrKindUnsupported
	default:
		return errs.ErrKindQueryFailed
	}
}

// classifyMessage covers drivers without exported error types (Oracle,
// Sybase, ODBC bridges) by their message codes.
func classifyMessage(msg string) errs.ErrKind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "unknown driver"):
		return errs.ErrKindInvalidInput
	case containsAny(m, "ora-01017", "ora-12541", "ora-12514", "ora-03113", "login failed", "connection refused"):
		return errs.ErrKindConnectionFailed
	case containsAny(m, "ora-01031", "permission denied", "insufficient privilege", "access denied", "not authorized"):
		return errs.ErrKindPermissionDenied
	case containsAny(m, "ora-00942", "ora-00904", "no such table", "not found", "does not exist", "invalid object name"):
		return errs.ErrKindUnsupported
	default:
		return errs.ErrKindQueryFailed
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

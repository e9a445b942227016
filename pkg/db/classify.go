// pkg/db/classify.go
package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Classify wraps a driver error into an *Error of the matching kind.
// Errors already produced by this package are returned unchanged.
func Classify(op, target string, inTx bool, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return err
	}
	return newError(kindOf(err), op, target, inTx, err)
}

func kindOf(err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return ErrConnectivity
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return kindForSQLState(string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return kindForSQLState(pgErr.Code)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return ErrConnectivity
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return ErrConstraintViolation
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrConnectivity
	}
	return ErrDataAccess
}

// kindForSQLState maps a SQLSTATE code to an error kind.
// Class 23 is integrity constraint violation, 08 connection exception,
// 28 invalid authorization and 57P operator intervention (server shutdown).
func kindForSQLState(code string) error {
	switch {
	case strings.HasPrefix(code, "23"):
		return ErrConstraintViolation
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "28"), strings.HasPrefix(code, "57P"):
		return ErrConnectivity
	}
	return ErrDataAccess
}

// ConstraintName returns the violated constraint reported by PostgreSQL, or "".
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// SQLState returns the SQLSTATE code carried by err, or "".
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

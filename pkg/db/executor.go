// pkg/db/executor.go
package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBExecutor defines the database operations needed by repositories and procedure calls.
// *sqlx.DB, *sqlx.Conn and *sqlx.Tx all implement these methods, so callers can
// operate on a pool, a dedicated connection or a transaction.
type DBExecutor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

var (
	_ DBExecutor = (*sqlx.DB)(nil)
	_ DBExecutor = (*sqlx.Conn)(nil)
	_ DBExecutor = (*sqlx.Tx)(nil)
)

// internal/repository/postgres/helpers_test.go
package postgres

import (
	"context"
	"path/filepath"
	"testing"

	"finflow-ledger/internal/repository"
	"finflow-ledger/pkg/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// newSQLiteRouter creates a SQLite database shaped like the users and wallets tables.
func newSQLiteRouter(t *testing.T) *db.Router {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	factory, err := db.NewFactory(db.Config{Driver: db.DriverSQLite})
	require.NoError(t, err)
	router := db.NewRouter(db.NewResolver(db.StaticSource{
		Default:     "main",
		Connections: map[string]string{"main": db.SQLiteDSN(path)},
	}), factory)
	t.Cleanup(func() { _ = router.Close() })

	ctx := context.Background()
	conn, err := router.Conn(ctx, "")
	require.NoError(t, err)
	defer conn.Close()
	for _, stmt := range []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			deleted_at TIMESTAMP
		)`,
		`CREATE TABLE wallets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			currency TEXT NOT NULL,
			balance NUMERIC NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			UNIQUE (user_id, currency)
		)`,
	} {
		_, err := conn.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return router
}

// newMockExecutor routes the default connection to a sqlmock database.
func newMockExecutor(t *testing.T) (*repository.ProcedureExecutor, *db.Router, sqlmock.Sqlmock) {
	t.Helper()
	dsn := "postgres_repo_" + t.Name()
	mockDB, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	factory, err := db.NewFactory(db.Config{Driver: "sqlmock"})
	require.NoError(t, err)
	router := db.NewRouter(db.NewResolver(db.StaticSource{
		Default:     "main",
		Connections: map[string]string{"main": dsn},
	}), factory)
	t.Cleanup(func() {
		_ = router.Close()
		_ = mockDB.Close()
	})
	return repository.NewProcedureExecutor(router), router, mock
}

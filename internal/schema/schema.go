// internal/schema/schema.go
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"finflow-ledger/pkg/db"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var gooseMu sync.Mutex

// Apply brings the tenant database at dsn up to the latest schema, stored procedures included.
// Only PostgreSQL drivers are supported.
func Apply(ctx context.Context, driver, dsn string) error {
	if driver != db.DriverPostgres && driver != db.DriverPgx {
		return fmt.Errorf("schema migrations require a PostgreSQL driver, got %q", driver)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer conn.Close()
	return run(ctx, conn)
}

// run applies migrations on the provided *sql.DB.
func run(ctx context.Context, conn *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// pkg/db/router.go
package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Router sends each operation to the physical database of its tenant.
type Router struct {
	resolver *Resolver
	factory  *Factory
}

// NewRouter creates a Router from a resolver and a connection factory.
func NewRouter(resolver *Resolver, factory *Factory) *Router {
	return &Router{resolver: resolver, factory: factory}
}

// Driver returns the driver name of the underlying factory.
func (r *Router) Driver() string { return r.factory.Driver() }

// Conn resolves target and opens a connection to it. An empty target selects the default database.
// The caller must Close the returned connection.
func (r *Router) Conn(ctx context.Context, target string) (*sqlx.Conn, error) {
	connString, err := r.resolver.Resolve(target)
	if err != nil {
		return nil, err
	}
	conn, err := r.factory.Open(ctx, connString)
	if err != nil {
		var dbErr *Error
		if errors.As(err, &dbErr) {
			dbErr.Target = targetName(target)
		}
		return nil, err
	}
	return conn, nil
}

// Begin opens a connection to target and starts a transaction scope on it.
func (r *Router) Begin(ctx context.Context, target string, opts *sql.TxOptions) (*Scope, error) {
	conn, err := r.Conn(ctx, target)
	if err != nil {
		return nil, err
	}
	return BeginScope(ctx, conn, target, opts)
}

// Ping verifies that target is reachable.
func (r *Router) Ping(ctx context.Context, target string) error {
	conn, err := r.Conn(ctx, target)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		return newError(ErrConnectivity, "ping", targetName(target), false, err)
	}
	return nil
}

// Close releases every pool held by the factory.
func (r *Router) Close() error {
	return r.factory.Close()
}

func targetName(target string) string {
	if target == "" {
		return "default"
	}
	return target
}

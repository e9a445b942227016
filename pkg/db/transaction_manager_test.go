// pkg/db/transaction_manager_test.go
package db

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRouter(t *testing.T) *Router {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scope.db")
	factory, err := NewFactory(Config{Driver: DriverSQLite})
	require.NoError(t, err)
	router := NewRouter(NewResolver(StaticSource{
		Default:     "main",
		Connections: map[string]string{"main": SQLiteDSN(path)},
	}), factory)
	t.Cleanup(func() { _ = router.Close() })

	ctx := context.Background()
	conn, err := router.Conn(ctx, "")
	require.NoError(t, err)
	defer conn.Close()
	for _, stmt := range []string{
		`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`,
		`CREATE TABLE parents (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE children (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER NOT NULL REFERENCES parents(id) DEFERRABLE INITIALLY DEFERRED
		)`,
	} {
		_, err := conn.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return router
}

func countRows(t *testing.T, router *Router, table string) int {
	t.Helper()
	ctx := context.Background()
	conn, err := router.Conn(ctx, "")
	require.NoError(t, err)
	defer conn.Close()
	var n int
	require.NoError(t, conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table))
	return n
}

func insertItem(ctx context.Context, scope *Scope, name string) error {
	return scope.Do(ctx, func(q DBExecutor) error {
		_, err := q.ExecContext(ctx, q.Rebind("INSERT INTO items (name) VALUES (?)"), name)
		return err
	})
}

func TestScope(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit persists work and makes the scope terminal", func(t *testing.T) {
		router := newSQLiteRouter(t)
		scope, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, scope.ID())
		assert.True(t, scope.Active())

		require.NoError(t, insertItem(ctx, scope, "a"))
		require.NoError(t, scope.Commit())
		assert.False(t, scope.Active())
		assert.Equal(t, 1, countRows(t, router, "items"))

		err = scope.Commit()
		assert.True(t, errors.Is(err, ErrInvalidState))
		err = scope.Rollback()
		assert.True(t, errors.Is(err, ErrInvalidState))
		err = insertItem(ctx, scope, "b")
		assert.True(t, errors.Is(err, ErrInvalidState))
		assert.NoError(t, scope.Close())
	})

	t.Run("Rollback discards work", func(t *testing.T) {
		router := newSQLiteRouter(t)
		scope, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)
		require.NoError(t, insertItem(ctx, scope, "a"))
		require.NoError(t, scope.Rollback())
		assert.Equal(t, 0, countRows(t, router, "items"))
		assert.True(t, errors.Is(scope.Commit(), ErrInvalidState))
	})

	t.Run("Close without commit rolls back and is idempotent", func(t *testing.T) {
		router := newSQLiteRouter(t)
		scope, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)
		require.NoError(t, insertItem(ctx, scope, "a"))
		require.NoError(t, scope.Close())
		require.NoError(t, scope.Close())
		assert.Equal(t, 0, countRows(t, router, "items"))
	})

	t.Run("Statement failure is classified and leaves the scope usable", func(t *testing.T) {
		router := newSQLiteRouter(t)
		scope, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)
		defer scope.Close()

		require.NoError(t, insertItem(ctx, scope, "dup"))
		err = insertItem(ctx, scope, "dup")
		require.Error(t, err)
		assert.True(t, errors.Is(Classify("insert", "items", true, err), ErrConstraintViolation))
		assert.True(t, scope.Active())
	})

	t.Run("Commit failure rolls back everything and frees the connection", func(t *testing.T) {
		router := newSQLiteRouter(t)
		scope, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)

		require.NoError(t, insertItem(ctx, scope, "a"))
		require.NoError(t, scope.Do(ctx, func(q DBExecutor) error {
			_, err := q.ExecContext(ctx, "INSERT INTO children (parent_id) VALUES (42)")
			return err
		}))

		err = scope.Commit()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConstraintViolation))
		assert.False(t, scope.Active())
		assert.Equal(t, 0, countRows(t, router, "items"))
		assert.Equal(t, 0, countRows(t, router, "children"))

		// The pooled connection must not carry a dangling transaction.
		next, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)
		require.NoError(t, insertItem(ctx, next, "b"))
		require.NoError(t, next.Commit())
		assert.Equal(t, 1, countRows(t, router, "items"))
	})

	t.Run("Concurrent Do calls are serialized", func(t *testing.T) {
		router := newSQLiteRouter(t)
		scope, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- insertItem(ctx, scope, string(rune('a'+i)))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		require.NoError(t, scope.Commit())
		assert.Equal(t, 20, countRows(t, router, "items"))
	})

	t.Run("Canceled context is refused", func(t *testing.T) {
		router := newSQLiteRouter(t)
		scope, err := router.Begin(ctx, "", nil)
		require.NoError(t, err)
		defer scope.Close()

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err = scope.Do(canceled, func(DBExecutor) error { return nil })
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestRouter(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown target fails before any connection is opened", func(t *testing.T) {
		router := newSQLiteRouter(t)
		_, err := router.Begin(ctx, "ghost", nil)
		assert.True(t, errors.Is(err, ErrConfiguration))
	})

	t.Run("Unreachable server is a connectivity error", func(t *testing.T) {
		factory, err := NewFactory(Config{})
		require.NoError(t, err)
		router := NewRouter(NewResolver(StaticSource{
			Default: "down",
			Connections: map[string]string{
				"down": "host=127.0.0.1 port=1 user=nobody dbname=nothing sslmode=disable connect_timeout=1",
			},
		}), factory)
		defer router.Close()

		_, err = router.Conn(ctx, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConnectivity))
		var dbErr *Error
		require.True(t, errors.As(err, &dbErr))
		assert.Equal(t, "default", dbErr.Target)
		assert.NotContains(t, err.Error(), "nobody")
	})

	t.Run("Ping reaches the database", func(t *testing.T) {
		router := newSQLiteRouter(t)
		assert.NoError(t, router.Ping(ctx, "main"))
		assert.Equal(t, DriverSQLite, router.Driver())
	})

	t.Run("Pools are reused per connection string", func(t *testing.T) {
		router := newSQLiteRouter(t)
		a, err := router.Conn(ctx, "")
		require.NoError(t, err)
		defer a.Close()
		b, err := router.Conn(ctx, "main")
		require.NoError(t, err)
		defer b.Close()
		assert.Equal(t, 1, router.factory.pools.Len())
	})

	t.Run("An evicted pool stays open until its pending open returns", func(t *testing.T) {
		dir := t.TempDir()
		factory, err := NewFactory(Config{Driver: DriverSQLite, MaxPools: 1})
		require.NoError(t, err)
		defer factory.Close()

		pending, err := factory.acquire(SQLiteDSN(filepath.Join(dir, "a.db")))
		require.NoError(t, err)
		// Opening a second database evicts the first pool.
		conn, err := factory.Open(ctx, SQLiteDSN(filepath.Join(dir, "b.db")))
		require.NoError(t, err)
		defer conn.Close()
		assert.Equal(t, 1, factory.pools.Len())

		pinned, err := pending.db.Connx(ctx)
		require.NoError(t, err)
		require.NoError(t, pinned.Close())

		factory.unpin(pending)
		assert.Error(t, pending.db.PingContext(ctx))
	})

	t.Run("Opens across more databases than pools all succeed", func(t *testing.T) {
		dir := t.TempDir()
		factory, err := NewFactory(Config{Driver: DriverSQLite, MaxPools: 1})
		require.NoError(t, err)
		defer factory.Close()
		dsns := []string{
			SQLiteDSN(filepath.Join(dir, "a.db")),
			SQLiteDSN(filepath.Join(dir, "b.db")),
			SQLiteDSN(filepath.Join(dir, "c.db")),
		}

		var wg sync.WaitGroup
		errs := make(chan error, 30)
		for i := 0; i < 30; i++ {
			wg.Add(1)
			go func(dsn string) {
				defer wg.Done()
				conn, err := factory.Open(ctx, dsn)
				if err != nil {
					errs <- err
					return
				}
				errs <- conn.Close()
			}(dsns[i%len(dsns)])
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	})
}

// pkg/db/postgres.go
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver, registered as "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver, registered as "sqlite"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 5 * time.Minute
	defaultMaxPools        = 32
)

// Config holds database connection configuration.
// Connections maps a tenant identifier to its connection string; DefaultConnection names
// the entry used when no identifier is given.
type Config struct {
	Driver            string            `koanf:"driver" validate:"omitempty,oneof=postgres pgx sqlite"`
	DefaultConnection string            `koanf:"default_connection"`
	Connections       map[string]string `koanf:"connections"`
	MaxOpenConns      int               `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns      int               `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime   time.Duration     `koanf:"conn_max_lifetime"`
	MaxPools          int               `koanf:"max_pools" validate:"gte=0"`

	// Used to synthesize the "default" connection when Connections is empty.
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

// PostgresDSN builds a lib/pq keyword/value connection string from the discrete fields.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// SQLiteDSN builds a modernc.org/sqlite DSN with the pragmas the data layer relies on.
// Transactions take the write lock at BEGIN so concurrent writers wait on busy_timeout
// instead of failing on lock upgrade.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Factory opens physical connections. It keeps one database/sql pool handle per
// connection string in a bounded LRU. An evicted handle is closed once no Open is
// still acquiring a connection from it.
type Factory struct {
	driver string
	cfg    Config
	mu     sync.Mutex
	pools  *lru.Cache[string, *poolEntry]
}

type poolEntry struct {
	db      *sqlx.DB
	opening int // Open calls between lookup and Connx
	evicted bool
}

// NewFactory creates a connection factory for cfg.Driver (postgres by default).
func NewFactory(cfg Config) (*Factory, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	size := cfg.MaxPools
	if size <= 0 {
		size = defaultMaxPools
	}
	// Called with f.mu held: eviction only happens inside acquire and Close.
	pools, err := lru.NewWithEvict[string, *poolEntry](size, func(_ string, entry *poolEntry) {
		if entry.evicted {
			return
		}
		entry.evicted = true
		if entry.opening == 0 {
			_ = entry.db.Close()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pool registry: %w", err)
	}
	return &Factory{driver: driver, cfg: cfg, pools: pools}, nil
}

// Driver returns the database/sql driver name used for every connection.
func (f *Factory) Driver() string { return f.driver }

// acquire returns the pool for connString, creating it if needed, and pins it
// against closing until the matching unpin.
func (f *Factory) acquire(connString string) (*poolEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.pools.Get(connString); ok {
		entry.opening++
		return entry, nil
	}
	pool, err := sqlx.Open(f.driver, connString)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	pool.SetMaxOpenConns(orDefault(f.cfg.MaxOpenConns, defaultMaxOpenConns))
	pool.SetMaxIdleConns(orDefault(f.cfg.MaxIdleConns, defaultMaxIdleConns))
	lifetime := f.cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	pool.SetConnMaxLifetime(lifetime)

	entry := &poolEntry{db: pool, opening: 1}
	f.pools.Add(connString, entry)
	return entry, nil
}

func (f *Factory) unpin(entry *poolEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.opening--
	if entry.evicted && entry.opening == 0 {
		_ = entry.db.Close()
	}
}

// Open acquires a dedicated physical connection for connString.
// The caller owns the connection and must Close it.
func (f *Factory) Open(ctx context.Context, connString string) (*sqlx.Conn, error) {
	entry, err := f.acquire(connString)
	if err != nil {
		return nil, newError(ErrConnectivity, "open", "", false, err)
	}
	conn, err := entry.db.Connx(ctx)
	f.unpin(entry)
	if err != nil {
		return nil, newError(ErrConnectivity, "open", "", false, err)
	}
	return conn, nil
}

// Close closes every pool handle. Handles still being opened from are closed when
// their last Open returns.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	for _, key := range f.pools.Keys() {
		entry, ok := f.pools.Peek(key)
		if !ok {
			continue
		}
		entry.evicted = true
		if entry.opening == 0 {
			if err := entry.db.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	f.pools.Purge()
	return errors.Join(errs...)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

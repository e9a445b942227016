// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type scopeState int

const (
	scopeActive scopeState = iota
	scopeCommitted
	scopeRolledBack
)

func (s scopeState) String() string {
	switch s {
	case scopeActive:
		return "active"
	case scopeCommitted:
		return "committed"
	default:
		return "rolled back"
	}
}

const abortTimeout = 5 * time.Second

// Scope is a transaction bound to one dedicated physical connection.
// Statements run through Do are serialized. Once committed or rolled back the
// scope is terminal and its connection is released.
type Scope struct {
	id     string
	target string

	mu       sync.Mutex
	conn     *sqlx.Conn
	tx       *sqlx.Tx
	state    scopeState
	released bool
}

// BeginScope starts a transaction on conn. The scope takes ownership of conn and
// closes it when the transaction ends, or immediately if BEGIN fails.
func BeginScope(ctx context.Context, conn *sqlx.Conn, target string, opts *sql.TxOptions) (*Scope, error) {
	tx, err := conn.BeginTxx(ctx, opts)
	if err != nil {
		_ = conn.Close()
		return nil, Classify("begin", targetName(target), false, err)
	}
	return &Scope{
		id:     uuid.NewString(),
		target: target,
		conn:   conn,
		tx:     tx,
	}, nil
}

// ID returns the unique identifier of the scope.
func (s *Scope) ID() string { return s.id }

// Target returns the connection identifier the scope was opened against.
func (s *Scope) Target() string { return s.target }

// Active reports whether the transaction can still run statements.
func (s *Scope) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == scopeActive
}

// Do runs fn with the transaction as executor. Concurrent callers are serialized.
func (s *Scope) Do(ctx context.Context, fn func(DBExecutor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != scopeActive {
		return newError(ErrInvalidState, "use", targetName(s.target), true, errScopeTerminal)
	}
	if err := ctx.Err(); err != nil {
		return Classify("use", targetName(s.target), true, err)
	}
	return fn(s.tx)
}

// Commit commits the transaction. If the commit fails the transaction is rolled back
// and the scope becomes terminal.
func (s *Scope) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != scopeActive {
		return newError(ErrInvalidState, "commit", targetName(s.target), false, errScopeTerminal)
	}
	if err := s.tx.Commit(); err != nil {
		s.abort()
		s.state = scopeRolledBack
		s.release()
		return Classify("commit", targetName(s.target), true, err)
	}
	s.state = scopeCommitted
	s.release()
	return nil
}

// Rollback discards the transaction.
func (s *Scope) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != scopeActive {
		return newError(ErrInvalidState, "rollback", targetName(s.target), false, errScopeTerminal)
	}
	return s.rollback()
}

// Close releases the scope, rolling back if it was neither committed nor rolled back.
// It is safe to call more than once.
func (s *Scope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == scopeActive {
		return s.rollback()
	}
	s.release()
	return nil
}

func (s *Scope) rollback() error {
	err := s.tx.Rollback()
	s.state = scopeRolledBack
	s.release()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return Classify("rollback", targetName(s.target), true, err)
	}
	return nil
}

// abort makes sure a failed COMMIT does not leave the server-side transaction open.
// database/sql marks the Tx done before the driver commits, so ROLLBACK is sent on the
// connection directly. Errors are ignored; the connection is discarded right after.
func (s *Scope) abort() {
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()
	_, _ = s.conn.ExecContext(ctx, "ROLLBACK")
}

func (s *Scope) release() {
	if s.released {
		return
	}
	s.released = true
	_ = s.conn.Close()
}

// String implements fmt.Stringer.
func (s *Scope) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "scope " + s.id + " (" + s.state.String() + ")"
}

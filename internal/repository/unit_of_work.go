// internal/repository/unit_of_work.go
package repository

import (
	"context"
	"errors"
	"sync"

	"finflow-ledger/pkg/db"
)

// UnitOfWorkState is the lifecycle state of a UnitOfWork.
type UnitOfWorkState int

const (
	UnitOfWorkIdle UnitOfWorkState = iota
	UnitOfWorkOpen
	UnitOfWorkCommitted
	UnitOfWorkRolledBack
	UnitOfWorkDisposed
)

func (s UnitOfWorkState) String() string {
	switch s {
	case UnitOfWorkIdle:
		return "idle"
	case UnitOfWorkOpen:
		return "open"
	case UnitOfWorkCommitted:
		return "committed"
	case UnitOfWorkRolledBack:
		return "rolled back"
	default:
		return "disposed"
	}
}

var (
	errTransactionOpen = errors.New("transaction already open")
	errNoTransaction   = errors.New("no open transaction")
	errDisposed        = errors.New("unit of work disposed")
)

// UnitOfWork owns at most one transaction scope at a time on one tenant database and
// hands out entity repositories bound to it. After Commit or Rollback the next
// Repository or Begin call starts a fresh transaction.
type UnitOfWork struct {
	router *db.Router
	target string

	mu    sync.Mutex
	scope *db.Scope
	state UnitOfWorkState
}

// NewUnitOfWork creates a unit of work on target ("" for the default database).
func NewUnitOfWork(router *db.Router, target string) *UnitOfWork {
	return &UnitOfWork{router: router, target: target}
}

// State returns the current lifecycle state.
func (u *UnitOfWork) State() UnitOfWorkState {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.settle()
	return u.state
}

// settle notices a scope that was ended directly through Session.Scope and counts it
// as rolled back, so the next request begins a fresh transaction.
func (u *UnitOfWork) settle() {
	if u.state != UnitOfWorkOpen || u.scope == nil || u.scope.Active() {
		return
	}
	_ = u.scope.Close()
	u.scope = nil
	u.state = UnitOfWorkRolledBack
}

// Begin explicitly opens a transaction.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.settle()
	switch u.state {
	case UnitOfWorkOpen:
		return u.invalid("begin", errTransactionOpen)
	case UnitOfWorkDisposed:
		return u.invalid("begin", errDisposed)
	}
	return u.begin(ctx)
}

func (u *UnitOfWork) begin(ctx context.Context) error {
	scope, err := u.router.Begin(ctx, u.target, nil)
	if err != nil {
		return err
	}
	u.scope = scope
	u.state = UnitOfWorkOpen
	return nil
}

// Scope returns the open transaction, beginning one if needed, so stored-procedure
// calls can join the same transaction as the entity repositories.
func (u *UnitOfWork) Scope(ctx context.Context) (*db.Scope, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == UnitOfWorkDisposed {
		return nil, u.invalid("scope", errDisposed)
	}
	u.settle()
	if u.state != UnitOfWorkOpen {
		if err := u.begin(ctx); err != nil {
			return nil, err
		}
	}
	return u.scope, nil
}

// Repository returns an entity repository bound to the unit of work's transaction,
// beginning the transaction if none is open.
func Repository[T any](ctx context.Context, u *UnitOfWork, entity Entity[T]) (*EntityRepository[T], error) {
	scope, err := u.Scope(ctx)
	if err != nil {
		return nil, err
	}
	return NewEntityRepository(scope, entity), nil
}

// Commit commits the open transaction. A failed commit leaves the unit of work rolled back.
func (u *UnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.settle()
	if u.state != UnitOfWorkOpen {
		return u.invalid("commit", u.notOpenCause())
	}
	err := u.scope.Commit()
	u.scope = nil
	if err != nil {
		u.state = UnitOfWorkRolledBack
		return err
	}
	u.state = UnitOfWorkCommitted
	return nil
}

// Rollback discards the open transaction.
func (u *UnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.settle()
	if u.state != UnitOfWorkOpen {
		return u.invalid("rollback", u.notOpenCause())
	}
	err := u.scope.Rollback()
	u.scope = nil
	u.state = UnitOfWorkRolledBack
	return err
}

// Close releases the unit of work, rolling back an open transaction.
// Further use fails with db.ErrInvalidState. Close is idempotent.
func (u *UnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	var err error
	if u.scope != nil {
		err = u.scope.Close()
		u.scope = nil
	}
	u.state = UnitOfWorkDisposed
	return err
}

func (u *UnitOfWork) notOpenCause() error {
	if u.state == UnitOfWorkDisposed {
		return errDisposed
	}
	return errNoTransaction
}

func (u *UnitOfWork) invalid(op string, cause error) error {
	target := u.target
	if target == "" {
		target = "default"
	}
	return &db.Error{Kind: db.ErrInvalidState, Op: op, Target: target, Err: cause}
}

// internal/repository/session.go
package repository

import (
	"context"

	"finflow-ledger/pkg/db"
)

// Session tells a repository where to run. Target selects the tenant database; when Scope
// is set the call joins that transaction instead of using its own connection.
type Session struct {
	Target string
	Scope  *db.Scope
}

// Call builds a stored-procedure call running in the session.
func (s Session) Call(procedure string, params ...Param) Call {
	return Call{Procedure: procedure, Params: params, Target: s.Target, Scope: s.Scope}
}

// Work is the transactional boundary a service drives. *UnitOfWork implements it.
type Work interface {
	Scope(ctx context.Context) (*db.Scope, error)
	Commit() error
	Rollback() error
	Close() error
}

var _ Work = (*UnitOfWork)(nil)

// Join returns a session bound to the transaction of w, beginning it if needed.
func Join(ctx context.Context, w Work, target string) (Session, error) {
	scope, err := w.Scope(ctx)
	if err != nil {
		return Session{}, err
	}
	return Session{Target: target, Scope: scope}, nil
}

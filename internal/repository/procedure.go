// internal/repository/procedure.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finflow-ledger/pkg/db"

	"github.com/lib/pq"
)

// Shape is the result shape requested from a stored procedure.
type Shape string

const (
	ShapeList     Shape = "list"
	ShapeOne      Shape = "one"
	ShapeExecute  Shape = "execute"
	ShapeMultiple Shape = "multiple"
)

// Call describes one stored-procedure invocation.
// Target selects the tenant database ("" for the default). When Scope is set the call
// joins that transaction, Target is ignored and no connection is opened or closed.
type Call struct {
	Procedure string
	Params    Params
	Target    string
	Scope     *db.Scope
}

// CallEvent is reported to the CallObserver after every call.
type CallEvent struct {
	Procedure     string
	Shape         Shape
	Target        string
	InTransaction bool
	Duration      time.Duration
	Err           error
}

// CallObserver receives call events. Implementations must be safe for concurrent use.
type CallObserver interface {
	ObserveCall(ctx context.Context, event CallEvent)
}

type noopObserver struct{}

func (noopObserver) ObserveCall(context.Context, CallEvent) {}

// Result is the outcome of Execute: the row the procedure returned, mapped to T, and the
// values of the Out and InOut parameters keyed by parameter name.
type Result[T any] struct {
	Value   *T
	Outputs map[string]any
}

// ProcedureExecutor runs PostgreSQL functions and procedures against tenant databases.
type ProcedureExecutor struct {
	router   *db.Router
	observer CallObserver
}

// ExecutorOption configures a ProcedureExecutor.
type ExecutorOption func(*ProcedureExecutor)

// WithObserver installs a CallObserver.
func WithObserver(observer CallObserver) ExecutorOption {
	return func(e *ProcedureExecutor) {
		if observer != nil {
			e.observer = observer
		}
	}
}

// NewProcedureExecutor creates a ProcedureExecutor on top of router.
func NewProcedureExecutor(router *db.Router, opts ...ExecutorOption) *ProcedureExecutor {
	e := &ProcedureExecutor{router: router, observer: noopObserver{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchList runs a set-returning function and maps every row to T.
// It returns an empty, non-nil slice when there are no rows.
func FetchList[T any](ctx context.Context, e *ProcedureExecutor, call Call) ([]T, error) {
	items := make([]T, 0)
	err := e.run(ctx, call, ShapeList, false, func(q db.DBExecutor) error {
		query, args, err := selectStatement(call)
		if err != nil {
			return err
		}
		return q.SelectContext(ctx, &items, query, args...)
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]T, 0)
	}
	return items, nil
}

// FetchOne runs a function and maps its first row to T. Further rows are ignored.
// It returns nil, nil when the function returns no rows.
func FetchOne[T any](ctx context.Context, e *ProcedureExecutor, call Call) (*T, error) {
	var (
		item  T
		found bool
	)
	err := e.run(ctx, call, ShapeOne, false, func(q db.DBExecutor) error {
		query, args, err := selectStatement(call)
		if err != nil {
			return err
		}
		err = q.GetContext(ctx, &item, query, args...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

// Execute invokes a procedure with CALL. The row returned by the procedure (its OUT and
// INOUT arguments) is mapped to T and also reported by name in Result.Outputs.
// Value is nil when the procedure returns nothing. Params are never modified.
func Execute[T any](ctx context.Context, e *ProcedureExecutor, call Call) (Result[T], error) {
	res := Result[T]{Outputs: map[string]any{}}
	err := e.run(ctx, call, ShapeExecute, false, func(q db.DBExecutor) error {
		query, args, err := callStatement(call)
		if err != nil {
			return err
		}
		rows, err := q.QueryxContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		set, err := scanRowSet(rows)
		if err != nil {
			return err
		}
		if len(set) == 0 {
			return nil
		}
		res.Outputs = call.Params.outputs(set[0])
		res.Value, err = DecodeOne[T](set)
		return err
	})
	if err != nil {
		return Result[T]{}, err
	}
	return res, nil
}

// FetchMultiple runs a function returning refcursors and drains each cursor, in the order
// returned, into one RowSet. Cursors only live inside a transaction, so without a caller
// scope a private transaction is opened and committed around the call.
func (e *ProcedureExecutor) FetchMultiple(ctx context.Context, call Call) ([]RowSet, error) {
	sets := make([]RowSet, 0)
	err := e.run(ctx, call, ShapeMultiple, true, func(q db.DBExecutor) error {
		query, args, err := selectStatement(call)
		if err != nil {
			return err
		}
		var cursors []sql.NullString
		if err := q.SelectContext(ctx, &cursors, query, args...); err != nil {
			return err
		}
		for _, cursor := range cursors {
			if !cursor.Valid {
				continue
			}
			set, err := fetchCursor(ctx, q, cursor.String)
			if err != nil {
				return err
			}
			sets = append(sets, set)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

func fetchCursor(ctx context.Context, q db.DBExecutor, name string) (RowSet, error) {
	cursor := pq.QuoteIdentifier(name)
	rows, err := q.QueryxContext(ctx, "FETCH ALL FROM "+cursor)
	if err != nil {
		return nil, err
	}
	set, err := scanRowSet(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if _, err := q.ExecContext(ctx, "CLOSE "+cursor); err != nil {
		return nil, err
	}
	return set, nil
}

// run executes fn on the caller's scope, on a private transaction when needsTx is set,
// or on a dedicated connection released before returning.
func (e *ProcedureExecutor) run(ctx context.Context, call Call, shape Shape, needsTx bool, fn func(db.DBExecutor) error) (err error) {
	start := time.Now()
	inTx := call.Scope != nil || needsTx
	target := call.Target
	if call.Scope != nil {
		target = call.Scope.Target()
	}
	defer func() {
		e.observer.ObserveCall(ctx, CallEvent{
			Procedure:     call.Procedure,
			Shape:         shape,
			Target:        target,
			InTransaction: inTx,
			Duration:      time.Since(start),
			Err:           err,
		})
	}()

	if !validIdentifier(call.Procedure) {
		return db.Classify("call", call.Procedure, inTx, fmt.Errorf("invalid procedure name %q", call.Procedure))
	}

	switch {
	case call.Scope != nil:
		err = call.Scope.Do(ctx, fn)
	case needsTx:
		var scope *db.Scope
		scope, err = e.router.Begin(ctx, call.Target, nil)
		if err != nil {
			return err
		}
		defer scope.Close()
		if err = scope.Do(ctx, fn); err != nil {
			break
		}
		if commitErr := scope.Commit(); commitErr != nil {
			return asCallError(call.Procedure, commitErr)
		}
	default:
		conn, connErr := e.router.Conn(ctx, call.Target)
		if connErr != nil {
			return connErr
		}
		defer conn.Close()
		err = fn(conn)
	}
	return db.Classify("call", call.Procedure, inTx, err)
}

// asCallError re-targets a classified commit failure at the procedure, keeping its kind.
func asCallError(procedure string, err error) error {
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		return db.Classify("call", procedure, true, err)
	}
	return &db.Error{Kind: dbErr.Kind, Op: "call", Target: procedure, InTransaction: true, Err: dbErr.Err}
}

func selectStatement(call Call) (string, []any, error) {
	arguments, args, err := call.Params.arguments(false)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT * FROM %s(%s)", call.Procedure, arguments), args, nil
}

func callStatement(call Call) (string, []any, error) {
	arguments, args, err := call.Params.arguments(true)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("CALL %s(%s)", call.Procedure, arguments), args, nil
}

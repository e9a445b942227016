// internal/repository/entity.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finflow-ledger/pkg/db"

	sq "github.com/Masterminds/squirrel"
)

// tableSuffix pluralizes an entity name into its table name.
const tableSuffix = "s"

// Entity describes how a record type maps to its table.
// Columns lists every column in statement order, including Key and the audit columns.
type Entity[T any] struct {
	Name          string
	Key           string
	Columns       []string
	CreatedColumn string
	UpdatedColumn string

	// Values returns the column values of a record, keyed by column name.
	Values func(*T) map[string]any
	KeyOf  func(*T) int64
	SetKey func(*T, int64)
	// Stamp sets the creation time before insert; Touch sets the update time before update.
	Stamp func(*T, time.Time)
	Touch func(*T, time.Time)
}

// Table returns the table name: the entity name with a plural suffix.
func (e Entity[T]) Table() string { return e.Name + tableSuffix }

// InsertColumns returns the columns written by Add: all but the key and the update-audit column.
func (e Entity[T]) InsertColumns() []string {
	return e.columnsExcept(e.Key, e.UpdatedColumn)
}

// UpdateColumns returns the columns written by Update: all but the key and the creation-audit column.
func (e Entity[T]) UpdateColumns() []string {
	return e.columnsExcept(e.Key, e.CreatedColumn)
}

func (e Entity[T]) columnsExcept(skip ...string) []string {
	out := make([]string, 0, len(e.Columns))
outer:
	for _, c := range e.Columns {
		for _, s := range skip {
			if s != "" && c == s {
				continue outer
			}
		}
		out = append(out, c)
	}
	return out
}

func (e Entity[T]) values(item *T, columns []string) ([]any, error) {
	byName := e.Values(item)
	out := make([]any, len(columns))
	for i, c := range columns {
		v, ok := byName[c]
		if !ok {
			return nil, fmt.Errorf("entity %s has no value for column %s", e.Name, c)
		}
		out[i] = v
	}
	return out, nil
}

// EntityRepository performs CRUD for one entity inside one transaction scope.
type EntityRepository[T any] struct {
	entity Entity[T]
	scope  *db.Scope
	now    func() time.Time
}

// NewEntityRepository binds entity to scope.
func NewEntityRepository[T any](scope *db.Scope, entity Entity[T]) *EntityRepository[T] {
	return &EntityRepository[T]{
		entity: entity,
		scope:  scope,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetByID returns the record with the given key, or nil when there is none.
func (r *EntityRepository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	query, args, err := sq.Select(r.entity.Columns...).
		From(r.entity.Table()).
		Where(sq.Eq{r.entity.Key: id}).
		ToSql()
	if err != nil {
		return nil, r.fail("select", err)
	}

	var item T
	found := false
	err = r.scope.Do(ctx, func(q db.DBExecutor) error {
		err := q.GetContext(ctx, &item, q.Rebind(query), args...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return nil, r.fail("select", err)
	}
	if !found {
		return nil, nil
	}
	return &item, nil
}

// GetAll returns every record in storage order.
func (r *EntityRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	query, args, err := sq.Select(r.entity.Columns...).From(r.entity.Table()).ToSql()
	if err != nil {
		return nil, r.fail("select", err)
	}

	items := make([]T, 0)
	err = r.scope.Do(ctx, func(q db.DBExecutor) error {
		return q.SelectContext(ctx, &items, q.Rebind(query), args...)
	})
	if err != nil {
		return nil, r.fail("select", err)
	}
	return items, nil
}

// Add inserts item, stores the generated key on it and returns the key.
func (r *EntityRepository[T]) Add(ctx context.Context, item *T) (int64, error) {
	if r.entity.Stamp != nil {
		r.entity.Stamp(item, r.now())
	}
	columns := r.entity.InsertColumns()
	values, err := r.entity.values(item, columns)
	if err != nil {
		return 0, r.fail("insert", err)
	}
	query, args, err := sq.Insert(r.entity.Table()).
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING " + r.entity.Key).
		ToSql()
	if err != nil {
		return 0, r.fail("insert", err)
	}

	var id int64
	err = r.scope.Do(ctx, func(q db.DBExecutor) error {
		return q.GetContext(ctx, &id, q.Rebind(query), args...)
	})
	if err != nil {
		return 0, r.fail("insert", err)
	}
	if r.entity.SetKey != nil {
		r.entity.SetKey(item, id)
	}
	return id, nil
}

// Update writes item and returns the number of rows affected.
// The update-audit column is refreshed to the current time first.
func (r *EntityRepository[T]) Update(ctx context.Context, item *T) (int64, error) {
	if r.entity.Touch != nil {
		r.entity.Touch(item, r.now())
	}
	columns := r.entity.UpdateColumns()
	values, err := r.entity.values(item, columns)
	if err != nil {
		return 0, r.fail("update", err)
	}
	builder := sq.Update(r.entity.Table())
	for i, c := range columns {
		builder = builder.Set(c, values[i])
	}
	query, args, err := builder.Where(sq.Eq{r.entity.Key: r.entity.KeyOf(item)}).ToSql()
	if err != nil {
		return 0, r.fail("update", err)
	}
	return r.exec(ctx, "update", query, args)
}

// Remove deletes the record with the given key and returns the number of rows affected.
func (r *EntityRepository[T]) Remove(ctx context.Context, id int64) (int64, error) {
	query, args, err := sq.Delete(r.entity.Table()).Where(sq.Eq{r.entity.Key: id}).ToSql()
	if err != nil {
		return 0, r.fail("delete", err)
	}
	return r.exec(ctx, "delete", query, args)
}

func (r *EntityRepository[T]) exec(ctx context.Context, op, query string, args []any) (int64, error) {
	var affected int64
	err := r.scope.Do(ctx, func(q db.DBExecutor) error {
		res, err := q.ExecContext(ctx, q.Rebind(query), args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, r.fail(op, err)
	}
	return affected, nil
}

func (r *EntityRepository[T]) fail(op string, err error) error {
	return db.Classify(op, r.entity.Table(), true, err)
}

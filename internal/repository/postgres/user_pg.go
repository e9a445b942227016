// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
)

// UserEntity maps domain.User to the users table.
var UserEntity = repository.Entity[domain.User]{
	Name:          "user",
	Key:           "id",
	Columns:       []string{"id", "username", "created_at", "updated_at", "deleted_at"},
	CreatedColumn: "created_at",
	UpdatedColumn: "updated_at",
	Values: func(u *domain.User) map[string]any {
		return map[string]any{
			"id":         u.ID,
			"username":   u.Username,
			"created_at": u.CreatedAt,
			"updated_at": u.UpdatedAt,
			"deleted_at": u.DeletedAt,
		}
	},
	KeyOf:  func(u *domain.User) int64 { return u.ID },
	SetKey: func(u *domain.User, id int64) { u.ID = id },
	Stamp:  func(u *domain.User, now time.Time) { u.CreatedAt = now },
	Touch:  func(u *domain.User, now time.Time) { u.UpdatedAt = &now },
}

// UserRepository implements repository.UserRepository for PostgreSQL.
// Plain CRUD goes through the generic entity repository; deactivation is a stored procedure.
type UserRepository struct {
	executor *repository.ProcedureExecutor
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(executor *repository.ProcedureExecutor) repository.UserRepository {
	return &UserRepository{executor: executor}
}

func (r *UserRepository) entities(s repository.Session) (*repository.EntityRepository[domain.User], error) {
	if err := requireScope(UserEntity.Table(), s.Scope); err != nil {
		return nil, err
	}
	return repository.NewEntityRepository(s.Scope, UserEntity), nil
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, s repository.Session, user *domain.User) error {
	users, err := r.entities(s)
	if err != nil {
		return err
	}
	if _, err := users.Add(ctx, user); err != nil {
		if db.IsKind(err, db.ErrConstraintViolation) {
			return fmt.Errorf("%w: username %q: %w", util.ErrDuplicateEntry, user.Username, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, s repository.Session, id int64) (*domain.User, error) {
	users, err := r.entities(s)
	if err != nil {
		return nil, err
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	if user == nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

// UpdateUser writes the user back to the database.
func (r *UserRepository) UpdateUser(ctx context.Context, s repository.Session, user *domain.User) error {
	users, err := r.entities(s)
	if err != nil {
		return err
	}
	affected, err := users.Update(ctx, user)
	if err != nil {
		if db.IsKind(err, db.ErrConstraintViolation) {
			return fmt.Errorf("%w: username %q: %w", util.ErrDuplicateEntry, user.Username, err)
		}
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	if affected == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the user row.
func (r *UserRepository) DeleteUser(ctx context.Context, s repository.Session, id int64) error {
	users, err := r.entities(s)
	if err != nil {
		return err
	}
	affected, err := users.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if affected == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

type deactivation struct {
	DeactivatedAt time.Time `db:"p_deactivated_at"`
}

// DeactivateUser marks the user deleted without removing any row.
func (r *UserRepository) DeactivateUser(ctx context.Context, s repository.Session, id int64) (time.Time, error) {
	res, err := repository.Execute[deactivation](ctx, r.executor, s.Call("user_deactivate",
		repository.In("p_user_id", id),
		repository.Out("p_deactivated_at"),
	))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to deactivate user %d: %w", id, walletCallError(err, util.ErrUserNotFound))
	}
	if res.Value == nil {
		return time.Time{}, fmt.Errorf("failed to deactivate user %d: procedure returned no row", id)
	}
	return res.Value.DeactivatedAt, nil
}

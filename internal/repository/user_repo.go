// internal/repository/user_repo.go
package repository

import (
	"context"
	"time"

	"finflow-ledger/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// CreateUser inserts user and sets its generated ID. Requires a session with a scope.
	CreateUser(ctx context.Context, s Session, user *domain.User) error
	// GetUserByID retrieves a user by ID. Requires a session with a scope.
	GetUserByID(ctx context.Context, s Session, id int64) (*domain.User, error)
	// UpdateUser writes user back, refreshing its update time. Requires a session with a scope.
	UpdateUser(ctx context.Context, s Session, user *domain.User) error
	// DeleteUser physically deletes a user and, by cascade, its wallets. Requires a session with a scope.
	DeleteUser(ctx context.Context, s Session, id int64) error
	// DeactivateUser soft-deletes a user through the user_deactivate procedure.
	DeactivateUser(ctx context.Context, s Session, id int64) (time.Time, error)
}

// internal/service/user_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
)

// UserService manages user accounts.
type UserService interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	RenameUser(ctx context.Context, id int64, username string) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	DeactivateUser(ctx context.Context, id int64) (time.Time, error)
}

type userService struct {
	newWork  WorkFactory
	userRepo repository.UserRepository
}

// NewUserService creates a new instance of UserService.
func NewUserService(newWork WorkFactory, userRepo repository.UserRepository) UserService {
	return &userService{newWork: newWork, userRepo: userRepo}
}

// GetUser loads a user. Entity reads need a transaction, so a short one is opened and rolled back.
func (s *userService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	err := readWithRetry(ctx, func(ctx context.Context) error {
		tenant := TenantFrom(ctx)
		work := s.newWork(tenant)
		defer work.Close()
		session, err := repository.Join(ctx, work, tenant)
		if err != nil {
			return err
		}
		user, err = s.userRepo.GetUserByID(ctx, session, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// RenameUser changes a username.
func (s *userService) RenameUser(ctx context.Context, id int64, username string) (*domain.User, error) {
	if username == "" {
		return nil, util.ErrInvalidInput
	}

	tenant := TenantFrom(ctx)
	work := s.newWork(tenant)
	defer work.Close()
	session, err := repository.Join(ctx, work, tenant)
	if err != nil {
		return nil, fmt.Errorf("rename user: failed to begin transaction: %w", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, session, id)
	if err != nil {
		return nil, fmt.Errorf("rename user: %w", err)
	}
	if !user.Active() {
		return nil, fmt.Errorf("rename user: %w", util.ErrUserNotFound)
	}
	user.Username = username
	if err := s.userRepo.UpdateUser(ctx, session, user); err != nil {
		return nil, fmt.Errorf("rename user: %w", err)
	}

	if err := work.Commit(); err != nil {
		return nil, fmt.Errorf("rename user: failed to commit transaction: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user and its wallets for good.
func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	tenant := TenantFrom(ctx)
	work := s.newWork(tenant)
	defer work.Close()
	session, err := repository.Join(ctx, work, tenant)
	if err != nil {
		return fmt.Errorf("delete user: failed to begin transaction: %w", err)
	}
	if err := s.userRepo.DeleteUser(ctx, session, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := work.Commit(); err != nil {
		return fmt.Errorf("delete user: failed to commit transaction: %w", err)
	}
	return nil
}

// DeactivateUser soft-deletes a user and returns when it happened.
func (s *userService) DeactivateUser(ctx context.Context, id int64) (time.Time, error) {
	at, err := s.userRepo.DeactivateUser(ctx, repository.Session{Target: TenantFrom(ctx)}, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("deactivate user: %w", err)
	}
	return at, nil
}

// internal/repository/postgres/user_pg_test.go
package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create, rename and delete a user inside one unit of work", func(t *testing.T) {
		router := newSQLiteRouter(t)
		repo := NewUserRepository(repository.NewProcedureExecutor(router))
		uow := repository.NewUnitOfWork(router, "")
		defer uow.Close()
		s, err := repository.Join(ctx, uow, "")
		require.NoError(t, err)

		user := domain.NewUser("alice")
		require.NoError(t, repo.CreateUser(ctx, s, user))
		assert.NotZero(t, user.ID)

		got, err := repo.GetUserByID(ctx, s, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Nil(t, got.UpdatedAt)
		assert.True(t, got.Active())

		got.Username = "alicia"
		require.NoError(t, repo.UpdateUser(ctx, s, got))
		require.NotNil(t, got.UpdatedAt)

		renamed, err := repo.GetUserByID(ctx, s, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alicia", renamed.Username)

		require.NoError(t, repo.DeleteUser(ctx, s, user.ID))
		_, err = repo.GetUserByID(ctx, s, user.ID)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
		require.NoError(t, uow.Commit())
	})

	t.Run("Should report duplicate usernames", func(t *testing.T) {
		router := newSQLiteRouter(t)
		repo := NewUserRepository(repository.NewProcedureExecutor(router))
		uow := repository.NewUnitOfWork(router, "")
		defer uow.Close()
		s, err := repository.Join(ctx, uow, "")
		require.NoError(t, err)

		require.NoError(t, repo.CreateUser(ctx, s, domain.NewUser("bob")))
		err = repo.CreateUser(ctx, s, domain.NewUser("bob"))
		assert.ErrorIs(t, err, util.ErrDuplicateEntry)
		assert.ErrorIs(t, err, db.ErrConstraintViolation)
	})

	t.Run("Should report missing users on update and delete", func(t *testing.T) {
		router := newSQLiteRouter(t)
		repo := NewUserRepository(repository.NewProcedureExecutor(router))
		uow := repository.NewUnitOfWork(router, "")
		defer uow.Close()
		s, err := repository.Join(ctx, uow, "")
		require.NoError(t, err)

		assert.ErrorIs(t, repo.UpdateUser(ctx, s, &domain.User{ID: 99, Username: "ghost"}), util.ErrUserNotFound)
		assert.ErrorIs(t, repo.DeleteUser(ctx, s, 99), util.ErrUserNotFound)
	})

	t.Run("Should refuse entity access without a transaction", func(t *testing.T) {
		router := newSQLiteRouter(t)
		repo := NewUserRepository(repository.NewProcedureExecutor(router))

		err := repo.CreateUser(ctx, repository.Session{}, domain.NewUser("carol"))
		assert.ErrorIs(t, err, db.ErrInvalidState)
		_, err = repo.GetUserByID(ctx, repository.Session{}, 1)
		assert.ErrorIs(t, err, db.ErrInvalidState)
	})
}

func TestUserRepository_DeactivateUser(t *testing.T) {
	ctx := context.Background()
	const call = "CALL user_deactivate(p_user_id => $1, p_deactivated_at => NULL)"

	t.Run("Should return the deactivation time", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(call).WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"p_deactivated_at"}).AddRow(at))

		got, err := NewUserRepository(executor).DeactivateUser(ctx, repository.Session{}, 4)
		require.NoError(t, err)
		assert.True(t, at.Equal(got))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should map no_data_found to a missing user", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		mock.ExpectQuery(call).WithArgs(int64(4)).
			WillReturnError(&pq.Error{Code: "P0002", Message: "active user 4 not found"})

		_, err := NewUserRepository(executor).DeactivateUser(ctx, repository.Session{}, 4)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
		assert.ErrorIs(t, err, db.ErrDataAccess)
	})

	t.Run("Should fail when the procedure returns no row", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		mock.ExpectQuery(call).WithArgs(int64(4)).WillReturnRows(sqlmock.NewRows(nil))

		_, err := NewUserRepository(executor).DeactivateUser(ctx, repository.Session{}, 4)
		require.Error(t, err)
		assert.False(t, errors.Is(err, util.ErrUserNotFound))
	})
}

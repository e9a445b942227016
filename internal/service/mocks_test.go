// internal/service/mocks_test.go
package service

import (
	"context"
	"testing"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/pkg/db"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockWork is a mock implementation of repository.Work.
type MockWork struct {
	mock.Mock
}

func (m *MockWork) Scope(ctx context.Context) (*db.Scope, error) {
	args := m.Called(ctx)
	scope, _ := args.Get(0).(*db.Scope)
	return scope, args.Error(1)
}

func (m *MockWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockWork) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, s repository.Session, user *domain.User) error {
	args := m.Called(ctx, s, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, s repository.Session, id int64) (*domain.User, error) {
	args := m.Called(ctx, s, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, s repository.Session, user *domain.User) error {
	args := m.Called(ctx, s, user)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, s repository.Session, id int64) error {
	args := m.Called(ctx, s, id)
	return args.Error(0)
}

func (m *MockUserRepository) DeactivateUser(ctx context.Context, s repository.Session, id int64) (time.Time, error) {
	args := m.Called(ctx, s, id)
	return args.Get(0).(time.Time), args.Error(1)
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, s repository.Session, wallet *domain.Wallet) error {
	args := m.Called(ctx, s, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByID(ctx context.Context, s repository.Session, id int64) (*domain.Wallet, error) {
	args := m.Called(ctx, s, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletsByUserID(ctx context.Context, s repository.Session, userID int64) ([]domain.Wallet, error) {
	args := m.Called(ctx, s, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Deposit(ctx context.Context, s repository.Session, walletID int64, amount decimal.Decimal, currency string) (int64, error) {
	args := m.Called(ctx, s, walletID, amount, currency)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepository) Withdraw(ctx context.Context, s repository.Session, walletID int64, amount decimal.Decimal, currency string) (int64, error) {
	args := m.Called(ctx, s, walletID, amount, currency)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepository) Transfer(ctx context.Context, s repository.Session, fromWalletID, toWalletID int64, amount decimal.Decimal, currency string) (int64, error) {
	args := m.Called(ctx, s, fromWalletID, toWalletID, amount, currency)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) GetTransactionByID(ctx context.Context, s repository.Session, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, s, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionsByWalletID(ctx context.Context, s repository.Session, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, s, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) GetStatement(ctx context.Context, s repository.Session, walletID int64, limit int) (*domain.Statement, error) {
	args := m.Called(ctx, s, walletID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

// fixture bundles a service under test with its mocks.
type fixture struct {
	work    *MockWork
	users   *MockUserRepository
	wallets *MockWalletRepository
	txs     *MockTransactionRepository
	tenants []string
	wallet  WalletService
	user    UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		work:    new(MockWork),
		users:   new(MockUserRepository),
		wallets: new(MockWalletRepository),
		txs:     new(MockTransactionRepository),
	}
	newWork := func(tenant string) repository.Work {
		f.tenants = append(f.tenants, tenant)
		return f.work
	}
	f.wallet = NewWalletService(newWork, f.users, f.wallets, f.txs)
	f.user = NewUserService(newWork, f.users)

	previous := readBackoff
	readBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(func() { readBackoff = previous })
	return f
}

// expectTransaction expects one unit of work that is always closed and committed when commit is set.
func (f *fixture) expectTransaction(commit bool) {
	f.work.On("Scope", mock.Anything).Return(nil, nil).Once()
	f.work.On("Close").Return(nil).Once()
	if commit {
		f.work.On("Commit").Return(nil).Once()
	}
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	mock.AssertExpectationsForObjects(t, f.work, f.users, f.wallets, f.txs)
}

// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"

	"github.com/shopspring/decimal"
)

// DefaultStatementSize is the number of recent transactions a statement lists when the caller does not say.
const DefaultStatementSize = 20

// WorkFactory opens a unit of work on a tenant database ("" for the default).
type WorkFactory func(tenant string) repository.Work

// WalletService defines the interface for wallet-related business logic.
// Every method runs against the tenant carried by ctx (see WithTenant).
type WalletService interface {
	Deposit(ctx context.Context, walletID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.Transaction, error)
	Withdraw(ctx context.Context, walletID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.Transaction, error)
	Transfer(ctx context.Context, fromWalletID, toWalletID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.Wallet, *domain.Transaction, error)
	GetBalance(ctx context.Context, walletID int64) (*domain.Wallet, error)
	GetTransactionHistory(ctx context.Context, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
	GetStatement(ctx context.Context, walletID int64, limit int) (*domain.Statement, error)
	ListWallets(ctx context.Context, userID int64) ([]domain.Wallet, error)
	CreateUserAndWallet(ctx context.Context, username, currency string) (*domain.User, *domain.Wallet, error)
}

// walletService implements the WalletService interface.
type walletService struct {
	newWork         WorkFactory
	userRepo        repository.UserRepository
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	newWork WorkFactory,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
) WalletService {
	return &walletService{
		newWork:         newWork,
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

// Deposit adds money to a user's wallet.
func (s *walletService) Deposit(ctx context.Context, walletID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidInput
	}

	tenant := TenantFrom(ctx)
	work := s.newWork(tenant)
	defer work.Close()
	session, err := repository.Join(ctx, work, tenant)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit: failed to begin transaction: %w", err)
	}

	txID, err := s.walletRepo.Deposit(ctx, session, walletID, amount, currency)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit: failed to update wallet balance: %w", err)
	}
	wallet, transaction, err := s.reload(ctx, session, walletID, txID)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}

	if err := work.Commit(); err != nil {
		return nil, nil, fmt.Errorf("deposit: failed to commit transaction: %w", err)
	}
	return wallet, transaction, nil
}

// Withdraw takes money out of a wallet. Overdrafts are rejected by the database.
func (s *walletService) Withdraw(ctx context.Context, walletID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidInput
	}

	tenant := TenantFrom(ctx)
	work := s.newWork(tenant)
	defer work.Close()
	session, err := repository.Join(ctx, work, tenant)
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw: failed to begin transaction: %w", err)
	}

	txID, err := s.walletRepo.Withdraw(ctx, session, walletID, amount, currency)
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw: failed to update wallet balance: %w", err)
	}
	wallet, transaction, err := s.reload(ctx, session, walletID, txID)
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw: %w", err)
	}

	if err := work.Commit(); err != nil {
		return nil, nil, fmt.Errorf("withdraw: failed to commit transaction: %w", err)
	}
	return wallet, transaction, nil
}

func (s *walletService) Transfer(ctx context.Context, fromWalletID, toWalletID int64, amount decimal.Decimal, currency string) (*domain.Wallet, *domain.Wallet, *domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, nil, util.ErrInvalidInput
	}
	if fromWalletID == toWalletID {
		return nil, nil, nil, util.ErrSameWalletTransfer
	}

	tenant := TenantFrom(ctx)
	work := s.newWork(tenant)
	defer work.Close()
	session, err := repository.Join(ctx, work, tenant)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("transfer: failed to begin transaction: %w", err)
	}

	txID, err := s.walletRepo.Transfer(ctx, session, fromWalletID, toWalletID, amount, currency)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("transfer: failed to move funds: %w", err)
	}
	fromWallet, transaction, err := s.reload(ctx, session, fromWalletID, txID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("transfer: %w", err)
	}
	toWallet, err := s.walletRepo.GetWalletByID(ctx, session, toWalletID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("transfer: failed to re-fetch updated destination wallet %d: %w", toWalletID, err)
	}

	if err := work.Commit(); err != nil {
		return nil, nil, nil, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}
	return fromWallet, toWallet, transaction, nil
}

// reload reads the wallet and the recorded transaction back inside the same transaction.
func (s *walletService) reload(ctx context.Context, session repository.Session, walletID, txID int64) (*domain.Wallet, *domain.Transaction, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, session, walletID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to re-fetch updated wallet %d: %w", walletID, err)
	}
	transaction, err := s.transactionRepo.GetTransactionByID(ctx, session, txID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch transaction %d: %w", txID, err)
	}
	return wallet, transaction, nil
}

func (s *walletService) GetBalance(ctx context.Context, walletID int64) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := readWithRetry(ctx, func(ctx context.Context) error {
		var err error
		wallet, err = s.walletRepo.GetWalletByID(ctx, s.readSession(ctx), walletID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get balance: failed to get wallet %d: %w", walletID, err)
	}
	return wallet, nil
}

// GetTransactionHistory retrieves a paginated list of transactions for a specific wallet.
func (s *walletService) GetTransactionHistory(ctx context.Context, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, util.ErrInvalidInput
	}

	var (
		transactions []domain.Transaction
		totalCount   int64
	)
	err := readWithRetry(ctx, func(ctx context.Context) error {
		session := s.readSession(ctx)
		// First, check if the wallet exists
		if _, err := s.walletRepo.GetWalletByID(ctx, session, walletID); err != nil {
			return err
		}
		var err error
		transactions, totalCount, err = s.transactionRepo.GetTransactionsByWalletID(ctx, session, walletID, limit, offset)
		return err
	})
	if err != nil {
		if errors.Is(err, util.ErrWalletNotFound) {
			return nil, 0, util.ErrWalletNotFound
		}
		return nil, 0, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}
	return transactions, totalCount, nil
}

// GetStatement builds a wallet report with the limit most recent transactions.
func (s *walletService) GetStatement(ctx context.Context, walletID int64, limit int) (*domain.Statement, error) {
	if limit < 0 {
		return nil, util.ErrInvalidInput
	}
	if limit == 0 {
		limit = DefaultStatementSize
	}

	var statement *domain.Statement
	err := readWithRetry(ctx, func(ctx context.Context) error {
		var err error
		statement, err = s.transactionRepo.GetStatement(ctx, s.readSession(ctx), walletID, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get statement: %w", err)
	}
	return statement, nil
}

// ListWallets returns the wallets a user owns.
func (s *walletService) ListWallets(ctx context.Context, userID int64) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	err := readWithRetry(ctx, func(ctx context.Context) error {
		var err error
		wallets, err = s.walletRepo.GetWalletsByUserID(ctx, s.readSession(ctx), userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list wallets of user %d: %w", userID, err)
	}
	return wallets, nil
}

// CreateUserAndWallet creates a user and its first wallet in one transaction.
func (s *walletService) CreateUserAndWallet(ctx context.Context, username, currency string) (*domain.User, *domain.Wallet, error) {
	if username == "" || currency == "" {
		return nil, nil, util.ErrInvalidInput
	}

	tenant := TenantFrom(ctx)
	work := s.newWork(tenant)
	defer work.Close()
	session, err := repository.Join(ctx, work, tenant)
	if err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to begin transaction: %w", err)
	}

	user := domain.NewUser(username)
	if err := s.userRepo.CreateUser(ctx, session, user); err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to create user: %w", err)
	}

	wallet := domain.NewWallet(user.ID, currency)
	if err := s.walletRepo.CreateWallet(ctx, session, wallet); err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to create wallet: %w", err)
	}

	if err := work.Commit(); err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to commit transaction: %w", err)
	}
	return user, wallet, nil
}

// readSession runs reads on a pooled connection of the request's tenant, outside any transaction.
func (s *walletService) readSession(ctx context.Context) repository.Session {
	return repository.Session{Target: TenantFrom(ctx)}
}

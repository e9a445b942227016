// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"finflow-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new wallet to the database. Requires a session with a scope.
	CreateWallet(ctx context.Context, s Session, wallet *domain.Wallet) error
	// GetWalletByID retrieves a wallet by its ID.
	GetWalletByID(ctx context.Context, s Session, id int64) (*domain.Wallet, error)
	// GetWalletsByUserID lists the wallets owned by a user.
	GetWalletsByUserID(ctx context.Context, s Session, userID int64) ([]domain.Wallet, error)
	// Deposit credits a wallet and records the transaction. It returns the transaction ID.
	Deposit(ctx context.Context, s Session, walletID int64, amount decimal.Decimal, currency string) (int64, error)
	// Withdraw debits a wallet and records the transaction. It returns the transaction ID.
	Withdraw(ctx context.Context, s Session, walletID int64, amount decimal.Decimal, currency string) (int64, error)
	// Transfer moves funds between two wallets and records the transaction. It returns the transaction ID.
	Transfer(ctx context.Context, s Session, fromWalletID, toWalletID int64, amount decimal.Decimal, currency string) (int64, error)
}

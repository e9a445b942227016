// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"finflow-ledger/internal/domain"
)

// TransactionRepository defines the interface for transaction data operations.
type TransactionRepository interface {
	// GetTransactionByID retrieves a single transaction.
	GetTransactionByID(ctx context.Context, s Session, id int64) (*domain.Transaction, error)
	// GetTransactionsByWalletID retrieves one page of a wallet's history, newest first, and the total count.
	GetTransactionsByWalletID(ctx context.Context, s Session, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
	// GetStatement builds a wallet report from the wallet_statement result sets.
	GetStatement(ctx context.Context, s Session, walletID int64, limit int) (*domain.Statement, error)
}

// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"fmt"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
)

// statementSets is the number of result sets wallet_statement emits:
// the wallet, its recent transactions and the per-type totals.
const statementSets = 3

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	executor *repository.ProcedureExecutor
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(executor *repository.ProcedureExecutor) repository.TransactionRepository {
	return &TransactionRepository{executor: executor}
}

// GetTransactionByID retrieves a transaction through transaction_get.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, s repository.Session, id int64) (*domain.Transaction, error) {
	transaction, err := repository.FetchOne[domain.Transaction](ctx, r.executor, s.Call("transaction_get",
		repository.In("p_transaction_id", id),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	if transaction == nil {
		return nil, util.ErrNotFound
	}
	return transaction, nil
}

// GetTransactionsByWalletID retrieves transaction history for a specific wallet.
func (r *TransactionRepository) GetTransactionsByWalletID(ctx context.Context, s repository.Session, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions, err := repository.FetchList[domain.Transaction](ctx, r.executor, s.Call("wallet_transactions",
		repository.In("p_wallet_id", walletID),
		repository.In("p_limit", limit),
		repository.In("p_offset", offset),
	))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transactions for wallet %d: %w", walletID, err)
	}

	total, err := repository.FetchOne[int64](ctx, r.executor, s.Call("wallet_transaction_count",
		repository.In("p_wallet_id", walletID),
	))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for wallet %d: %w", walletID, err)
	}
	var totalCount int64
	if total != nil {
		totalCount = *total
	}
	return transactions, totalCount, nil
}

// GetStatement decodes the three result sets of wallet_statement.
func (r *TransactionRepository) GetStatement(ctx context.Context, s repository.Session, walletID int64, limit int) (*domain.Statement, error) {
	sets, err := r.executor.FetchMultiple(ctx, s.Call("wallet_statement",
		repository.In("p_wallet_id", walletID),
		repository.In("p_limit", limit),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build statement for wallet %d: %w", walletID, err)
	}
	if len(sets) != statementSets {
		return nil, fmt.Errorf("wallet_statement returned %d result sets, want %d", len(sets), statementSets)
	}

	wallet, err := repository.DecodeOne[domain.Wallet](sets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode statement wallet: %w", err)
	}
	if wallet == nil {
		return nil, util.ErrWalletNotFound
	}
	transactions, err := repository.Decode[domain.Transaction](sets[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode statement transactions: %w", err)
	}
	totals, err := repository.Decode[domain.TypeTotal](sets[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode statement totals: %w", err)
	}
	return &domain.Statement{Wallet: *wallet, Transactions: transactions, Totals: totals}, nil
}

// internal/repository/postgres/transaction_pg_test.go
package postgres

import (
	"context"
	"testing"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionColumns = []string{
	"id", "from_wallet_id", "to_wallet_id", "amount", "currency", "type", "status",
	"transaction_time", "description", "created_at",
}

func TestTransactionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	t.Run("Should load a transaction with nullable wallets", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT * FROM transaction_get(p_transaction_id => $1)").WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(transactionColumns).
				AddRow(int64(9), nil, int64(3), "40.0000", "USD", "DEPOSIT", "COMPLETED", now, nil, now))

		tx, err := NewTransactionRepository(executor).GetTransactionByID(ctx, repository.Session{}, 9)
		require.NoError(t, err)
		assert.Nil(t, tx.FromWalletID)
		require.NotNil(t, tx.ToWalletID)
		assert.Equal(t, int64(3), *tx.ToWalletID)
		assert.Equal(t, domain.TransactionTypeDeposit, tx.Type)
	})

	t.Run("Should report a missing transaction", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT * FROM transaction_get(p_transaction_id => $1)").WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(transactionColumns))

		_, err := NewTransactionRepository(executor).GetTransactionByID(ctx, repository.Session{}, 9)
		assert.ErrorIs(t, err, util.ErrNotFound)
	})

	t.Run("Should page history and count the total", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		mock.ExpectQuery("SELECT * FROM wallet_transactions(p_wallet_id => $1, p_limit => $2, p_offset => $3)").
			WithArgs(int64(3), 2, 0).
			WillReturnRows(sqlmock.NewRows(transactionColumns).
				AddRow(int64(2), int64(3), nil, "5", "USD", "WITHDRAWAL", "COMPLETED", now, nil, now).
				AddRow(int64(1), nil, int64(3), "40", "USD", "DEPOSIT", "COMPLETED", now, "salary", now))
		mock.ExpectQuery("SELECT * FROM wallet_transaction_count(p_wallet_id => $1)").WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"wallet_transaction_count"}).AddRow(int64(7)))

		txs, total, err := NewTransactionRepository(executor).GetTransactionsByWalletID(ctx, repository.Session{}, 3, 2, 0)
		require.NoError(t, err)
		assert.Len(t, txs, 2)
		assert.Equal(t, int64(7), total)
		require.NotNil(t, txs[1].Description)
		assert.Equal(t, "salary", *txs[1].Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetStatement(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	const statement = "SELECT * FROM wallet_statement(p_wallet_id => $1, p_limit => $2)"

	expectCursors := func(mock sqlmock.Sqlmock, wallets *sqlmock.Rows) {
		mock.ExpectBegin()
		mock.ExpectQuery(statement).WithArgs(int64(3), 10).
			WillReturnRows(sqlmock.NewRows([]string{"wallet_statement"}).
				AddRow("<unnamed portal 1>").AddRow("<unnamed portal 2>").AddRow("<unnamed portal 3>"))
		mock.ExpectQuery(`FETCH ALL FROM "<unnamed portal 1>"`).WillReturnRows(wallets)
		mock.ExpectExec(`CLOSE "<unnamed portal 1>"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FETCH ALL FROM "<unnamed portal 2>"`).
			WillReturnRows(sqlmock.NewRows(transactionColumns).
				AddRow(int64(1), nil, int64(3), "40", "USD", "DEPOSIT", "COMPLETED", now, nil, now))
		mock.ExpectExec(`CLOSE "<unnamed portal 2>"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FETCH ALL FROM "<unnamed portal 3>"`).
			WillReturnRows(sqlmock.NewRows([]string{"type", "count", "total"}).AddRow("DEPOSIT", int64(1), "40"))
		mock.ExpectExec(`CLOSE "<unnamed portal 3>"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
	}

	t.Run("Should decode the three result sets", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		expectCursors(mock, sqlmock.NewRows(walletColumns).AddRow(int64(3), int64(1), "USD", "40", now, now))

		st, err := NewTransactionRepository(executor).GetStatement(ctx, repository.Session{}, 3, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), st.Wallet.ID)
		require.Len(t, st.Transactions, 1)
		require.Len(t, st.Totals, 1)
		assert.Equal(t, domain.TransactionTypeDeposit, st.Totals[0].Type)
		assert.Equal(t, int64(1), st.Totals[0].Count)
		assert.True(t, decimal.NewFromInt(40).Equal(st.Totals[0].Total))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report a missing wallet", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		expectCursors(mock, sqlmock.NewRows(walletColumns))

		_, err := NewTransactionRepository(executor).GetStatement(ctx, repository.Session{}, 3, 10)
		assert.ErrorIs(t, err, util.ErrWalletNotFound)
	})

	t.Run("Should reject an unexpected number of result sets", func(t *testing.T) {
		executor, _, mock := newMockExecutor(t)
		mock.ExpectBegin()
		mock.ExpectQuery(statement).WithArgs(int64(3), 10).
			WillReturnRows(sqlmock.NewRows([]string{"wallet_statement"}))
		mock.ExpectCommit()

		_, err := NewTransactionRepository(executor).GetStatement(ctx, repository.Session{}, 3, 10)
		assert.ErrorContains(t, err, "returned 0 result sets")
	})
}

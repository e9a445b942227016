// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

const (
	walletUserCurrencyConstraint = "wallets_user_currency_key"
	walletUserConstraint         = "wallets_user_id_fkey"
)

// WalletEntity maps domain.Wallet to the wallets table.
var WalletEntity = repository.Entity[domain.Wallet]{
	Name:          "wallet",
	Key:           "id",
	Columns:       []string{"id", "user_id", "currency", "balance", "created_at", "updated_at"},
	CreatedColumn: "created_at",
	UpdatedColumn: "updated_at",
	Values: func(w *domain.Wallet) map[string]any {
		return map[string]any{
			"id":         w.ID,
			"user_id":    w.UserID,
			"currency":   w.Currency,
			"balance":    w.Balance,
			"created_at": w.CreatedAt,
			"updated_at": w.UpdatedAt,
		}
	},
	KeyOf:  func(w *domain.Wallet) int64 { return w.ID },
	SetKey: func(w *domain.Wallet, id int64) { w.ID = id },
	Stamp:  func(w *domain.Wallet, now time.Time) { w.CreatedAt = now },
	Touch:  func(w *domain.Wallet, now time.Time) { w.UpdatedAt = &now },
}

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct {
	executor *repository.ProcedureExecutor
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(executor *repository.ProcedureExecutor) repository.WalletRepository {
	return &WalletRepository{executor: executor}
}

// CreateWallet inserts a new wallet into the database.
func (r *WalletRepository) CreateWallet(ctx context.Context, s repository.Session, wallet *domain.Wallet) error {
	if err := requireScope(WalletEntity.Table(), s.Scope); err != nil {
		return err
	}
	wallets := repository.NewEntityRepository(s.Scope, WalletEntity)
	if _, err := wallets.Add(ctx, wallet); err != nil {
		switch db.ConstraintName(err) {
		case walletUserCurrencyConstraint:
			return fmt.Errorf("%w: user %d already has a %s wallet: %w", util.ErrDuplicateEntry, wallet.UserID, wallet.Currency, err)
		case walletUserConstraint:
			return fmt.Errorf("%w: %w", util.ErrUserNotFound, err)
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetWalletByID retrieves a wallet through wallet_get.
func (r *WalletRepository) GetWalletByID(ctx context.Context, s repository.Session, id int64) (*domain.Wallet, error) {
	wallet, err := repository.FetchOne[domain.Wallet](ctx, r.executor, s.Call("wallet_get",
		repository.In("p_wallet_id", id),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet by ID %d: %w", id, err)
	}
	if wallet == nil {
		return nil, util.ErrWalletNotFound
	}
	return wallet, nil
}

// GetWalletsByUserID lists a user's wallets through wallets_by_user.
func (r *WalletRepository) GetWalletsByUserID(ctx context.Context, s repository.Session, userID int64) ([]domain.Wallet, error) {
	wallets, err := repository.FetchList[domain.Wallet](ctx, r.executor, s.Call("wallets_by_user",
		repository.In("p_user_id", userID),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets of user %d: %w", userID, err)
	}
	return wallets, nil
}

type balanceChange struct {
	TransactionID int64           `db:"p_transaction_id"`
	NewBalance    decimal.Decimal `db:"p_new_balance"`
}

type transferChange struct {
	TransactionID int64           `db:"p_transaction_id"`
	FromBalance   decimal.Decimal `db:"p_from_balance"`
	ToBalance     decimal.Decimal `db:"p_to_balance"`
}

// Deposit credits the wallet through wallet_deposit.
func (r *WalletRepository) Deposit(ctx context.Context, s repository.Session, walletID int64, amount decimal.Decimal, currency string) (int64, error) {
	return r.move(ctx, s, "wallet_deposit", walletID, amount, currency)
}

// Withdraw debits the wallet through wallet_withdraw. The balance check constraint rejects overdrafts.
func (r *WalletRepository) Withdraw(ctx context.Context, s repository.Session, walletID int64, amount decimal.Decimal, currency string) (int64, error) {
	return r.move(ctx, s, "wallet_withdraw", walletID, amount, currency)
}

func (r *WalletRepository) move(ctx context.Context, s repository.Session, procedure string, walletID int64, amount decimal.Decimal, currency string) (int64, error) {
	res, err := repository.Execute[balanceChange](ctx, r.executor, s.Call(procedure,
		repository.In("p_wallet_id", walletID),
		repository.In("p_amount", amount),
		repository.In("p_currency", currency),
		repository.Out("p_transaction_id"),
		repository.Out("p_new_balance"),
	))
	if err != nil {
		return 0, fmt.Errorf("%s on wallet %d: %w", procedure, walletID, walletCallError(err, util.ErrWalletNotFound))
	}
	if res.Value == nil {
		return 0, fmt.Errorf("%s on wallet %d: procedure returned no row", procedure, walletID)
	}
	return res.Value.TransactionID, nil
}

// Transfer moves funds through wallet_transfer.
func (r *WalletRepository) Transfer(ctx context.Context, s repository.Session, fromWalletID, toWalletID int64, amount decimal.Decimal, currency string) (int64, error) {
	res, err := repository.Execute[transferChange](ctx, r.executor, s.Call("wallet_transfer",
		repository.In("p_from_wallet_id", fromWalletID),
		repository.In("p_to_wallet_id", toWalletID),
		repository.In("p_amount", amount),
		repository.In("p_currency", currency),
		repository.Out("p_transaction_id"),
		repository.Out("p_from_balance"),
		repository.Out("p_to_balance"),
	))
	if err != nil {
		return 0, fmt.Errorf("transfer from wallet %d to %d: %w", fromWalletID, toWalletID, walletCallError(err, util.ErrWalletNotFound))
	}
	if res.Value == nil {
		return 0, fmt.Errorf("transfer from wallet %d to %d: procedure returned no row", fromWalletID, toWalletID)
	}
	return res.Value.TransactionID, nil
}

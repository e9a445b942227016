// internal/repository/postgres/errors.go
package postgres

import (
	"errors"
	"fmt"

	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
)

// SQLSTATE codes raised by the wallet procedures.
const (
	sqlStateNoData       = "P0002" // no_data_found
	sqlStateInvalidParam = "22023" // invalid_parameter_value

	balanceConstraint = "wallets_balance_check"
)

var errNoScope = errors.New("session has no transaction scope")

// requireScope fails when an entity operation is attempted outside a transaction.
func requireScope(table string, scope *db.Scope) error {
	if scope == nil {
		return &db.Error{Kind: db.ErrInvalidState, Op: "session", Target: table, Err: errNoScope}
	}
	return nil
}

// walletCallError attaches the application error matching a wallet procedure failure.
// The original error stays in the chain so its data-access kind is preserved.
func walletCallError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if db.ConstraintName(err) == balanceConstraint {
		return fmt.Errorf("%w: %w", util.ErrInsufficientFunds, err)
	}
	switch db.SQLState(err) {
	case sqlStateNoData:
		return fmt.Errorf("%w: %w", notFound, err)
	case sqlStateInvalidParam:
		return fmt.Errorf("%w: %w", util.ErrCurrencyMismatch, err)
	}
	return err
}

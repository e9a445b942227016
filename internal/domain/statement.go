// internal/domain/statement.go
package domain

import "github.com/shopspring/decimal"

// TypeTotal aggregates the transactions of one type for a wallet.
type TypeTotal struct {
	Type  TransactionType `db:"type" json:"type"`
	Count int64           `db:"count" json:"count"`
	Total decimal.Decimal `db:"total" json:"total"`
}

// Statement is a wallet report: the wallet itself, its most recent transactions and
// the per-type totals over its whole history.
type Statement struct {
	Wallet       Wallet        `json:"wallet"`
	Transactions []Transaction `json:"transactions"`
	Totals       []TypeTotal   `json:"totals"`
}

// internal/api/handler/wallet.go
package handler

import (
	"log/slog"
	"net/http"

	"finflow-ledger/internal/api/types"
	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/service"
	"finflow-ledger/internal/util" // For custom errors

	"github.com/shopspring/decimal"
)

const defaultPageSize = 10

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	responder
	service service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		responder: newResponder(logger),
		service:   svc,
	}
}

// MoneyRequest represents the request body for deposit and withdraw.
type MoneyRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,alpha,max=10"`
}

func (req MoneyRequest) valid() bool {
	return req.Amount.IsPositive()
}

// Deposit handles the deposit money request.
// POST /wallets/{walletID}/deposit
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "walletID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	var req MoneyRequest
	if err := h.decode(r, &req); err != nil || !req.valid() {
		h.respondWithError(w, r, util.ErrInvalidInput)
		return
	}

	wallet, transaction, err := h.service.Deposit(r.Context(), walletID, req.Amount, req.Currency)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"message":        "Deposit successful",
		"wallet_id":      wallet.ID,
		"new_balance":    wallet.Balance,
		"transaction_id": transaction.ID,
	})
}

// Withdraw handles the withdraw money request.
// POST /wallets/{walletID}/withdraw
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "walletID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	var req MoneyRequest
	if err := h.decode(r, &req); err != nil || !req.valid() {
		h.respondWithError(w, r, util.ErrInvalidInput)
		return
	}

	wallet, transaction, err := h.service.Withdraw(r.Context(), walletID, req.Amount, req.Currency)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"message":        "Withdrawal successful",
		"wallet_id":      wallet.ID,
		"new_balance":    wallet.Balance,
		"transaction_id": transaction.ID,
	})
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	FromWalletID int64           `json:"from_wallet_id" validate:"gt=0"`
	ToWalletID   int64           `json:"to_wallet_id" validate:"gt=0"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" validate:"required,alpha,max=10"`
}

// Transfer handles the transfer money request.
// POST /transfers
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := h.decode(r, &req); err != nil || !req.Amount.IsPositive() {
		h.respondWithError(w, r, util.ErrInvalidInput)
		return
	}

	fromWallet, toWallet, transaction, err := h.service.Transfer(r.Context(), req.FromWalletID, req.ToWalletID, req.Amount, req.Currency)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"message":                 "Transfer successful",
		"transaction_id":          transaction.ID,
		"from_wallet_new_balance": fromWallet.Balance,
		"to_wallet_new_balance":   toWallet.Balance,
	})
}

// GetWalletBalance handles the get wallet balance request.
// GET /wallets/{walletID}/balance
func (h *WalletHandler) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "walletID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	wallet, err := h.service.GetBalance(r.Context(), walletID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"wallet_id": wallet.ID,
		"balance":   wallet.Balance,
		"currency":  wallet.Currency,
	})
}

// GetTransactionHistory handles the get transaction history request.
// GET /wallets/{walletID}/transactions?limit=&offset=
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "walletID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	limit := queryInt(r, "limit", defaultPageSize)
	if limit == 0 {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)

	transactions, totalCount, err := h.service.GetTransactionHistory(r.Context(), walletID, limit, offset)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	})
}

// GetStatement returns the wallet, its latest transactions and the per-type totals.
// GET /wallets/{walletID}/statement?limit=
func (h *WalletHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "walletID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	statement, err := h.service.GetStatement(r.Context(), walletID, queryInt(r, "limit", 0))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, statement)
}

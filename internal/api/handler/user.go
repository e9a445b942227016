// internal/api/handler/user.go
package handler

import (
	"log/slog"
	"net/http"

	"finflow-ledger/internal/service"
	"finflow-ledger/internal/util"
)

// UserHandler handles HTTP requests related to users.
type UserHandler struct {
	responder
	users   service.UserService
	wallets service.WalletService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, wallets service.WalletService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder: newResponder(logger),
		users:     users,
		wallets:   wallets,
	}
}

// CreateUserRequest represents the request body for user creation.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Currency string `json:"currency" validate:"required,alpha,max=10"`
}

// CreateUser creates a user together with its first wallet.
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := h.decode(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	user, wallet, err := h.wallets.CreateUserAndWallet(r.Context(), req.Username, req.Currency)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, map[string]any{
		"user":   user,
		"wallet": wallet,
	})
}

// GetUser returns a user.
// GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// ListWallets returns the wallets of a user.
// GET /users/{userID}/wallets
func (h *UserHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	wallets, err := h.wallets.ListWallets(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]any{"data": wallets})
}

// RenameUserRequest represents the request body for renaming a user.
type RenameUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
}

// RenameUser changes a username.
// PATCH /users/{userID}
func (h *UserHandler) RenameUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	var req RenameUserRequest
	if err := h.decode(r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	user, err := h.users.RenameUser(r.Context(), userID, req.Username)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user and its wallets.
// DELETE /users/{userID}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), userID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateUser soft-deletes a user.
// POST /users/{userID}/deactivate
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondWithError(w, r, util.ErrInvalidInput)
		return
	}
	at, err := h.users.DeactivateUser(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"deactivated_at": at,
	})
}

// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"finflow-ledger/internal/util" // For custom errors
	"finflow-ledger/pkg/db"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// DefaultTimeout bounds the handling of one request.
const DefaultTimeout = 30 * time.Second

// responder holds the helpers shared by the handlers.
type responder struct {
	logger   *slog.Logger
	validate *validator.Validate
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: logger, validate: validator.New()}
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
// Application errors are matched first: an overdraft is also a constraint violation.
func (h responder) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = util.ErrInvalidInput.Error()
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrWalletNotFound), util.IsError(err, util.ErrUserNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case util.IsError(err, util.ErrSameWalletTransfer):
		statusCode = http.StatusBadRequest
		message = "Cannot transfer to the same wallet"
	case util.IsError(err, util.ErrCurrencyMismatch):
		statusCode = http.StatusBadRequest
		message = "wallet currency mismatch"
	case util.IsError(err, util.ErrDuplicateEntry):
		statusCode = http.StatusConflict
		message = "Resource already exists"
	case db.IsKind(err, db.ErrConfiguration):
		statusCode = http.StatusBadRequest
		message = "Unknown tenant"
	case db.IsKind(err, db.ErrConnectivity):
		statusCode = http.StatusServiceUnavailable
		message = "Database unavailable"
		h.logger.Warn("Database unreachable", "path", r.URL.Path, "error", err)
	case db.IsKind(err, db.ErrConstraintViolation):
		statusCode = http.StatusConflict
		message = "Request conflicts with stored data"
	default:
		h.logger.Error("Unhandled service error", "path", r.URL.Path, "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// decode reads a JSON body into req and validates it.
func (h responder) decode(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return util.ErrInvalidInput
	}
	if err := h.validate.Struct(req); err != nil {
		return util.ErrInvalidInput
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.ErrInvalidInput
	}
	return id, nil
}

// queryInt reads a non-negative integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

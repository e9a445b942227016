// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finflow-ledger/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
// metrics may be nil, in which case /metrics is not mounted.
func NewRouter(walletHandler *handler.WalletHandler, userHandler *handler.UserHandler, metrics http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(Tenant)                                     // Route the request to its tenant database
	r.Use(RequestLogger(logger))                      // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Bound every request

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.CreateUser)
		r.Get("/{userID}", userHandler.GetUser)
		r.Patch("/{userID}", userHandler.RenameUser)
		r.Delete("/{userID}", userHandler.DeleteUser)
		r.Post("/{userID}/deactivate", userHandler.DeactivateUser)
		r.Get("/{userID}/wallets", userHandler.ListWallets)
	})

	// Wallet API routes
	r.Route("/wallets", func(r chi.Router) {
		r.Post("/{walletID}/deposit", walletHandler.Deposit)
		r.Post("/{walletID}/withdraw", walletHandler.Withdraw)
		r.Get("/{walletID}/balance", walletHandler.GetWalletBalance)
		r.Get("/{walletID}/transactions", walletHandler.GetTransactionHistory)
		r.Get("/{walletID}/statement", walletHandler.GetStatement)
	})

	// Transfer is a separate top-level endpoint as it involves two wallets
	r.Post("/transfers", walletHandler.Transfer)

	return r
}

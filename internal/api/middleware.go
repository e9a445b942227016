// internal/api/middleware.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"finflow-ledger/internal/service"

	"github.com/go-chi/chi/v5/middleware"
)

// TenantHeader selects the tenant database for a request. Requests without it use the default database.
const TenantHeader = "X-Tenant-ID"

// Tenant copies the tenant header into the request context.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tenant := r.Header.Get(TenantHeader); tenant != "" {
			r = r.WithContext(service.WithTenant(r.Context(), tenant))
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request through logger.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"tenant", service.TenantFrom(r.Context()),
					"request_id", middleware.GetReqID(r.Context()),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

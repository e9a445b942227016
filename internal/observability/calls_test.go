// internal/observability/calls_test.go
package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finflow-ledger/internal/repository"
	"finflow-ledger/pkg/db"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Should time every call and count failures by kind", func(t *testing.T) {
		var logs bytes.Buffer
		m := NewCallMetrics(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

		m.ObserveCall(ctx, repository.CallEvent{Procedure: "wallet_get", Shape: repository.ShapeOne, Duration: 3 * time.Millisecond})
		m.ObserveCall(ctx, repository.CallEvent{
			Procedure: "wallet_withdraw",
			Shape:     repository.ShapeExecute,
			Duration:  time.Millisecond,
			Err:       &db.Error{Kind: db.ErrConstraintViolation, Op: "call", Target: "wallet_withdraw"},
		})

		assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("wallet_withdraw", "constraint_violation")))
		assert.Contains(t, logs.String(), "Procedure call failed")
		assert.Contains(t, logs.String(), "kind=constraint_violation")
	})

	t.Run("Should expose the registry over HTTP", func(t *testing.T) {
		m := NewCallMetrics(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		m.ObserveCall(ctx, repository.CallEvent{Procedure: "wallet_get", Shape: repository.ShapeOne})

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `ledger_procedure_call_duration_seconds_count{outcome="ok",procedure="wallet_get",shape="one"} 1`)
	})
}

func TestKindOf(t *testing.T) {
	cases := map[error]string{
		&db.Error{Kind: db.ErrConfiguration}:       "configuration",
		&db.Error{Kind: db.ErrConnectivity}:        "connectivity",
		&db.Error{Kind: db.ErrInvalidState}:        "invalid_state",
		&db.Error{Kind: db.ErrConstraintViolation}: "constraint_violation",
		&db.Error{Kind: db.ErrDataAccess}:          "data_access",
		errors.New("boom"):                         "other",
	}
	for err, want := range cases {
		assert.Equal(t, want, KindOf(err))
	}
}

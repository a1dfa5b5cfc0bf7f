package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Futures/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLedgerOp(t *testing.T) {
	m := New("test")
	m.ObserveLedgerOp("ledger.OpenPosition", "ok")
	m.ObserveLedgerOp("ledger.OpenPosition", "ok")
	m.ObserveLedgerOp("ledger.OpenPosition", "insufficient_balance")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("ledger.OpenPosition", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("ledger.OpenPosition", "insufficient_balance")))
}

func TestOnQuote(t *testing.T) {
	m := New("test")
	m.OnQuote(context.Background(), models.Quote{Asset: models.BTC, Price: decimal.NewFromInt(68000)})
	m.OnQuote(context.Background(), models.Quote{Asset: models.BTC, Price: decimal.NewFromInt(68100)})

	assert.Equal(t, 68100.0, testutil.ToFloat64(m.price.WithLabelValues("BTC")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.priceUpdates.WithLabelValues("BTC")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New("test")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/market/orderbook/{asset}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market/orderbook/BTC", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `route="/api/market/orderbook/{asset}"`))
	assert.True(t, strings.Contains(string(body), `status="418"`))
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/position-service/internal/ledger"
	"github.com/tradeforge/position-service/internal/marketdata"
	"github.com/tradeforge/position-service/internal/metrics"
	"github.com/tradeforge/position-service/internal/models"
	"github.com/tradeforge/position-service/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	registry := prometheus.NewRegistry()
	svc := service.New(ledger.New(), marketdata.NewMemoryStore(), metrics.New(registry), nil, logger)
	srv := httptest.NewServer(SetupRoutes(NewHandler(svc, logger), registry))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func registerTrade(t *testing.T, srv *httptest.Server, id int64, instrument string, qty int64, price, side string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/trades", map[string]interface{}{
		"id":         id,
		"date":       "2022-01-01T00:00:00Z",
		"instrument": instrument,
		"quantity":   qty,
		"price":      price,
		"side":       side,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestTradeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	registerTrade(t, srv, 1, "AAPL", 100, "100", models.SideBuy)
	registerTrade(t, srv, 2, "AAPL", 50, "110", models.SideBuy)

	t.Run("rejects invalid side", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/trades", map[string]interface{}{
			"id": 3, "instrument": "AAPL", "quantity": 10, "price": "1", "side": "HOLD",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/trades", map[string]interface{}{
			"id": 3, "instrument": "AAPL", "quantity": 0, "price": "1", "side": models.SideBuy,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get trade", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/trades/1", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var trade models.Trade
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&trade))
		assert.Equal(t, "AAPL", trade.Instrument)
		assert.Equal(t, int64(100), trade.Quantity)
	})

	t.Run("list trades with filter", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/trades?instrument=AAPL&side=BUY", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var trades []models.Trade
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&trades))
		assert.Len(t, trades, 2)
	})

	t.Run("amend", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/trades/2", map[string]interface{}{
			"new_quantity": 70,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		posResp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/positions/AAPL", nil)
		defer posResp.Body.Close()
		var pos models.Position
		require.NoError(t, json.NewDecoder(posResp.Body).Decode(&pos))
		assert.Equal(t, int64(220), pos.Quantity)
	})

	t.Run("amend unknown id is a 204 no-op", func(t *testing.T) {
		resp := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/trades/999", map[string]interface{}{
			"new_quantity": 5,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("cancel", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/trades/1", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		getResp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/trades/1", nil)
		defer getResp.Body.Close()
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	})
}

func TestPositionEndpoints(t *testing.T) {
	srv := newTestServer(t)
	registerTrade(t, srv, 1, "AAPL", 100, "100", models.SideBuy)

	t.Run("get position", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/positions/AAPL", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var pos models.Position
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&pos))
		assert.Equal(t, int64(100), pos.Quantity)
		assert.True(t, pos.AveragePrice.Equal(decimal.NewFromInt(100)))
	})

	t.Run("unknown instrument is 404", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/positions/MSFT", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("pnl with explicit price", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/positions/AAPL/pnl?price=110", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]decimal.Decimal
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body["unrealized_pnl"].Equal(decimal.NewFromInt(1000)))
	})

	t.Run("pnl without any price is 404", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/positions/AAPL/pnl", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("stored price drives pnl and portfolio", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/prices/AAPL", map[string]interface{}{"price": "120"})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		pnlResp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/positions/AAPL/pnl", nil)
		defer pnlResp.Body.Close()
		require.Equal(t, http.StatusOK, pnlResp.StatusCode)

		var body map[string]decimal.Decimal
		require.NoError(t, json.NewDecoder(pnlResp.Body).Decode(&body))
		assert.True(t, body["unrealized_pnl"].Equal(decimal.NewFromInt(2000)))

		portResp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/portfolio/pnl", nil)
		defer portResp.Body.Close()
		require.Equal(t, http.StatusOK, portResp.StatusCode)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("GET %s", path))
		resp.Body.Close()
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeforge/position-service/internal/marketdata"
	"github.com/tradeforge/position-service/internal/models"
	"github.com/tradeforge/position-service/internal/service"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc *service.Service
	log logrus.FieldLogger
}

// NewHandler creates a new Handler
func NewHandler(svc *service.Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterTrade handles POST /trades
func (h *Handler) RegisterTrade(w http.ResponseWriter, r *http.Request) {
	var t models.Trade
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if t.Side != models.SideBuy && t.Side != models.SideSell {
		http.Error(w, "side must be BUY or SELL", http.StatusBadRequest)
		return
	}
	if t.Quantity <= 0 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}
	if t.Price.IsNegative() {
		http.Error(w, "price must not be negative", http.StatusBadRequest)
		return
	}
	if t.Instrument == "" {
		http.Error(w, "instrument is required", http.StatusBadRequest)
		return
	}

	h.svc.RegisterTrade(r.Context(), &t)

	stored, _ := h.svc.GetTrade(t.ID)
	respondJSON(w, http.StatusCreated, stored)
}

// amendRequest carries the optional amendment fields. A missing field leaves
// the stored value unchanged; an explicit zero is applied as provided.
type amendRequest struct {
	NewQuantity *int64           `json:"new_quantity,omitempty"`
	NewPrice    *decimal.Decimal `json:"new_price,omitempty"`
}

// AmendTrade handles PATCH /trades/{id}. Amending an unknown trade is a
// no-op by contract, so the response is 204 either way.
func (h *Handler) AmendTrade(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		http.Error(w, "invalid trade id", http.StatusBadRequest)
		return
	}

	var req amendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.svc.AmendTrade(r.Context(), id, req.NewQuantity, req.NewPrice)
	w.WriteHeader(http.StatusNoContent)
}

// CancelTrade handles DELETE /trades/{id}. Cancelling an unknown trade is a
// no-op by contract, so the response is 204 either way.
func (h *Handler) CancelTrade(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		http.Error(w, "invalid trade id", http.StatusBadRequest)
		return
	}

	h.svc.CancelTrade(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// GetTrade handles GET /trades/{id}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := tradeID(r)
	if err != nil {
		http.Error(w, "invalid trade id", http.StatusBadRequest)
		return
	}

	t, ok := h.svc.GetTrade(id)
	if !ok {
		http.Error(w, "trade not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// ListTrades handles GET /trades with optional filter query parameters.
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	f := models.NewTradeFilter()
	q := r.URL.Query()

	if v := q.Get("instrument"); v != "" {
		f.WithInstrument(v)
	}
	if v := q.Get("side"); v != "" {
		f.WithSide(v)
	}
	if v := q.Get("status"); v != "" {
		f.WithStatus(v)
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		f.DateFrom = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		f.DateTo = &to
	}

	respondJSON(w, http.StatusOK, h.svc.FilterTrades(f))
}

// GetAllPositions handles GET /positions. With ?as_of=YYYY-MM-DD the
// positions are rebuilt from trades dated on or before that day.
func (h *Handler) GetAllPositions(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("as_of"); v != "" {
		asOf, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "invalid as_of date", http.StatusBadRequest)
			return
		}
		respondJSON(w, http.StatusOK, h.svc.PositionsAsOf(asOf))
		return
	}

	respondJSON(w, http.StatusOK, h.svc.AllPositions())
}

// GetPosition handles GET /positions/{instrument}
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]

	pos, ok := h.svc.GetPosition(instrument)
	if !ok {
		http.Error(w, "instrument has never traded", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, pos)
}

// GetPositionPnL handles GET /positions/{instrument}/pnl. The mark price
// comes from ?price= when given, otherwise from the market data store.
func (h *Handler) GetPositionPnL(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]

	var override *decimal.Decimal
	if v := r.URL.Query().Get("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			http.Error(w, "invalid price", http.StatusBadRequest)
			return
		}
		override = &price
	}

	pnl, err := h.svc.UnrealizedPnL(r.Context(), instrument, override)
	switch {
	case errors.Is(err, service.ErrUnknownInstrument):
		http.Error(w, "instrument has never traded", http.StatusNotFound)
		return
	case errors.Is(err, marketdata.ErrNoPrice):
		http.Error(w, "no market price for instrument", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"unrealized_pnl": pnl})
}

// SetPrice handles PUT /prices/{instrument}
func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]

	var req struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.SetPrice(r.Context(), instrument, req.Price); err != nil {
		h.log.WithError(err).WithField("instrument", instrument).Error("failed to store market price")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPortfolioPnL handles GET /portfolio/pnl
func (h *Handler) GetPortfolioPnL(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.PortfolioValue(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func tradeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

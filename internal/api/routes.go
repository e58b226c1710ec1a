package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, reg *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Prometheus metrics
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Trade routes
	api.HandleFunc("/trades", handler.RegisterTrade).Methods("POST")
	api.HandleFunc("/trades", handler.ListTrades).Methods("GET")
	api.HandleFunc("/trades/{id}", handler.GetTrade).Methods("GET")
	api.HandleFunc("/trades/{id}", handler.AmendTrade).Methods("PATCH")
	api.HandleFunc("/trades/{id}", handler.CancelTrade).Methods("DELETE")

	// Position routes
	api.HandleFunc("/positions", handler.GetAllPositions).Methods("GET")
	api.HandleFunc("/positions/{instrument}", handler.GetPosition).Methods("GET")
	api.HandleFunc("/positions/{instrument}/pnl", handler.GetPositionPnL).Methods("GET")

	// Market data and portfolio routes
	api.HandleFunc("/prices/{instrument}", handler.SetPrice).Methods("PUT")
	api.HandleFunc("/portfolio/pnl", handler.GetPortfolioPnL).Methods("GET")

	return r
}

package api

import (
	"net/http"

	"github.com/alexivanou/weatherquery-api/internal/service"
	"github.com/alexivanou/weatherquery-api/internal/stats"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter creates a new HTTP router. A nil auth leaves every route open.
func NewRouter(service service.ServiceInterface, statsCollector *stats.Collector, auth *TokenAuth, logger *zap.Logger) *mux.Router {
	handler := NewHandler(service, logger)
	statsHandler := NewStatsHandler(statsCollector, logger)

	protect := func(h http.HandlerFunc) http.Handler {
		if auth == nil {
			return h
		}
		return auth.Middleware(logger)(h)
	}

	router := mux.NewRouter()
	router.Use(RequestLogger(logger))

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	router.Handle("/lookup", protect(handler.Lookup)).Methods("POST")

	// API v1
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.Handle("/lookup", protect(handler.Lookup)).Methods("POST")
	v1.Handle("/locations", protect(handler.ListLocations)).Methods("GET")
	v1.Handle("/locations/{id}", protect(handler.GetLocation)).Methods("GET")
	v1.Handle("/stats", protect(statsHandler.GetStats)).Methods("GET")

	return router
}

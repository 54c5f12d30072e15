package api

import (
	"net/http"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/stats"
	"go.uber.org/zap"
)

// StatsHandler handles statistics requests
type StatsHandler struct {
	collector *stats.Collector
	logger    *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(collector *stats.Collector, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{collector: collector, logger: logger}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collector.Collect(r.Context())
	if err != nil {
		writeError(w, h.logger, apperror.Wrap(apperror.LookupError, err))
		return
	}

	writeJSON(w, h.logger, http.StatusOK, stats)
}

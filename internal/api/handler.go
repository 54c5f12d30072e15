package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/alexivanou/weatherquery-api/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

// Handler handles HTTP requests
type Handler struct {
	service  service.ServiceInterface
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Lookup handles POST /lookup
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req model.LookupRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, h.logger, apperror.Newf(apperror.InvalidRequest, "invalid JSON body: %v", err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, apperror.Newf(apperror.InvalidRequest, "invalid request: %v", err))
		return
	}

	h.logger.Debug("Lookup request",
		zap.String("subject", SubjectFromContext(r.Context())),
		zap.Bool("selection", req.SelectedLocationIndex != nil),
		zap.Bool("intentSupplied", req.Intent != nil),
	)

	// Upstream calls outlive a client disconnect; the outbound client's timeouts still bound them.
	ctx := context.WithoutCancel(r.Context())

	result, err := h.service.Lookup(ctx, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if result.Disambiguation != nil {
		writeJSON(w, h.logger, http.StatusOK, result.Disambiguation)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result.Answer)
}

// ListLocations handles GET /api/v1/locations
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			writeError(w, h.logger, apperror.Newf(apperror.InvalidRequest, "invalid limit parameter"))
			return
		}
	}

	locations, err := h.service.ListLocations(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if locations == nil {
		locations = []model.ResolvedLocation{}
	}

	writeJSON(w, h.logger, http.StatusOK, model.LocationListResponse{Results: locations})
}

// GetLocation handles GET /api/v1/locations/{id}
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	location, err := h.service.GetLocation(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if location == nil {
		writeError(w, h.logger, apperror.Newf(apperror.NotFound, "location not found"))
		return
	}

	writeJSON(w, h.logger, http.StatusOK, location)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding response", zap.Error(err))
	}
}

// writeError reports err as {"code","error"} with the status mapped from its code.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := apperror.From(err)
	status := apperror.HTTPStatus(appErr.Code)

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("code", string(appErr.Code)), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("code", string(appErr.Code)), zap.Error(err))
	}

	writeJSON(w, logger, status, model.ErrorResponse{
		Code:  string(appErr.Code),
		Error: appErr.Message,
	})
}

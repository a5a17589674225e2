// Package handlers provides HTTP handlers for customer analytics.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/modules/analytics"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleSummary handles GET /api/analytics/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.log.Error().Err(err).Msg("Summary failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// HandleTopCustomers handles GET /api/analytics/customers/top?n=10
func (h *Handler) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	top, err := h.service.TopCustomers(n)
	if err != nil {
		h.log.Error().Err(err).Msg("Top customers failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, top)
}

// HandleHistory handles GET /api/analytics/customers/{id}/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "customer id is required")
		return
	}

	history, err := h.service.History(id)
	if err != nil {
		h.log.Error().Err(err).Str("customer_id", id).Msg("History failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

// HandleMonthly handles GET /api/analytics/customers/{id}/monthly
func (h *Handler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "customer id is required")
		return
	}

	monthly, err := h.service.MonthlyTotals(id)
	if err != nil {
		h.log.Error().Err(err).Str("customer_id", id).Msg("Monthly totals failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, monthly)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"kind": "internal", "message": message},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

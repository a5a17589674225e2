// Package handlers provides HTTP handlers for the forecasting pipeline.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/modules/export"
	"github.com/hjuarez/ventasbi/internal/modules/forecast"
	"github.com/hjuarez/ventasbi/internal/pipeline"
)

// Handler handles forecast HTTP requests
type Handler struct {
	service        *forecast.Service
	defaultHorizon int
	log            zerolog.Logger
}

// NewHandler creates a new forecast handler
func NewHandler(service *forecast.Service, defaultHorizon int, log zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		defaultHorizon: defaultHorizon,
		log:            log.With().Str("handler", "forecast").Logger(),
	}
}

// HandlePredict handles GET /api/predict?horizon=14
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	horizon, err := h.horizonParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.Run(r.Context(), horizon)
	if err != nil {
		h.log.Error().Err(err).Int("horizon", horizon).Msg("Pipeline failed")
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleExport handles GET /api/predict/export?horizon=14 and streams
// the forecast table as an XLSX download.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	horizon, err := h.horizonParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.Run(r.Context(), horizon)
	if err != nil {
		h.log.Error().Err(err).Int("horizon", horizon).Msg("Pipeline failed")
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteForecast(&buf, result.Forecast); err != nil {
		h.log.Error().Err(err).Msg("Export failed")
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="predicciones_sarima.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) horizonParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("horizon")
	if raw == "" {
		return h.defaultHorizon, nil
	}
	horizon, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("horizon %q is not an integer: %w", raw, pipeline.ErrInvalidHorizon)
	}
	return horizon, nil
}

// errorBody is the structured error payload: a machine-readable kind
// plus a human-readable message, instead of an erased plain string.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrSchema),
		errors.Is(err, pipeline.ErrEmptyInput),
		errors.Is(err, pipeline.ErrInvalidHorizon):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrModelSelection),
		errors.Is(err, pipeline.ErrUndefinedMetric):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Kind = pipeline.Kind(err)
	body.Error.Message = err.Error()
	h.writeJSON(w, statusFor(err), body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

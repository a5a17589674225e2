package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hjuarez/ventasbi/internal/modules/ingest"
	"github.com/hjuarez/ventasbi/internal/pipeline"
)

// maxUploadBytes bounds the uploaded sales workbook size.
const maxUploadBytes = 32 << 20 // 32 MiB

// handleUpload handles POST /api/upload. The uploaded file replaces the
// active dataset and invalidates the model cache.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "internal", "multipart field 'file' is required: "+err.Error())
		return
	}
	defer file.Close()

	var txs []ingest.Transaction
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		txs, err = s.parser.ParseXLSX(file)
	case ".csv":
		txs, err = s.parser.ParseCSV(file)
	default:
		s.writeError(w, http.StatusBadRequest, "schema", "file must be .xlsx or .csv")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("filename", header.Filename).Msg("Upload rejected")
		s.writePipelineError(w, err)
		return
	}

	batchID, err := s.repo.Replace(txs)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to store dataset")
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	// Selections computed for the previous dataset are no longer valid
	s.modelCache.Invalidate()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id":     batchID,
		"transactions": len(txs),
	})
}

// handleWeeklyTrends handles GET /api/trends/weekly?smooth=7
func (s *Server) handleWeeklyTrends(w http.ResponseWriter, r *http.Request) {
	daily, err := s.forecastService.BuildSeries()
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	response := map[string]interface{}{
		"weekly": s.trendsService.WeeklyAverages(daily),
	}

	if raw := r.URL.Query().Get("smooth"); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "internal", "smooth must be an integer")
			return
		}
		smoothed, err := s.trendsService.Smoothed(daily, window)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "internal", err.Error())
			return
		}
		response["smoothed"] = smoothed
	}

	s.writeJSON(w, http.StatusOK, response)
}

// writePipelineError maps a pipeline error to its HTTP status and
// structured payload.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrSchema),
		errors.Is(err, pipeline.ErrEmptyInput),
		errors.Is(err, pipeline.ErrInvalidHorizon):
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrModelSelection),
		errors.Is(err, pipeline.ErrUndefinedMetric):
		status = http.StatusUnprocessableEntity
	}
	s.writeError(w, status, pipeline.Kind(err), err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"kind": kind, "message": message},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

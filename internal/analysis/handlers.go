package analysis

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// setupRoutes configures HTTP routes for the analysis service
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Consensus analysis
	api.HandleFunc("/analyses", s.analyzeHandler).Methods("POST")
	api.HandleFunc("/providers", s.listProvidersHandler).Methods("GET")

	// Metric history and temporal predictions
	api.HandleFunc("/subjects/{subjectId}/metrics", s.recordSampleHandler).Methods("POST")
	api.HandleFunc("/subjects/{subjectId}/trends", s.getTrendsHandler).Methods("GET")
	api.HandleFunc("/subjects/{subjectId}/risks", s.predictRisksHandler).Methods("POST")
	api.HandleFunc("/subjects/{subjectId}/health-score", s.healthScoreHandler).Methods("POST")

	// Health check
	api.HandleFunc("/health", s.healthCheckHandler).Methods("GET")

	// Prometheus metrics
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	s.logger.Info("Analysis service routes configured")
}

// analyzeHandler handles consensus analysis requests
func (s *Service) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req types.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := s.Analyze(r.Context(), &req)
	if err != nil {
		s.writeErrorResponse(w, statusForError(err), "Analysis failed", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}

// listProvidersHandler returns the configured provider identities
func (s *Service) listProvidersHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.orchestrator.Providers())
}

// recordSampleHandler appends one metric sample to a subject's history
func (s *Service) recordSampleHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subjectID := vars["subjectId"]

	var sample types.HealthMetricSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.RecordMetricSample(subjectID, &sample); err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to record sample", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"subject_id":   subjectID,
		"history_size": s.engine.HistorySize(subjectID),
	})
}

// getTrendsHandler computes trend series for a subject
func (s *Service) getTrendsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subjectID := vars["subjectId"]

	windowDays := 0
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid window_days parameter", err)
			return
		}
		windowDays = parsed
	}

	trends, err := s.GetTrends(subjectID, windowDays)
	if err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to compute trends", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, trends)
}

// predictRisksHandler evaluates risk models for a subject. The body may carry
// the current sample; an empty body falls back to the latest stored sample.
func (s *Service) predictRisksHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subjectID := vars["subjectId"]

	current := decodeOptionalSample(r)

	predictions, err := s.PredictRisks(subjectID, current)
	if err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to predict risks", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, predictions)
}

// healthScoreHandler computes the blended health score for a subject
func (s *Service) healthScoreHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subjectID := vars["subjectId"]

	current := decodeOptionalSample(r)

	score, err := s.ComputeHealthScore(subjectID, current)
	if err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to compute health score", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, score)
}

// healthCheckHandler reports service liveness
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"providers": len(s.orchestrator.Providers()),
	})
}

// decodeOptionalSample reads a sample from the body if one is present
func decodeOptionalSample(r *http.Request) *types.HealthMetricSample {
	var sample types.HealthMetricSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		return nil
	}
	return &sample
}

// statusForError maps the structured error taxonomy onto HTTP status codes
func statusForError(err error) int {
	var engineErr *types.EngineError
	if !errors.As(err, &engineErr) {
		return http.StatusInternalServerError
	}

	switch engineErr.Type {
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	case types.ErrorTypeUnavailable:
		return http.StatusBadGateway
	case types.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONResponse writes a JSON response with the given status code
func (s *Service) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeErrorResponse writes a structured JSON error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		s.logger.WithError(encodeErr).Error("Failed to encode error response")
	}
}

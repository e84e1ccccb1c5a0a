package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/recoverlens/recovery-engine/internal/consensus"
	"github.com/recoverlens/recovery-engine/internal/orchestrator"
	"github.com/recoverlens/recovery-engine/internal/provider"
	"github.com/recoverlens/recovery-engine/internal/storage"
	"github.com/recoverlens/recovery-engine/internal/trend"
	"github.com/recoverlens/recovery-engine/pkg/config"
	"github.com/recoverlens/recovery-engine/pkg/database"
	"github.com/recoverlens/recovery-engine/pkg/interfaces"
	"github.com/recoverlens/recovery-engine/pkg/logger"
	"github.com/recoverlens/recovery-engine/pkg/monitoring"
	"github.com/recoverlens/recovery-engine/pkg/types"
)

// persistTimeout bounds the asynchronous audit writes
const persistTimeout = 10 * time.Second

// Service implements the AnalysisService interface
type Service struct {
	config       *config.Config
	logger       *logger.Logger
	orchestrator *orchestrator.Orchestrator
	synthesizer  *consensus.Synthesizer
	engine       *trend.Engine
	store        interfaces.AuditStore
	metrics      *monitoring.MetricsCollector
	server       *http.Server
}

// New creates the consensus analysis service from configuration
func New(cfg *config.Config, log *logger.Logger) (interfaces.AnalysisService, error) {
	metrics := monitoring.NewMetricsCollector("analysis-service")

	adapters, err := provider.NewAdapters(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider adapters: %w", err)
	}

	orch := orchestrator.New(adapters,
		time.Duration(cfg.Engine.CallTimeoutSeconds)*time.Second, log, metrics)

	engine := trend.NewEngine(cfg.Engine.HistoryWindow, cfg.Engine.PredictionDays,
		cfg.Engine.ConfidenceDecay, log, metrics)

	var store interfaces.AuditStore = storage.NewNoopStore()
	if cfg.Database.Enabled {
		db, err := database.NewConnection(&cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to audit database: %w", err)
		}
		store, err = storage.NewPostgresStore(db, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audit store: %w", err)
		}
	}

	return &Service{
		config:       cfg,
		logger:       log,
		orchestrator: orch,
		synthesizer:  consensus.New(cfg.Engine.MaxRecommendations),
		engine:       engine,
		store:        store,
		metrics:      metrics,
	}, nil
}

// Analyze fans the request out to every capable provider and synthesizes the
// consensus. The only hard failure is NO_PROVIDER_AVAILABLE; individual
// provider failures are contained and logged.
func (s *Service) Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.ConsensusResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	ctx, span := monitoring.StartAnalysisSpan(ctx, req.ID, string(req.Modality))
	defer span.End()

	var subset []string
	if req.Context != nil {
		if names, ok := req.Context["providers"]; ok && names != "" {
			subset = splitProviderList(names)
		}
	}

	results, err := s.orchestrator.Collect(ctx, req, subset)
	if err != nil {
		s.metrics.RecordConsensus(string(req.Modality), "failure", 0)
		return nil, err
	}

	result := s.synthesizer.Synthesize(req.ID, results)

	s.metrics.RecordConsensus(string(req.Modality), "success", result.Metrics.AgreementLevel)
	s.logger.Consensus(req.ID, len(results), result.Metrics.AgreementLevel,
		string(result.Analysis.RiskTier), len(result.Metrics.ConflictingFindings))

	// Audit persistence never fails the request
	go s.persistConsensus(result)

	return result, nil
}

// RecordMetricSample appends one observation to the subject's bounded history
func (s *Service) RecordMetricSample(subjectID string, sample *types.HealthMetricSample) error {
	if subjectID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "subject ID is required", nil)
	}
	if sample == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "sample is required", nil)
	}

	sample.SubjectID = subjectID
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	s.engine.Record(subjectID, sample)
	s.logger.WithSubjectID(subjectID).WithField("history_size", s.engine.HistorySize(subjectID)).
		Debug("Recorded metric sample")

	go s.persistSample(sample)

	return nil
}

// GetTrends computes trend series for every tracked metric with data
func (s *Service) GetTrends(subjectID string, windowDays int) ([]*types.TrendSeries, error) {
	if subjectID == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "subject ID is required", nil)
	}
	return s.engine.Trends(subjectID, windowDays), nil
}

// PredictRisks evaluates the configured risk models. With a nil current
// sample the latest stored sample is used.
func (s *Service) PredictRisks(subjectID string, current *types.HealthMetricSample) ([]*types.RiskPrediction, error) {
	if subjectID == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "subject ID is required", nil)
	}
	if current == nil {
		current = s.engine.Latest(subjectID)
	}
	if current == nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"no current sample provided and no history recorded", nil)
	}
	return s.engine.PredictRisks(subjectID, current), nil
}

// ComputeHealthScore blends the weighted sub-scores for a subject
func (s *Service) ComputeHealthScore(subjectID string, current *types.HealthMetricSample) (*types.HealthScore, error) {
	if subjectID == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "subject ID is required", nil)
	}
	if current == nil {
		current = s.engine.Latest(subjectID)
	}
	if current == nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"no current sample provided and no history recorded", nil)
	}
	return s.engine.ComputeHealthScore(subjectID, current), nil
}

// Start starts the analysis service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.metrics.HTTPMiddleware(router),
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.Infof("Starting Analysis Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the analysis service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Analysis Service")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.store.Close()
}

func (s *Service) persistConsensus(result *types.ConsensusResult) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.SaveConsensus(ctx, result); err != nil {
		s.logger.WithRequestID(result.RequestID).WithError(err).
			Error("Failed to persist consensus result")
	}
}

func (s *Service) persistSample(sample *types.HealthMetricSample) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.SaveSample(ctx, sample); err != nil {
		s.logger.WithSubjectID(sample.SubjectID).WithError(err).
			Error("Failed to persist metric sample")
	}
}

// validateRequest checks the request shape before any provider is invoked
func validateRequest(req *types.AnalysisRequest) error {
	if req == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "request is required", nil)
	}
	if !types.ValidModality(req.Modality) {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unknown modality %q", req.Modality), nil)
	}
	switch req.Modality {
	case types.ModalityText:
		if req.Text == "" {
			return types.NewValidationError(types.ErrCodeInvalidInput,
				"text modality requires text content", nil)
		}
	case types.ModalityVision:
		if len(req.Images) == 0 {
			return types.NewValidationError(types.ErrCodeInvalidInput,
				"vision modality requires at least one image", nil)
		}
	case types.ModalityMultimodal:
		if req.Text == "" && len(req.Images) == 0 {
			return types.NewValidationError(types.ErrCodeInvalidInput,
				"multimodal modality requires text or images", nil)
		}
	}
	return nil
}

// splitProviderList parses the comma-separated provider subset hint
func splitProviderList(names string) []string {
	var subset []string
	for _, name := range strings.Split(names, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			subset = append(subset, trimmed)
		}
	}
	return subset
}

package interfaces

import (
	"context"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// ProviderAdapter wraps one external analysis backend behind a uniform
// interface. Implementations must be safe for concurrent use.
type ProviderAdapter interface {
	// Provider returns the static identity of the wrapped backend
	Provider() types.Provider

	// Invoke runs one analysis call. A successful transport with an
	// unparsable payload does not fail: the adapter falls back to heuristic
	// extraction and returns a result with reduced confidence.
	Invoke(ctx context.Context, req *types.AnalysisRequest) (*types.ProviderResult, error)
}

// AnalysisService is the inbound surface of the consensus engine
type AnalysisService interface {
	// Analyze fans the request out to every capable provider and returns the
	// synthesized consensus. Fails only when no provider succeeded.
	Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.ConsensusResult, error)

	// Metric history and temporal predictions
	RecordMetricSample(subjectID string, sample *types.HealthMetricSample) error
	GetTrends(subjectID string, windowDays int) ([]*types.TrendSeries, error)
	PredictRisks(subjectID string, current *types.HealthMetricSample) ([]*types.RiskPrediction, error)
	ComputeHealthScore(subjectID string, current *types.HealthMetricSample) (*types.HealthScore, error)

	// Service management
	Start(addr string) error
	Stop() error
}

// AuditStore is the outbound persistence contract. The engine only needs an
// append/query surface; the backing store is an external collaborator.
type AuditStore interface {
	SaveConsensus(ctx context.Context, result *types.ConsensusResult) error
	SaveSample(ctx context.Context, sample *types.HealthMetricSample) error
	ListSamples(ctx context.Context, subjectID string, limit int) ([]*types.HealthMetricSample, error)
	Close() error
}

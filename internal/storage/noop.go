package storage

import (
	"context"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// NoopStore discards everything. Used when the audit database is disabled;
// the engine's in-memory history is unaffected.
type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (n *NoopStore) SaveConsensus(ctx context.Context, result *types.ConsensusResult) error {
	return nil
}

func (n *NoopStore) SaveSample(ctx context.Context, sample *types.HealthMetricSample) error {
	return nil
}

func (n *NoopStore) ListSamples(ctx context.Context, subjectID string, limit int) ([]*types.HealthMetricSample, error) {
	return nil, nil
}

func (n *NoopStore) Close() error {
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/recoverlens/recovery-engine/pkg/database"
	"github.com/recoverlens/recovery-engine/pkg/logger"
	"github.com/recoverlens/recovery-engine/pkg/types"
)

// PostgresStore persists consensus results and metric samples for audit and
// offline analysis. The in-memory history remains the authority for trend
// computation; this store is append-only.
type PostgresStore struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresStore creates the store and ensures its schema exists
func NewPostgresStore(db *database.DB, log *logger.Logger) (*PostgresStore, error) {
	store := &PostgresStore{db: db, logger: log}
	if err := store.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return store, nil
}

// ensureSchema creates the audit tables if they do not exist
func (s *PostgresStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS consensus_results (
		request_id   TEXT PRIMARY KEY,
		risk_tier    TEXT NOT NULL,
		agreement    DOUBLE PRECISION NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		result       JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS metric_samples (
		id           BIGSERIAL PRIMARY KEY,
		subject_id   TEXT NOT NULL,
		recorded_at  TIMESTAMPTZ NOT NULL,
		sample       JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_metric_samples_subject
		ON metric_samples (subject_id, recorded_at DESC);`

	_, err := s.db.Exec(schema)
	return err
}

// SaveConsensus appends one consensus result
func (s *PostgresStore) SaveConsensus(ctx context.Context, result *types.ConsensusResult) error {
	start := time.Now()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode consensus result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO consensus_results (request_id, risk_tier, agreement, confidence, result)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (request_id) DO NOTHING`,
		result.RequestID,
		string(result.Analysis.RiskTier),
		result.Metrics.AgreementLevel,
		result.Confidence,
		payload,
	)

	s.logger.DatabaseOperation(ctx, "insert", "consensus_results",
		time.Since(start).Milliseconds(), 1, err == nil, nil)
	if err != nil {
		return fmt.Errorf("failed to save consensus result: %w", err)
	}
	return nil
}

// SaveSample appends one metric sample
func (s *PostgresStore) SaveSample(ctx context.Context, sample *types.HealthMetricSample) error {
	start := time.Now()

	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to encode metric sample: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO metric_samples (subject_id, recorded_at, sample) VALUES ($1, $2, $3)`,
		sample.SubjectID,
		sample.Timestamp,
		payload,
	)

	s.logger.DatabaseOperation(ctx, "insert", "metric_samples",
		time.Since(start).Milliseconds(), 1, err == nil, nil)
	if err != nil {
		return fmt.Errorf("failed to save metric sample: %w", err)
	}
	return nil
}

// ListSamples returns up to limit of a subject's most recent samples, newest
// first
func (s *PostgresStore) ListSamples(ctx context.Context, subjectID string, limit int) ([]*types.HealthMetricSample, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sample FROM metric_samples WHERE subject_id = $1 ORDER BY recorded_at DESC LIMIT $2`,
		subjectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric samples: %w", err)
	}
	defer rows.Close()

	var samples []*types.HealthMetricSample
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan metric sample: %w", err)
		}
		var sample types.HealthMetricSample
		if err := json.Unmarshal(payload, &sample); err != nil {
			return nil, fmt.Errorf("failed to decode metric sample: %w", err)
		}
		samples = append(samples, &sample)
	}

	return samples, rows.Err()
}

// Close closes the underlying connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

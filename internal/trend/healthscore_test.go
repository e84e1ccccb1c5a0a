package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

func TestComputeHealthScore_NoHistory(t *testing.T) {
	e := testEngine()

	score := e.ComputeHealthScore("subject-1", &types.HealthMetricSample{
		SubjectID:           "subject-1",
		Timestamp:           time.Now(),
		Pain:                fp(2),
		Mobility:            fp(80),
		Stress:              fp(20),
		SleepQuality:        fp(80),
		MedicationAdherence: fp(90),
		ExerciseCompliance:  fp(70),
	})

	require.NotNil(t, score)
	assert.InDelta(t, 80.0, score.Physical, 0.001)
	assert.InDelta(t, 80.0, score.Mental, 0.001)
	assert.InDelta(t, 80.0, score.Compliance, 0.001)
	assert.InDelta(t, 50.0, score.Recovery, 0.001)
	assert.InDelta(t, 72.5, score.Overall, 0.001)
}

func TestComputeHealthScore_EmptySampleIsNeutral(t *testing.T) {
	e := testEngine()

	score := e.ComputeHealthScore("subject-1", &types.HealthMetricSample{
		SubjectID: "subject-1",
		Timestamp: time.Now(),
	})

	assert.InDelta(t, 50.0, score.Physical, 0.001)
	assert.InDelta(t, 50.0, score.Mental, 0.001)
	assert.InDelta(t, 50.0, score.Compliance, 0.001)
	assert.InDelta(t, 50.0, score.Recovery, 0.001)
	assert.InDelta(t, 50.0, score.Overall, 0.001)
}

func TestComputeHealthScore_RecoveryRewardsImprovement(t *testing.T) {
	e := testEngine()
	base := time.Now().AddDate(0, 0, -14)

	for i := 0; i < 7; i++ {
		e.Record("subject-1", &types.HealthMetricSample{
			SubjectID: "subject-1",
			Timestamp: base.AddDate(0, 0, i),
			Pain:      fp(6),
			Mobility:  fp(40),
		})
	}
	for i := 7; i < 14; i++ {
		e.Record("subject-1", &types.HealthMetricSample{
			SubjectID: "subject-1",
			Timestamp: base.AddDate(0, 0, i),
			Pain:      fp(3),
			Mobility:  fp(70),
		})
	}

	score := e.ComputeHealthScore("subject-1", &types.HealthMetricSample{
		SubjectID: "subject-1",
		Timestamp: time.Now(),
		Pain:      fp(3),
		Mobility:  fp(70),
	})

	assert.Greater(t, score.Recovery, 50.0)
}

func TestComputeHealthScore_RecoveryPenalizesDecline(t *testing.T) {
	e := testEngine()
	base := time.Now().AddDate(0, 0, -14)

	for i := 0; i < 7; i++ {
		e.Record("subject-1", &types.HealthMetricSample{
			SubjectID: "subject-1",
			Timestamp: base.AddDate(0, 0, i),
			Pain:      fp(2),
			Mobility:  fp(80),
		})
	}
	for i := 7; i < 14; i++ {
		e.Record("subject-1", &types.HealthMetricSample{
			SubjectID: "subject-1",
			Timestamp: base.AddDate(0, 0, i),
			Pain:      fp(7),
			Mobility:  fp(40),
		})
	}

	score := e.ComputeHealthScore("subject-1", &types.HealthMetricSample{
		SubjectID: "subject-1",
		Timestamp: time.Now(),
		Pain:      fp(7),
		Mobility:  fp(40),
	})

	assert.Less(t, score.Recovery, 50.0)
}

func TestComputeHealthScore_OverallStaysInRange(t *testing.T) {
	e := testEngine()

	score := e.ComputeHealthScore("subject-1", &types.HealthMetricSample{
		SubjectID:           "subject-1",
		Timestamp:           time.Now(),
		Pain:                fp(0),
		Mobility:            fp(100),
		Stress:              fp(0),
		SleepQuality:        fp(100),
		MedicationAdherence: fp(100),
		ExerciseCompliance:  fp(100),
	})

	assert.LessOrEqual(t, score.Overall, 100.0)
	assert.GreaterOrEqual(t, score.Overall, 0.0)
}

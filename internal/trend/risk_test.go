package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

func fp(v float64) *float64 { return &v }

func highRiskSample() *types.HealthMetricSample {
	return &types.HealthMetricSample{
		SubjectID:           "subject-1",
		Timestamp:           time.Now(),
		Pain:                fp(9),
		MedicationAdherence: fp(20),
		Vitals: &types.VitalSigns{
			Temperature: fp(39.5),
			HeartRate:   fp(130),
		},
	}
}

func healthySample() *types.HealthMetricSample {
	return &types.HealthMetricSample{
		SubjectID:           "subject-1",
		Timestamp:           time.Now(),
		Pain:                fp(1),
		Mobility:            fp(90),
		MedicationAdherence: fp(95),
		ExerciseCompliance:  fp(90),
		SleepQuality:        fp(90),
		Stress:              fp(10),
		Vitals: &types.VitalSigns{
			Temperature: fp(36.8),
			HeartRate:   fp(65),
		},
	}
}

func TestPredictRisks_HighRiskSample(t *testing.T) {
	e := testEngine()

	predictions := e.PredictRisks("subject-1", highRiskSample())

	require.NotEmpty(t, predictions)
	top := predictions[0]
	assert.Equal(t, "infection", top.Condition)
	assert.InDelta(t, 95.0, top.RiskPercent, 0.001)
	assert.Equal(t, types.SeverityCritical, top.Severity)
	assert.Contains(t, top.ContributingFactors, "elevated_temperature")
	assert.Contains(t, top.ContributingFactors, "high_pain")
	assert.Contains(t, top.ContributingFactors, "poor_medication_adherence")
	assert.NotEmpty(t, top.Recommendations)
	assert.Equal(t, "7-14 days", top.Timeframe)
}

func TestPredictRisks_SortedDescending(t *testing.T) {
	e := testEngine()

	predictions := e.PredictRisks("subject-1", highRiskSample())

	for i := 1; i < len(predictions); i++ {
		assert.GreaterOrEqual(t, predictions[i-1].RiskPercent, predictions[i].RiskPercent)
	}
}

func TestPredictRisks_HealthySampleReportsNothing(t *testing.T) {
	e := testEngine()

	predictions := e.PredictRisks("subject-1", healthySample())

	assert.Empty(t, predictions)
}

func TestPredictRisks_EmptySampleReportsNothing(t *testing.T) {
	e := testEngine()

	predictions := e.PredictRisks("subject-1", &types.HealthMetricSample{
		SubjectID: "subject-1",
		Timestamp: time.Now(),
	})

	assert.Empty(t, predictions)
}

func TestPredictRisks_ConfidenceScalesWithCoverage(t *testing.T) {
	e := testEngine()

	// Only two of infection's four factors carry data
	sample := &types.HealthMetricSample{
		SubjectID: "subject-1",
		Timestamp: time.Now(),
		Pain:      fp(10),
		Vitals:    &types.VitalSigns{Temperature: fp(39.5)},
	}

	predictions := e.PredictRisks("subject-1", sample)

	require.NotEmpty(t, predictions)
	var infection *types.RiskPrediction
	for _, p := range predictions {
		if p.Condition == "infection" {
			infection = p
		}
	}
	require.NotNil(t, infection)
	assert.InDelta(t, 0.7, infection.Confidence, 0.001)
}

func TestPredictRisks_RiskNeverExceedsCap(t *testing.T) {
	e := testEngine()

	sample := &types.HealthMetricSample{
		SubjectID:           "subject-1",
		Timestamp:           time.Now(),
		Pain:                fp(10),
		Mobility:            fp(0),
		MedicationAdherence: fp(0),
		ExerciseCompliance:  fp(0),
		SleepQuality:        fp(0),
		Stress:              fp(100),
		Vitals: &types.VitalSigns{
			Temperature: fp(41),
			HeartRate:   fp(160),
		},
	}

	predictions := e.PredictRisks("subject-1", sample)

	require.Len(t, predictions, 4)
	for _, p := range predictions {
		assert.LessOrEqual(t, p.RiskPercent, 95.0)
	}
}

func TestSeverityFromPercent_Bands(t *testing.T) {
	assert.Equal(t, types.SeverityLow, types.SeverityFromPercent(10))
	assert.Equal(t, types.SeverityModerate, types.SeverityFromPercent(25))
	assert.Equal(t, types.SeverityHigh, types.SeverityFromPercent(50))
	assert.Equal(t, types.SeverityCritical, types.SeverityFromPercent(75))
}

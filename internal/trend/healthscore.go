package trend

import (
	"time"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// Sub-score weights of the blended health score
const (
	physicalWeight   = 0.30
	mentalWeight     = 0.20
	complianceWeight = 0.25
	recoveryWeight   = 0.25

	neutralScore = 50.0

	// recoveryWindow is the sample count compared on each side of the
	// recent-vs-older split
	recoveryWindow = 7
)

// ComputeHealthScore blends physical, mental, compliance, and recovery
// sub-scores into one 0-100 value. Each sub-score derives from the current
// sample; the recovery sub-score compares the mean of the last window of
// stored samples against the window before it. Missing fields fall back to a
// neutral score rather than failing.
func (e *Engine) ComputeHealthScore(subjectID string, current *types.HealthMetricSample) *types.HealthScore {
	physical := meanOrNeutral(
		inverted(current.Pain, 10),
		direct(current.Mobility),
	)
	mental := meanOrNeutral(
		inverted(current.Stress, 100),
		direct(current.SleepQuality),
	)
	compliance := meanOrNeutral(
		direct(current.MedicationAdherence),
		direct(current.ExerciseCompliance),
	)
	recovery := e.recoverySubScore(subjectID)

	overall := physical*physicalWeight +
		mental*mentalWeight +
		compliance*complianceWeight +
		recovery*recoveryWeight

	return &types.HealthScore{
		Overall:    clamp(overall, 0, 100),
		Physical:   physical,
		Mental:     mental,
		Compliance: compliance,
		Recovery:   recovery,
		ComputedAt: time.Now(),
	}
}

// recoverySubScore compares the recent window against the one before it
// using a pain/mobility composite; with too little history it stays neutral
func (e *Engine) recoverySubScore(subjectID string) float64 {
	samples := e.history.Snapshot(subjectID)
	if len(samples) < 2*recoveryWindow {
		return neutralScore
	}

	recent := samples[len(samples)-recoveryWindow:]
	older := samples[len(samples)-2*recoveryWindow : len(samples)-recoveryWindow]

	recentMean, recentOK := compositeMean(recent)
	olderMean, olderOK := compositeMean(older)
	if !recentOK || !olderOK {
		return neutralScore
	}

	// A composite gain of 25 points over one window saturates the sub-score
	delta := recentMean - olderMean
	return clamp(neutralScore+delta*2, 0, 100)
}

// compositeMean averages a 0-100 recovery composite (mobility and inverted
// pain) over a window, skipping samples with neither field
func compositeMean(samples []*types.HealthMetricSample) (float64, bool) {
	var sum float64
	var n int
	for _, s := range samples {
		composite, ok := meanAvailable(
			inverted(s.Pain, 10),
			direct(s.Mobility),
		)
		if !ok {
			continue
		}
		sum += composite
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// direct passes a 0-100 field through unchanged
func direct(v *float64) *float64 {
	return v
}

// inverted maps a lower-is-better field onto a 0-100 higher-is-better scale
func inverted(v *float64, scale float64) *float64 {
	if v == nil {
		return nil
	}
	score := clamp((1-*v/scale)*100, 0, 100)
	return &score
}

// meanOrNeutral averages the available inputs, or stays neutral when none
// are present
func meanOrNeutral(inputs ...*float64) float64 {
	if m, ok := meanAvailable(inputs...); ok {
		return m
	}
	return neutralScore
}

func meanAvailable(inputs ...*float64) (float64, bool) {
	var sum float64
	var n int
	for _, v := range inputs {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

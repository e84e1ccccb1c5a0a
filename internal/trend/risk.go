package trend

import (
	"sort"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// factorSignal computes one factor's normalized signal in [0,1] from the
// current sample, or reports that the required data is absent
type factorSignal func(sample *types.HealthMetricSample) (float64, bool)

var factorSignals = map[string]factorSignal{
	"high_pain": func(s *types.HealthMetricSample) (float64, bool) {
		if s.Pain == nil {
			return 0, false
		}
		return clamp(*s.Pain/10, 0, 1), true
	},
	"low_mobility": func(s *types.HealthMetricSample) (float64, bool) {
		if s.Mobility == nil {
			return 0, false
		}
		return clamp(1-*s.Mobility/100, 0, 1), true
	},
	"poor_medication_adherence": func(s *types.HealthMetricSample) (float64, bool) {
		if s.MedicationAdherence == nil {
			return 0, false
		}
		return clamp(1-*s.MedicationAdherence/100, 0, 1), true
	},
	"low_exercise_compliance": func(s *types.HealthMetricSample) (float64, bool) {
		if s.ExerciseCompliance == nil {
			return 0, false
		}
		return clamp(1-*s.ExerciseCompliance/100, 0, 1), true
	},
	"poor_sleep": func(s *types.HealthMetricSample) (float64, bool) {
		if s.SleepQuality == nil {
			return 0, false
		}
		return clamp(1-*s.SleepQuality/100, 0, 1), true
	},
	"high_stress": func(s *types.HealthMetricSample) (float64, bool) {
		if s.Stress == nil {
			return 0, false
		}
		return clamp(*s.Stress/100, 0, 1), true
	},
	"elevated_temperature": func(s *types.HealthMetricSample) (float64, bool) {
		if s.Vitals == nil || s.Vitals.Temperature == nil {
			return 0, false
		}
		// 37.0C is neutral; 39.5C and above saturates the signal
		return clamp((*s.Vitals.Temperature-37.0)/2.5, 0, 1), true
	},
	"elevated_heart_rate": func(s *types.HealthMetricSample) (float64, bool) {
		if s.Vitals == nil || s.Vitals.HeartRate == nil {
			return 0, false
		}
		// 80 bpm resting is neutral; 130 saturates
		return clamp((*s.Vitals.HeartRate-80)/50, 0, 1), true
	},
}

// contributingThreshold marks a factor as worth naming in the prediction
const contributingThreshold = 0.3

// riskCap bounds every reported percentage
const riskCap = 95

// defaultRiskModels returns the static condition models evaluated for every
// risk prediction request
func defaultRiskModels() []types.RiskModel {
	return []types.RiskModel{
		{
			Condition: "infection",
			Factors: []types.RiskFactor{
				{Name: "elevated_temperature", Weight: 0.35},
				{Name: "high_pain", Weight: 0.25},
				{Name: "poor_medication_adherence", Weight: 0.25},
				{Name: "elevated_heart_rate", Weight: 0.15},
			},
			Baseline:        5,
			ReportThreshold: 20,
			Cap:             riskCap,
			Timeframe:       "7-14 days",
		},
		{
			Condition: "delayed_healing",
			Factors: []types.RiskFactor{
				{Name: "poor_medication_adherence", Weight: 0.30},
				{Name: "low_exercise_compliance", Weight: 0.30},
				{Name: "poor_sleep", Weight: 0.20},
				{Name: "high_stress", Weight: 0.20},
			},
			Baseline:        10,
			ReportThreshold: 25,
			Cap:             riskCap,
			Timeframe:       "2-4 weeks",
		},
		{
			Condition: "chronic_pain",
			Factors: []types.RiskFactor{
				{Name: "high_pain", Weight: 0.40},
				{Name: "low_mobility", Weight: 0.30},
				{Name: "poor_sleep", Weight: 0.30},
			},
			Baseline:        8,
			ReportThreshold: 30,
			Cap:             riskCap,
			Timeframe:       "1-3 months",
		},
		{
			Condition: "emotional_distress",
			Factors: []types.RiskFactor{
				{Name: "high_stress", Weight: 0.40},
				{Name: "poor_sleep", Weight: 0.30},
				{Name: "high_pain", Weight: 0.30},
			},
			Baseline:        10,
			ReportThreshold: 25,
			Cap:             riskCap,
			Timeframe:       "2-6 weeks",
		},
	}
}

var riskRecommendations = map[string][]string{
	"infection": {
		"monitor temperature twice daily",
		"keep the wound site clean and dry",
		"contact your care team if fever persists",
	},
	"delayed_healing": {
		"review medication schedule with your provider",
		"resume the prescribed exercise program gradually",
		"prioritize sleep hygiene",
	},
	"chronic_pain": {
		"discuss pain management options with your provider",
		"continue gentle mobility exercises",
		"track pain levels daily",
	},
	"emotional_distress": {
		"consider stress-reduction techniques",
		"maintain a regular sleep schedule",
		"reach out to your support network",
	},
}

// PredictRisks evaluates every configured risk model against the current
// sample and returns predictions above each model's reporting threshold,
// sorted descending by risk percentage. Missing optional fields contribute
// nothing; they are never errors.
func (e *Engine) PredictRisks(subjectID string, current *types.HealthMetricSample) []*types.RiskPrediction {
	predictions := make([]*types.RiskPrediction, 0, len(e.models))

	for _, model := range e.models {
		prediction := e.evaluateModel(model, current)
		if prediction == nil {
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordRiskPrediction(prediction.Condition, string(prediction.Severity))
		}
		predictions = append(predictions, prediction)
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].RiskPercent > predictions[j].RiskPercent
	})

	return predictions
}

// evaluateModel computes risk = baseline + sum(weight * signal) scaled to
// percent, clamped to the cap; returns nil below the reporting threshold or
// when no factor has data
func (e *Engine) evaluateModel(model types.RiskModel, sample *types.HealthMetricSample) *types.RiskPrediction {
	var weighted float64
	var contributing []string
	available := 0

	for _, factor := range model.Factors {
		signalFn, ok := factorSignals[factor.Name]
		if !ok {
			continue
		}
		signal, hasData := signalFn(sample)
		if !hasData {
			continue
		}
		available++
		weighted += factor.Weight * signal
		if signal >= contributingThreshold {
			contributing = append(contributing, factor.Name)
		}
	}

	if available == 0 {
		return nil
	}

	percent := clamp(model.Baseline+weighted*100, 0, model.Cap)
	if percent < model.ReportThreshold {
		return nil
	}

	// Confidence scales with how much of the factor model had data
	coverage := float64(available) / float64(len(model.Factors))
	confidence := 0.5 + 0.4*coverage

	return &types.RiskPrediction{
		Condition:           model.Condition,
		RiskPercent:         percent,
		Confidence:          confidence,
		ContributingFactors: contributing,
		Recommendations:     riskRecommendations[model.Condition],
		Timeframe:           model.Timeframe,
		Severity:            types.SeverityFromPercent(percent),
	}
}

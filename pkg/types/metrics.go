package types

import "time"

// VitalSigns holds optional vital measurements from one observation. Absent
// fields contribute nothing to downstream computations.
type VitalSigns struct {
	HeartRate        *float64 `json:"heart_rate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	SystolicBP       *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP      *float64 `json:"diastolic_bp,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
}

// HealthMetricSample is one timestamped multi-field snapshot of a subject's
// recovery metrics. Pain uses a 0-10 scale; the other normalized scores use
// 0-100.
type HealthMetricSample struct {
	SubjectID           string             `json:"subject_id"`
	Timestamp           time.Time          `json:"timestamp"`
	Pain                *float64           `json:"pain,omitempty"`
	Mobility            *float64           `json:"mobility,omitempty"`
	MedicationAdherence *float64           `json:"medication_adherence,omitempty"`
	ExerciseCompliance  *float64           `json:"exercise_compliance,omitempty"`
	SleepQuality        *float64           `json:"sleep_quality,omitempty"`
	Stress              *float64           `json:"stress,omitempty"`
	Vitals              *VitalSigns        `json:"vitals,omitempty"`
	Environment         map[string]float64 `json:"environment,omitempty"`
}

// TrendDirection labels the computed direction of a metric over time
type TrendDirection string

const (
	TrendImproving        TrendDirection = "improving"
	TrendStable           TrendDirection = "stable"
	TrendDeclining        TrendDirection = "declining"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// TrendPoint is one observed (date, value) pair
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TrendPrediction is one extrapolated future value with decaying confidence
type TrendPrediction struct {
	Date           time.Time `json:"date"`
	PredictedValue float64   `json:"predicted_value"`
	Confidence     float64   `json:"confidence"`
}

// TrendSeries is a metric's history plus its computed direction and forward
// predictions. Direction equals TrendInsufficientData when fewer than three
// samples were available; Predictions is empty in that case.
type TrendSeries struct {
	Metric      string            `json:"metric"`
	Points      []TrendPoint      `json:"points"`
	Direction   TrendDirection    `json:"direction"`
	Slope       float64           `json:"slope"`
	Predictions []TrendPrediction `json:"predictions"`
}

// RiskFactor is one weighted input of a risk model
type RiskFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// RiskModel is the static weighted-factor formula for one condition.
// Factor weights sum to approximately 1.
type RiskModel struct {
	Condition       string       `json:"condition"`
	Factors         []RiskFactor `json:"factors"`
	Baseline        float64      `json:"baseline"`         // percent
	ReportThreshold float64      `json:"report_threshold"` // percent
	Cap             float64      `json:"cap"`              // percent
	Timeframe       string       `json:"timeframe"`
}

// RiskSeverity bands a risk percentage into a severity tier
type RiskSeverity string

const (
	SeverityLow      RiskSeverity = "low"
	SeverityModerate RiskSeverity = "moderate"
	SeverityHigh     RiskSeverity = "high"
	SeverityCritical RiskSeverity = "critical"
)

// SeverityFromPercent maps a risk percentage onto severity bands:
// >=75 critical, >=50 high, >=25 moderate, else low.
func SeverityFromPercent(percent float64) RiskSeverity {
	switch {
	case percent >= 75:
		return SeverityCritical
	case percent >= 50:
		return SeverityHigh
	case percent >= 25:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// RiskPrediction is one condition's estimated risk for a subject
type RiskPrediction struct {
	Condition           string       `json:"condition"`
	RiskPercent         float64      `json:"risk_percent"`
	Confidence          float64      `json:"confidence"`
	ContributingFactors []string     `json:"contributing_factors"`
	Recommendations     []string     `json:"recommendations"`
	Timeframe           string       `json:"timeframe"`
	Severity            RiskSeverity `json:"severity"`
}

// HealthScore is the weighted blend of sub-scores derived from the latest
// sample and the recent-vs-older window comparison
type HealthScore struct {
	Overall    float64   `json:"overall"`
	Physical   float64   `json:"physical"`
	Mental     float64   `json:"mental"`
	Compliance float64   `json:"compliance"`
	Recovery   float64   `json:"recovery"`
	ComputedAt time.Time `json:"computed_at"`
}

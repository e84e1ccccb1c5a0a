package trend

import (
	"math"
	"time"

	"github.com/recoverlens/recovery-engine/pkg/logger"
	"github.com/recoverlens/recovery-engine/pkg/monitoring"
	"github.com/recoverlens/recovery-engine/pkg/types"
)

const (
	// MinSamplesForTrend is required before regression is attempted
	MinSamplesForTrend = 3

	// slopeThreshold separates stable from directional trends
	slopeThreshold = 0.1

	// Prediction confidence starts near 0.9 and decays per day, floored
	predictionBaseConfidence  = 0.9
	predictionFloorConfidence = 0.3
)

// metricSpec describes how one tracked metric is read from a sample and
// interpreted
type metricSpec struct {
	name string
	// lowerIsBetter flips the improving/declining sign convention
	lowerIsBetter bool
	min, max      float64
	get           func(*types.HealthMetricSample) *float64
}

var trackedMetrics = []metricSpec{
	{name: "pain", lowerIsBetter: true, min: 0, max: 10,
		get: func(s *types.HealthMetricSample) *float64 { return s.Pain }},
	{name: "mobility", min: 0, max: 100,
		get: func(s *types.HealthMetricSample) *float64 { return s.Mobility }},
	{name: "medication_adherence", min: 0, max: 100,
		get: func(s *types.HealthMetricSample) *float64 { return s.MedicationAdherence }},
	{name: "exercise_compliance", min: 0, max: 100,
		get: func(s *types.HealthMetricSample) *float64 { return s.ExerciseCompliance }},
	{name: "sleep_quality", min: 0, max: 100,
		get: func(s *types.HealthMetricSample) *float64 { return s.SleepQuality }},
	{name: "stress", lowerIsBetter: true, min: 0, max: 100,
		get: func(s *types.HealthMetricSample) *float64 { return s.Stress }},
}

// Engine maintains per-subject metric histories and derives trends, forward
// predictions, condition risks, and the blended health score
type Engine struct {
	history         *History
	predictionDays  int
	confidenceDecay float64
	models          []types.RiskModel
	logger          *logger.Logger
	metrics         *monitoring.MetricsCollector
}

// NewEngine creates a temporal engine with the default risk models
func NewEngine(window, predictionDays int, confidenceDecay float64, log *logger.Logger, metrics *monitoring.MetricsCollector) *Engine {
	if predictionDays <= 0 {
		predictionDays = 7
	}
	if confidenceDecay <= 0 {
		confidenceDecay = 0.08
	}
	return &Engine{
		history:         NewHistory(window),
		predictionDays:  predictionDays,
		confidenceDecay: confidenceDecay,
		models:          defaultRiskModels(),
		logger:          log,
		metrics:         metrics,
	}
}

// Record appends one sample to the subject's bounded history
func (e *Engine) Record(subjectID string, sample *types.HealthMetricSample) {
	e.history.Append(subjectID, sample)
}

// HistorySize returns the stored sample count for a subject
func (e *Engine) HistorySize(subjectID string) int {
	return e.history.Len(subjectID)
}

// Latest returns the most recently appended sample, or nil for an unknown
// subject
func (e *Engine) Latest(subjectID string) *types.HealthMetricSample {
	samples := e.history.Snapshot(subjectID)
	if len(samples) == 0 {
		return nil
	}
	return samples[len(samples)-1]
}

// Trends computes a TrendSeries for every tracked metric with at least one
// observation in the subject's recent window. windowDays <= 0 means the full
// stored history.
func (e *Engine) Trends(subjectID string, windowDays int) []*types.TrendSeries {
	samples := e.history.Snapshot(subjectID)
	if windowDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -windowDays)
		filtered := samples[:0:0]
		for _, s := range samples {
			if !s.Timestamp.Before(cutoff) {
				filtered = append(filtered, s)
			}
		}
		samples = filtered
	}

	var series []*types.TrendSeries
	for _, spec := range trackedMetrics {
		ts := e.trendForMetric(spec, samples)
		if ts == nil {
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordTrendComputation(ts.Metric, string(ts.Direction))
		}
		series = append(series, ts)
	}
	return series
}

// Trend computes the series for one named metric over the full stored history
func (e *Engine) Trend(subjectID, metric string) *types.TrendSeries {
	samples := e.history.Snapshot(subjectID)
	for _, spec := range trackedMetrics {
		if spec.name == metric {
			ts := e.trendForMetric(spec, samples)
			if ts == nil {
				ts = &types.TrendSeries{Metric: metric, Direction: types.TrendInsufficientData}
			}
			return ts
		}
	}
	return &types.TrendSeries{Metric: metric, Direction: types.TrendInsufficientData}
}

// trendForMetric fits ordinary least squares over (sample index, value) and
// extrapolates the prediction horizon. Sample index, not timestamp spacing,
// is the regression abscissa: irregular sampling intervals are ignored.
func (e *Engine) trendForMetric(spec metricSpec, samples []*types.HealthMetricSample) *types.TrendSeries {
	var points []types.TrendPoint
	var values []float64
	for _, s := range samples {
		v := spec.get(s)
		if v == nil {
			continue
		}
		points = append(points, types.TrendPoint{Date: s.Timestamp, Value: *v})
		values = append(values, *v)
	}

	if len(points) == 0 {
		return nil
	}

	series := &types.TrendSeries{
		Metric: spec.name,
		Points: points,
	}

	// Minimum data guard: a sentinel series, not an error, since new
	// subjects reach this state in normal operation.
	if len(values) < MinSamplesForTrend {
		series.Direction = types.TrendInsufficientData
		series.Predictions = []types.TrendPrediction{}
		return series
	}

	slope, intercept := leastSquares(values)
	series.Slope = slope
	series.Direction = direction(slope, spec.lowerIsBetter)

	lastDate := points[len(points)-1].Date
	n := float64(len(values))
	for d := 1; d <= e.predictionDays; d++ {
		predicted := intercept + slope*(n-1+float64(d))
		predicted = clamp(predicted, spec.min, spec.max)

		confidence := predictionBaseConfidence - float64(d)*e.confidenceDecay
		if confidence < predictionFloorConfidence {
			confidence = predictionFloorConfidence
		}

		series.Predictions = append(series.Predictions, types.TrendPrediction{
			Date:           lastDate.AddDate(0, 0, d),
			PredictedValue: predicted,
			Confidence:     confidence,
		})
	}

	return series
}

// leastSquares fits y = intercept + slope*x with x = 0..n-1
func leastSquares(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// direction labels the slope, honoring metric-specific sign conventions
func direction(slope float64, lowerIsBetter bool) types.TrendDirection {
	if math.Abs(slope) <= slopeThreshold {
		return types.TrendStable
	}
	improving := slope > 0
	if lowerIsBetter {
		improving = !improving
	}
	if improving {
		return types.TrendImproving
	}
	return types.TrendDeclining
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// makeResult builds a provider result with the given tier, urgent-care flag,
// and recommendations
func makeResult(name string, confidence float64, tier types.RiskTier, urgent bool, recs ...string) types.ProviderResult {
	return types.ProviderResult{
		Provider: types.Provider{
			Name:         name,
			Capabilities: []types.Modality{types.ModalityText},
			Reliability:  confidence,
		},
		Confidence: confidence,
		Analysis: types.StructuredAnalysis{
			Findings:        []string{"finding from " + name},
			RiskTier:        tier,
			Recommendations: recs,
			UrgentCare:      urgent,
		},
		LatencyMS: 100,
	}
}

func TestSynthesize_SingleResultPassThrough(t *testing.T) {
	s := New(5)

	healing := 72.5
	input := types.ProviderResult{
		Provider:   types.Provider{Name: "alpha", Reliability: 0.9},
		Confidence: 0.9,
		Analysis: types.StructuredAnalysis{
			Findings:         []string{"swelling", "redness"},
			RiskTier:         types.RiskMedium,
			Recommendations:  []string{"keep the wound clean", "monitor for changes"},
			FollowUpRequired: true,
			HealingProgress:  &healing,
			Pain:             &types.PainAssessment{Level: 4, Type: "throbbing", Locations: []string{"left knee"}},
		},
		LatencyMS: 250,
	}

	result := s.Synthesize("req-1", []types.ProviderResult{input})

	assert.Equal(t, input.Analysis, result.Analysis)
	assert.Equal(t, 1.0, result.Metrics.AgreementLevel)
	assert.Empty(t, result.Metrics.ConflictingFindings)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, int64(250), result.ProcessingTimeMS)
}

func TestSynthesize_RiskTierMajority(t *testing.T) {
	// Scenario: {low, medium, medium} at equal confidence
	results := []types.ProviderResult{
		makeResult("alpha", 0.8, types.RiskLow, false, "rest and elevate"),
		makeResult("beta", 0.8, types.RiskMedium, false, "rest and elevate"),
		makeResult("gamma", 0.8, types.RiskMedium, false, "rest and elevate"),
	}

	result := New(5).Synthesize("req-2", results)

	assert.Equal(t, types.RiskMedium, result.Analysis.RiskTier)
	// Tier agreement 2/3, urgent-care agreement 3/3
	assert.InDelta(t, (2.0/3.0+1.0)/2, result.Metrics.AgreementLevel, 1e-9)
}

func TestSynthesize_UnanimousUrgentCare(t *testing.T) {
	results := []types.ProviderResult{
		makeResult("alpha", 0.9, types.RiskHigh, true, "seek medical attention"),
		makeResult("beta", 0.8, types.RiskHigh, true, "seek medical attention"),
		makeResult("gamma", 0.7, types.RiskHigh, true, "seek medical attention"),
	}

	result := New(5).Synthesize("req-3", results)

	assert.True(t, result.Analysis.UrgentCare)
	assert.Empty(t, result.Metrics.ConflictingFindings)
	assert.Equal(t, 1.0, result.Metrics.AgreementLevel)
}

func TestSynthesize_SplitUrgentCareIsMajorityWithConflict(t *testing.T) {
	results := []types.ProviderResult{
		makeResult("alpha", 0.9, types.RiskHigh, true, "seek medical attention"),
		makeResult("beta", 0.8, types.RiskHigh, true, "seek medical attention"),
		makeResult("gamma", 0.7, types.RiskHigh, false, "monitor for changes"),
	}

	result := New(5).Synthesize("req-4", results)

	assert.True(t, result.Analysis.UrgentCare)
	assert.Contains(t, result.Metrics.ConflictingFindings, "conflicting urgent-care recommendation")
}

func TestSynthesize_TierSpanConflict(t *testing.T) {
	results := []types.ProviderResult{
		makeResult("alpha", 0.8, types.RiskLow, false),
		makeResult("beta", 0.8, types.RiskMedium, false),
		makeResult("gamma", 0.8, types.RiskCritical, false),
	}

	result := New(5).Synthesize("req-5", results)

	assert.Contains(t, result.Metrics.ConflictingFindings, "risk assessment spans low, medium, critical")
}

func TestSynthesize_TierMonotoneUnderCriticalResults(t *testing.T) {
	results := []types.ProviderResult{
		makeResult("a", 0.8, types.RiskLow, false),
		makeResult("b", 0.8, types.RiskLow, false),
		makeResult("c", 0.8, types.RiskLow, false),
	}

	s := New(5)
	previous := s.Synthesize("req-6", results).Analysis.RiskTier.Ordinal()

	for i := 0; i < 4; i++ {
		results = append(results, makeResult("critical", 0.8, types.RiskCritical, false))
		current := s.Synthesize("req-6", results).Analysis.RiskTier.Ordinal()
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
	assert.GreaterOrEqual(t, previous, types.RiskMedium.Ordinal())
}

func TestSynthesize_RecommendationRanking(t *testing.T) {
	results := []types.ProviderResult{
		makeResult("alpha", 0.9, types.RiskLow, false, "rest", "ice", "elevate"),
		makeResult("beta", 0.8, types.RiskLow, false, "ice", "elevate", "hydrate", "stretch"),
		makeResult("gamma", 0.7, types.RiskLow, false, "elevate", "walk", "sleep"),
	}

	result := New(5).Synthesize("req-7", results)
	recs := result.Analysis.Recommendations

	assert.LessOrEqual(t, len(recs), 5)
	assert.Equal(t, "elevate", recs[0]) // voted by all three

	seen := make(map[string]bool)
	for _, r := range recs {
		assert.False(t, seen[r], "duplicate recommendation %q", r)
		seen[r] = true
	}
}

func TestSynthesize_NumericFieldAveraging(t *testing.T) {
	h1, h2 := 80.0, 60.0
	infection := 30.0

	r1 := makeResult("alpha", 0.8, types.RiskLow, false)
	r1.Analysis.HealingProgress = &h1
	r1.Analysis.InfectionRisk = &infection
	r2 := makeResult("beta", 0.8, types.RiskLow, false)
	r2.Analysis.HealingProgress = &h2
	r3 := makeResult("gamma", 0.8, types.RiskLow, false)

	result := New(5).Synthesize("req-8", []types.ProviderResult{r1, r2, r3})

	assert.NotNil(t, result.Analysis.HealingProgress)
	assert.InDelta(t, 70.0, *result.Analysis.HealingProgress, 1e-9)
	assert.NotNil(t, result.Analysis.InfectionRisk)
	assert.InDelta(t, 30.0, *result.Analysis.InfectionRisk, 1e-9)
	assert.Nil(t, result.Analysis.SymptomSeverity)
}

func TestSynthesize_PainMerge(t *testing.T) {
	r1 := makeResult("alpha", 0.8, types.RiskLow, false)
	r1.Analysis.Pain = &types.PainAssessment{Level: 6, Type: "sharp", Locations: []string{"knee"}}
	r2 := makeResult("beta", 0.8, types.RiskLow, false)
	r2.Analysis.Pain = &types.PainAssessment{Level: 4, Type: "sharp", Locations: []string{"hip"}}
	r3 := makeResult("gamma", 0.8, types.RiskLow, false)
	r3.Analysis.Pain = &types.PainAssessment{Level: 5, Type: "dull"}

	result := New(5).Synthesize("req-9", []types.ProviderResult{r1, r2, r3})

	assert.NotNil(t, result.Analysis.Pain)
	assert.Equal(t, 5, result.Analysis.Pain.Level)
	assert.Equal(t, "sharp", result.Analysis.Pain.Type)
	assert.ElementsMatch(t, []string{"knee", "hip"}, result.Analysis.Pain.Locations)
}

func TestSynthesize_FindingsUnionIsStable(t *testing.T) {
	r1 := makeResult("alpha", 0.8, types.RiskLow, false)
	r1.Analysis.Findings = []string{"swelling", "redness"}
	r2 := makeResult("beta", 0.8, types.RiskLow, false)
	r2.Analysis.Findings = []string{"redness", "bruising"}

	result := New(5).Synthesize("req-10", []types.ProviderResult{r1, r2})

	assert.Equal(t, []string{"swelling", "redness", "bruising"}, result.Analysis.Findings)
}

func TestSynthesize_ProcessingTimeIsMaxLatency(t *testing.T) {
	r1 := makeResult("alpha", 0.8, types.RiskLow, false)
	r1.LatencyMS = 120
	r2 := makeResult("beta", 0.8, types.RiskLow, false)
	r2.LatencyMS = 900
	r3 := makeResult("gamma", 0.8, types.RiskLow, false)
	r3.LatencyMS = 340

	result := New(5).Synthesize("req-11", []types.ProviderResult{r1, r2, r3})

	assert.Equal(t, int64(900), result.ProcessingTimeMS)
}

func TestSynthesize_EmptyInputReturnsNil(t *testing.T) {
	assert.Nil(t, New(5).Synthesize("req-12", nil))
}

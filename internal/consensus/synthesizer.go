package consensus

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// DefaultMaxRecommendations caps the consensus recommendation list
const DefaultMaxRecommendations = 5

// Synthesizer merges independent provider results into one consensus
// judgment with quantified agreement and conflict metrics
type Synthesizer struct {
	maxRecommendations int
}

// New creates a synthesizer. maxRecommendations <= 0 selects the default cap.
func New(maxRecommendations int) *Synthesizer {
	if maxRecommendations <= 0 {
		maxRecommendations = DefaultMaxRecommendations
	}
	return &Synthesizer{maxRecommendations: maxRecommendations}
}

// Synthesize merges one or more provider results into a ConsensusResult.
// The orchestrator guarantees the list is never empty; a defensive empty
// input yields a nil result.
func (s *Synthesizer) Synthesize(requestID string, results []types.ProviderResult) *types.ConsensusResult {
	if len(results) == 0 {
		return nil
	}

	if len(results) == 1 {
		// Single contributor passes through verbatim; agreement is 1.0 by
		// convention.
		only := results[0]
		return &types.ConsensusResult{
			RequestID:  requestID,
			Analysis:   only.Analysis,
			Confidence: only.Confidence,
			Metrics: types.ConsensusMetrics{
				AgreementLevel:         1.0,
				ConflictingFindings:    []string{},
				ReliabilityScore:       (only.Confidence + 1.0) / 2,
				RecommendationStrength: only.Confidence,
			},
			ProviderResults:  results,
			ProcessingTimeMS: only.LatencyMS,
			Timestamp:        time.Now(),
		}
	}

	analysis := types.StructuredAnalysis{
		Findings:         unionFindings(results),
		RiskTier:         weightedRiskTier(results),
		Recommendations:  s.rankRecommendations(results),
		UrgentCare:       majorityFlag(results, func(a *types.StructuredAnalysis) bool { return a.UrgentCare }),
		FollowUpRequired: majorityFlag(results, func(a *types.StructuredAnalysis) bool { return a.FollowUpRequired }),
		HealingProgress:  meanOptional(results, func(a *types.StructuredAnalysis) *float64 { return a.HealingProgress }),
		InfectionRisk:    meanOptional(results, func(a *types.StructuredAnalysis) *float64 { return a.InfectionRisk }),
		Pain:             mergePain(results),
		SymptomSeverity:  mergeSymptomSeverity(results),
		EmotionalState:   pluralityString(results, func(a *types.StructuredAnalysis) string { return a.EmotionalState }),
		WoundHealing:     pluralityString(results, func(a *types.StructuredAnalysis) string { return a.WoundHealing }),
	}

	agreement := agreementLevel(results)
	meanConf := meanConfidence(results)

	return &types.ConsensusResult{
		RequestID:  requestID,
		Analysis:   analysis,
		Confidence: meanConf,
		Metrics: types.ConsensusMetrics{
			AgreementLevel:         agreement,
			ConflictingFindings:    conflictingFindings(results),
			ReliabilityScore:       (meanConf + agreement) / 2,
			RecommendationStrength: s.recommendationStrength(results),
		},
		ProviderResults:  results,
		ProcessingTimeMS: maxLatency(results),
		Timestamp:        time.Now(),
	}
}

// unionFindings builds the stable-order de-duplicated union of all findings
func unionFindings(results []types.ProviderResult) []string {
	seen := make(map[string]bool)
	var findings []string
	for _, r := range results {
		for _, f := range r.Analysis.Findings {
			key := strings.ToLower(strings.TrimSpace(f))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			findings = append(findings, f)
		}
	}
	return findings
}

// weightedRiskTier averages confidence-weighted ordinal scores and maps the
// result back to the nearest tier
func weightedRiskTier(results []types.ProviderResult) types.RiskTier {
	var weightedSum, totalWeight float64
	for _, r := range results {
		weight := r.Confidence
		if weight <= 0 {
			weight = 0.01
		}
		weightedSum += float64(r.Analysis.RiskTier.Ordinal()) * weight
		totalWeight += weight
	}
	return types.TierFromOrdinal(weightedSum / totalWeight)
}

// rankRecommendations accumulates each unique recommendation's
// confidence-weighted votes, sorts descending, and truncates to the cap.
// Ties keep first-seen order so the output is deterministic.
func (s *Synthesizer) rankRecommendations(results []types.ProviderResult) []string {
	votes := make(map[string]float64)
	order := make(map[string]int)
	var keys []string

	for _, r := range results {
		for _, rec := range r.Analysis.Recommendations {
			key := strings.ToLower(strings.TrimSpace(rec))
			if key == "" {
				continue
			}
			if _, ok := votes[key]; !ok {
				order[key] = len(keys)
				keys = append(keys, rec)
			}
			votes[key] += r.Confidence
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		ki := strings.ToLower(strings.TrimSpace(keys[i]))
		kj := strings.ToLower(strings.TrimSpace(keys[j]))
		if votes[ki] != votes[kj] {
			return votes[ki] > votes[kj]
		}
		return order[ki] < order[kj]
	})

	if len(keys) > s.maxRecommendations {
		keys = keys[:s.maxRecommendations]
	}
	return keys
}

// majorityFlag is true iff more than half of the contributors set the flag
func majorityFlag(results []types.ProviderResult, get func(*types.StructuredAnalysis) bool) bool {
	count := 0
	for _, r := range results {
		if get(&r.Analysis) {
			count++
		}
	}
	return count*2 > len(results)
}

// meanOptional averages an optional numeric field over the results that
// report it, or returns nil when none do
func meanOptional(results []types.ProviderResult, get func(*types.StructuredAnalysis) *float64) *float64 {
	var sum float64
	var n int
	for _, r := range results {
		if v := get(&r.Analysis); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// pluralityString picks the most frequent non-empty value; ties resolve to
// the first-seen value
func pluralityString(results []types.ProviderResult, get func(*types.StructuredAnalysis) string) string {
	counts := make(map[string]int)
	order := make(map[string]int)
	var values []string

	for _, r := range results {
		v := get(&r.Analysis)
		if v == "" {
			continue
		}
		if _, ok := counts[v]; !ok {
			order[v] = len(values)
			values = append(values, v)
		}
		counts[v]++
	}

	best := ""
	for _, v := range values {
		if best == "" || counts[v] > counts[best] ||
			(counts[v] == counts[best] && order[v] < order[best]) {
			best = v
		}
	}
	return best
}

// mergePain averages pain levels over reporting results, takes the plurality
// pain type, and unions locations
func mergePain(results []types.ProviderResult) *types.PainAssessment {
	var levelSum int
	var n int
	typeCounts := make(map[string]int)
	typeOrder := make(map[string]int)
	var typeSeen []string
	locSeen := make(map[string]bool)
	var locations []string

	for _, r := range results {
		pain := r.Analysis.Pain
		if pain == nil {
			continue
		}
		levelSum += pain.Level
		n++
		if pain.Type != "" {
			if _, ok := typeCounts[pain.Type]; !ok {
				typeOrder[pain.Type] = len(typeSeen)
				typeSeen = append(typeSeen, pain.Type)
			}
			typeCounts[pain.Type]++
		}
		for _, loc := range pain.Locations {
			if !locSeen[loc] {
				locSeen[loc] = true
				locations = append(locations, loc)
			}
		}
	}

	if n == 0 {
		return nil
	}

	bestType := ""
	for _, t := range typeSeen {
		if bestType == "" || typeCounts[t] > typeCounts[bestType] ||
			(typeCounts[t] == typeCounts[bestType] && typeOrder[t] < typeOrder[bestType]) {
			bestType = t
		}
	}

	return &types.PainAssessment{
		Level:     (levelSum + n/2) / n, // rounded mean
		Type:      bestType,
		Locations: locations,
	}
}

// mergeSymptomSeverity averages overall severity and per-symptom scores over
// reporting results
func mergeSymptomSeverity(results []types.ProviderResult) *types.SymptomSeverity {
	var overallSum float64
	var n int
	perSums := make(map[string]float64)
	perCounts := make(map[string]int)

	for _, r := range results {
		sev := r.Analysis.SymptomSeverity
		if sev == nil {
			continue
		}
		overallSum += sev.Overall
		n++
		for symptom, score := range sev.PerSymptom {
			perSums[symptom] += score
			perCounts[symptom]++
		}
	}

	if n == 0 {
		return nil
	}

	merged := &types.SymptomSeverity{Overall: overallSum / float64(n)}
	if len(perSums) > 0 {
		merged.PerSymptom = make(map[string]float64, len(perSums))
		for symptom, sum := range perSums {
			merged.PerSymptom[symptom] = sum / float64(perCounts[symptom])
		}
	}
	return merged
}

// agreementLevel averages the plurality-match fractions of the two compared
// signal families: risk tier and urgent-care flag
func agreementLevel(results []types.ProviderResult) float64 {
	n := float64(len(results))

	// Fraction matching the plurality risk tier
	tierCounts := make(map[types.RiskTier]int)
	for _, r := range results {
		tierCounts[r.Analysis.RiskTier]++
	}
	maxTier := 0
	for _, c := range tierCounts {
		if c > maxTier {
			maxTier = c
		}
	}
	tierAgreement := float64(maxTier) / n

	// Fraction matching the majority urgent-care flag
	urgent := 0
	for _, r := range results {
		if r.Analysis.UrgentCare {
			urgent++
		}
	}
	majorityCount := urgent
	if len(results)-urgent >= urgent {
		majorityCount = len(results) - urgent
	}
	urgentAgreement := float64(majorityCount) / n

	return (tierAgreement + urgentAgreement) / 2
}

// conflictingFindings builds the explicit diagnostic list of disagreements
func conflictingFindings(results []types.ProviderResult) []string {
	conflicts := []string{}

	tierSet := make(map[types.RiskTier]bool)
	for _, r := range results {
		tierSet[r.Analysis.RiskTier] = true
	}
	if len(tierSet) >= 3 {
		tiers := make([]string, 0, len(tierSet))
		for _, t := range []types.RiskTier{types.RiskLow, types.RiskMedium, types.RiskHigh, types.RiskCritical} {
			if tierSet[t] {
				tiers = append(tiers, string(t))
			}
		}
		conflicts = append(conflicts, fmt.Sprintf("risk assessment spans %s", strings.Join(tiers, ", ")))
	}

	if flagDisagrees(results, func(a *types.StructuredAnalysis) bool { return a.UrgentCare }) {
		conflicts = append(conflicts, "conflicting urgent-care recommendation")
	}
	if flagDisagrees(results, func(a *types.StructuredAnalysis) bool { return a.FollowUpRequired }) {
		conflicts = append(conflicts, "conflicting follow-up recommendation")
	}

	return conflicts
}

// flagDisagrees reports whether both true and false are present
func flagDisagrees(results []types.ProviderResult, get func(*types.StructuredAnalysis) bool) bool {
	sawTrue, sawFalse := false, false
	for _, r := range results {
		if get(&r.Analysis) {
			sawTrue = true
		} else {
			sawFalse = true
		}
	}
	return sawTrue && sawFalse
}

// recommendationStrength is the top recommendation's vote weight normalized
// by the total confidence in the batch
func (s *Synthesizer) recommendationStrength(results []types.ProviderResult) float64 {
	votes := make(map[string]float64)
	var totalConfidence float64

	for _, r := range results {
		totalConfidence += r.Confidence
		for _, rec := range r.Analysis.Recommendations {
			key := strings.ToLower(strings.TrimSpace(rec))
			if key != "" {
				votes[key] += r.Confidence
			}
		}
	}

	if totalConfidence == 0 {
		return 0
	}

	var best float64
	for _, v := range votes {
		if v > best {
			best = v
		}
	}
	return best / totalConfidence
}

func meanConfidence(results []types.ProviderResult) float64 {
	var sum float64
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}

// maxLatency reflects the real wall-clock wait for a parallel batch
func maxLatency(results []types.ProviderResult) int64 {
	var max int64
	for _, r := range results {
		if r.LatencyMS > max {
			max = r.LatencyMS
		}
	}
	return max
}

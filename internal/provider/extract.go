package provider

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

// Vocabularies for heuristic free-text mining. Matching is case-insensitive
// substring search over the raw provider output.
var (
	findingTerms = []string{
		"infection",
		"inflammation",
		"swelling",
		"redness",
		"discharge",
		"bleeding",
		"fever",
		"bruising",
		"necrosis",
		"dehiscence",
		"granulation",
		"scarring",
		"numbness",
		"stiffness",
		"limited range of motion",
	}

	criticalTerms = []string{"critical", "emergency", "severe"}
	highTerms     = []string{"high risk", "concerning", "urgent"}
	mediumTerms   = []string{"moderate", "medium", "caution"}

	recommendationPhrases = []string{
		"consult a doctor",
		"seek medical attention",
		"continue prescribed medication",
		"keep the wound clean",
		"monitor for changes",
		"rest and elevate",
		"apply ice",
		"change the dressing",
		"stay hydrated",
		"follow up with your provider",
	}

	urgentCareTerms = []string{
		"urgent care",
		"emergency room",
		"immediate medical attention",
		"call 911",
	}

	followUpTerms = []string{
		"follow up",
		"follow-up",
		"schedule an appointment",
		"see your doctor",
	}

	healingPercentPattern = regexp.MustCompile(`(\d{1,3})\s*%\s*(healed|healing)`)
)

// ExtractFromText heuristically mines a structured analysis out of free-form
// provider output. It always returns a valid structure: with zero matched
// terms the result is low risk with one generic recommendation.
func ExtractFromText(text string) types.StructuredAnalysis {
	lower := strings.ToLower(text)

	analysis := types.StructuredAnalysis{
		RiskTier: riskTierFromKeywords(lower),
	}

	for _, term := range findingTerms {
		if strings.Contains(lower, term) {
			analysis.Findings = append(analysis.Findings, term)
		}
	}

	for _, phrase := range recommendationPhrases {
		if strings.Contains(lower, phrase) {
			analysis.Recommendations = append(analysis.Recommendations, phrase)
		}
	}
	if len(analysis.Recommendations) == 0 {
		analysis.Recommendations = []string{"continue monitoring and follow your recovery plan"}
	}

	analysis.UrgentCare = containsAny(lower, urgentCareTerms)
	analysis.FollowUpRequired = analysis.UrgentCare || containsAny(lower, followUpTerms)

	if progress, ok := extractHealingPercent(lower); ok {
		analysis.Findings = append(analysis.Findings, "healing progress reported")
		analysis.HealingProgress = &progress
	}

	return analysis
}

// riskTierFromKeywords maps severity keywords to a tier, scanning from the
// most severe vocabulary down
func riskTierFromKeywords(lower string) types.RiskTier {
	switch {
	case containsAny(lower, criticalTerms):
		return types.RiskCritical
	case containsAny(lower, highTerms):
		return types.RiskHigh
	case containsAny(lower, mediumTerms):
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// extractHealingPercent pulls an "NN% healed/healing" figure out of the text
func extractHealingPercent(lower string) (float64, bool) {
	match := healingPercentPattern.FindStringSubmatch(lower)
	if match == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil || value > 100 {
		return 0, false
	}

	return value, true
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recoverlens/recovery-engine/pkg/types"
)

func TestExtractFromText_KeywordMining(t *testing.T) {
	text := "The wound shows mild redness and some swelling. This is concerning. " +
		"Keep the wound clean and follow up with your provider."

	analysis := ExtractFromText(text)

	assert.Equal(t, types.RiskHigh, analysis.RiskTier)
	assert.Contains(t, analysis.Findings, "redness")
	assert.Contains(t, analysis.Findings, "swelling")
	assert.Contains(t, analysis.Recommendations, "keep the wound clean")
	assert.Contains(t, analysis.Recommendations, "follow up with your provider")
	assert.True(t, analysis.FollowUpRequired)
	assert.False(t, analysis.UrgentCare)
}

func TestExtractFromText_CriticalOutranksLowerTiers(t *testing.T) {
	analysis := ExtractFromText("Moderate swelling but severe infection risk, seek medical attention.")

	assert.Equal(t, types.RiskCritical, analysis.RiskTier)
}

func TestExtractFromText_UrgentCareImpliesFollowUp(t *testing.T) {
	analysis := ExtractFromText("Signs of fever and discharge. If it worsens, call 911.")

	assert.True(t, analysis.UrgentCare)
	assert.True(t, analysis.FollowUpRequired)
	assert.Equal(t, types.RiskLow, analysis.RiskTier)
}

func TestExtractFromText_EmptyInputYieldsSafeDefaults(t *testing.T) {
	analysis := ExtractFromText("")

	assert.Equal(t, types.RiskLow, analysis.RiskTier)
	assert.Empty(t, analysis.Findings)
	assert.Equal(t, []string{"continue monitoring and follow your recovery plan"}, analysis.Recommendations)
	assert.False(t, analysis.FollowUpRequired)
	assert.False(t, analysis.UrgentCare)
	assert.Nil(t, analysis.HealingProgress)
}

func TestExtractFromText_HealingPercent(t *testing.T) {
	analysis := ExtractFromText("The incision is approximately 70% healed with healthy granulation.")

	assert.NotNil(t, analysis.HealingProgress)
	assert.InDelta(t, 70.0, *analysis.HealingProgress, 0.001)
	assert.Contains(t, analysis.Findings, "healing progress reported")
}

func TestExtractFromText_HealingPercentOverHundredIgnored(t *testing.T) {
	analysis := ExtractFromText("reported 250% healed which cannot be right")

	assert.Nil(t, analysis.HealingProgress)
}

func TestExtractFromText_CaseInsensitive(t *testing.T) {
	analysis := ExtractFromText("SEVERE INFLAMMATION, SEEK MEDICAL ATTENTION")

	assert.Equal(t, types.RiskCritical, analysis.RiskTier)
	assert.Contains(t, analysis.Findings, "inflammation")
	assert.Contains(t, analysis.Recommendations, "seek medical attention")
}

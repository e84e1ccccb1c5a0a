package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskTier_Ordinal(t *testing.T) {
	assert.Equal(t, 1, RiskLow.Ordinal())
	assert.Equal(t, 2, RiskMedium.Ordinal())
	assert.Equal(t, 3, RiskHigh.Ordinal())
	assert.Equal(t, 4, RiskCritical.Ordinal())
	assert.Equal(t, 1, RiskTier("").Ordinal())
}

func TestTierFromOrdinal_Thresholds(t *testing.T) {
	assert.Equal(t, RiskLow, TierFromOrdinal(1.0))
	assert.Equal(t, RiskLow, TierFromOrdinal(1.49))
	assert.Equal(t, RiskMedium, TierFromOrdinal(1.5))
	assert.Equal(t, RiskMedium, TierFromOrdinal(2.49))
	assert.Equal(t, RiskHigh, TierFromOrdinal(2.5))
	assert.Equal(t, RiskHigh, TierFromOrdinal(3.49))
	assert.Equal(t, RiskCritical, TierFromOrdinal(3.5))
	assert.Equal(t, RiskCritical, TierFromOrdinal(4.0))
}

func TestTierRoundTrip(t *testing.T) {
	for _, tier := range []RiskTier{RiskLow, RiskMedium, RiskHigh, RiskCritical} {
		assert.Equal(t, tier, TierFromOrdinal(float64(tier.Ordinal())))
	}
}

func TestValidModality(t *testing.T) {
	assert.True(t, ValidModality(ModalityText))
	assert.True(t, ValidModality(ModalityVision))
	assert.True(t, ValidModality(ModalityMultimodal))
	assert.False(t, ValidModality("audio"))
	assert.False(t, ValidModality(""))
}

func TestProvider_Supports(t *testing.T) {
	p := Provider{
		Name:         "alpha",
		Capabilities: []Modality{ModalityText, ModalityMultimodal},
	}

	assert.True(t, p.Supports(ModalityText))
	assert.True(t, p.Supports(ModalityMultimodal))
	assert.False(t, p.Supports(ModalityVision))
}

func TestEngineError_Unwrap(t *testing.T) {
	cause := errors.New("dial refused")
	err := NewProviderError(ErrorTypeExternal, ErrCodeProviderUnreachable, "transport failure", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transport failure")
}

func TestIsNoProviderAvailable(t *testing.T) {
	assert.True(t, IsNoProviderAvailable(NewNoProviderAvailableError(nil)))
	assert.False(t, IsNoProviderAvailable(NewValidationError(ErrCodeInvalidInput, "bad", nil)))
	assert.False(t, IsNoProviderAvailable(errors.New("plain")))
	assert.False(t, IsNoProviderAvailable(nil))
}

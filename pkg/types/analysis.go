package types

import "time"

// Modality represents the kind of content a provider can analyze
type Modality string

const (
	ModalityText       Modality = "text"
	ModalityVision     Modality = "vision"
	ModalityMultimodal Modality = "multimodal"
)

// ValidModality reports whether m is a recognized modality
func ValidModality(m Modality) bool {
	switch m {
	case ModalityText, ModalityVision, ModalityMultimodal:
		return true
	}
	return false
}

// Provider describes one external analysis backend. Providers are built from
// configuration at startup and never mutated afterwards.
type Provider struct {
	Name         string     `json:"name"`
	Capabilities []Modality `json:"capabilities"`
	// Reliability is the static prior trust in this provider, in (0,1].
	// It is not adjusted at runtime.
	Reliability float64 `json:"reliability"`
}

// Supports reports whether the provider can handle the given modality
func (p Provider) Supports(m Modality) bool {
	for _, c := range p.Capabilities {
		if c == m {
			return true
		}
	}
	return false
}

// RiskTier is the ordered risk classification: low < medium < high < critical
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

// Ordinal maps a tier onto the 1..4 scale used for weighted averaging
func (t RiskTier) Ordinal() int {
	switch t {
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 1
	}
}

// TierFromOrdinal maps an averaged ordinal score back to the nearest tier.
/// Thresholds: >=3.5 critical, >=2.5 high, >=1.5 medium, else low.
func TierFromOrdinal(score float64) RiskTier {
	switch {
	case score >= 3.5:
		return RiskCritical
	case score >= 2.5:
		return RiskHigh
	case score >= 1.5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AnalysisRequest carries the content of one analysis call. Created per call,
// never reused.
type AnalysisRequest struct {
	ID       string            `json:"id"`
	Modality Modality          `json:"modality"`
	Text     string            `json:"text,omitempty"`
	Images   []string          `json:"images,omitempty"` // base64 or URL
	Context  map[string]string `json:"context,omitempty"`
}

// PainAssessment captures a provider's pain evaluation
type PainAssessment struct {
	Level     int      `json:"level"` // 1-10
	Type      string   `json:"type,omitempty"`
	Locations []string `json:"locations,omitempty"`
}

// SymptomSeverity captures overall and per-symptom severity scores
type SymptomSeverity struct {
	Overall    float64            `json:"overall"`
	PerSymptom map[string]float64 `json:"per_symptom,omitempty"`
}

// StructuredAnalysis is the normalized schema every provider output is mapped
// into, and the shape of a synthesized consensus
type StructuredAnalysis struct {
	Findings         []string         `json:"findings"`
	RiskTier         RiskTier         `json:"risk_tier"`
	Recommendations  []string         `json:"recommendations"`
	FollowUpRequired bool             `json:"follow_up_required"`
	UrgentCare       bool             `json:"urgent_care"`
	HealingProgress  *float64         `json:"healing_progress,omitempty"` // 0-100
	InfectionRisk    *float64         `json:"infection_risk,omitempty"`   // 0-100
	Pain             *PainAssessment  `json:"pain,omitempty"`
	SymptomSeverity  *SymptomSeverity `json:"symptom_severity,omitempty"`
	EmotionalState   string           `json:"emotional_state,omitempty"`
	WoundHealing     string           `json:"wound_healing,omitempty"`
}

// ProviderResult is one provider's contribution to a consensus. It is owned
// by the orchestrator until handed to the synthesizer and never mutated after
// creation.
type ProviderResult struct {
	Provider     Provider           `json:"provider"`
	Confidence   float64            `json:"confidence"`
	Analysis     StructuredAnalysis `json:"analysis"`
	UsedFallback bool               `json:"used_fallback"`
	LatencyMS    int64              `json:"latency_ms"`
	Timestamp    time.Time          `json:"timestamp"`
}

// ConsensusMetrics quantifies agreement and conflict across contributors
type ConsensusMetrics struct {
	AgreementLevel         float64  `json:"agreement_level"` // 0-1
	ConflictingFindings    []string `json:"conflicting_findings"`
	ReliabilityScore       float64  `json:"reliability_score"` // 0-1
	RecommendationStrength float64  `json:"recommendation_strength"`
}

// ConsensusResult is the single merged judgment for one analysis request.
// Created once per request; immutable.
type ConsensusResult struct {
	RequestID        string             `json:"request_id"`
	Analysis         StructuredAnalysis `json:"analysis"`
	Confidence       float64            `json:"confidence"`
	Metrics          ConsensusMetrics   `json:"consensus_metrics"`
	ProviderResults  []ProviderResult   `json:"provider_results"`
	ProcessingTimeMS int64              `json:"processing_time_ms"`
	Timestamp        time.Time          `json:"timestamp"`
}

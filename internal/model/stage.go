package model

import "fmt"

// RiskLevel is a closed risk band derived from a continuous score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Rank orders risk levels; unknown levels rank as HIGH.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

// MaxRiskLevel returns the more severe of two levels.
func MaxRiskLevel(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Decision is the farming go/no-go recommendation.
type Decision string

const (
	DecisionProceed      Decision = "PROCEED"
	DecisionReduceInputs Decision = "REDUCE_INPUTS"
	DecisionAvoidFarming Decision = "AVOID_FARMING"
)

// ReasonKind tags an entry of the reasoning trail.
type ReasonKind string

const (
	ReasonSafety   ReasonKind = "SAFETY"
	ReasonRisk     ReasonKind = "RISK"
	ReasonPositive ReasonKind = "POSITIVE"
	ReasonDefault  ReasonKind = "DEFAULT"
	ReasonAvoid    ReasonKind = "AVOID"
	ReasonReduce   ReasonKind = "REDUCE"
	ReasonFallback ReasonKind = "FALLBACK"
)

// Reason is one entry of the ordered reasoning trail.
type Reason struct {
	Kind    ReasonKind `json:"kind"`
	Message string     `json:"message"`
}

// String renders the reason as "KIND: message".
func (r Reason) String() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// IsRiskFactor reports whether the reason describes a hazard rather than a
// positive or neutral observation.
func (r Reason) IsRiskFactor() bool {
	switch r.Kind {
	case ReasonSafety, ReasonRisk, ReasonAvoid:
		return true
	}
	return false
}

// YieldResult is the output of the yield scorer.
type YieldResult struct {
	ExpectedYieldPercentage float64  `json:"expected_yield_percentage"`
	ConfidenceScore         float64  `json:"confidence_score"`
	WarningFlags            []string `json:"warning_flags,omitempty"`
	Explanation             string   `json:"explanation"`
}

// DiseaseResult is the output of the disease risk scorer.
type DiseaseResult struct {
	RiskLevel         RiskLevel `json:"disease_risk_level"`
	RiskScore         float64   `json:"disease_risk_score"`
	VisualInspection  bool      `json:"visual_inspection"`
	RiskFactors       []string  `json:"risk_factors,omitempty"`
	ProtectiveFactors []string  `json:"protective_factors,omitempty"`
	Explanation       string    `json:"explanation"`
	Recommendations   []string  `json:"recommendations"`
}

// IrrigationSchedule is the timing guidance attached to an irrigation result.
type IrrigationSchedule struct {
	AmountPerSessionMM     float64  `json:"irrigation_amount_per_session"`
	FrequencyDays          int      `json:"frequency_days"`
	OptimalTiming          []string `json:"optimal_timing"`
	ApplicationRateMMPerHr float64  `json:"application_rate_mm_per_hour"`
	EstimatedDurationHours float64  `json:"estimated_duration_hours"`
	NextIrrigationDays     int      `json:"next_irrigation_days"`
	SpecialNotes           []string `json:"special_notes,omitempty"`
}

// IrrigationResult is the output of the irrigation optimizer.
type IrrigationResult struct {
	RecommendedIrrigationMM float64            `json:"recommended_irrigation_mm"`
	IrrigationFrequencyDays int                `json:"irrigation_frequency_days"`
	WaterStressLevel        RiskLevel          `json:"water_stress_level"`
	Schedule                IrrigationSchedule `json:"irrigation_schedule"`
	WaterSavingTips         []string           `json:"water_saving_tips"`
	Warnings                []string           `json:"warnings,omitempty"`
	Explanation             string             `json:"explanation"`
}

// DecisionResult is the output of the farming decision rules.
type DecisionResult struct {
	Decision        Decision  `json:"decision"`
	RiskLevel       RiskLevel `json:"risk_level"`
	EconomicRisk    float64   `json:"economic_risk"`
	Reasoning       []Reason  `json:"reasoning"`
	Recommendations []string  `json:"recommendations"`
	Explanation     string    `json:"explanation"`
}

// RiskComponent is one weighted entry of the risk breakdown.
type RiskComponent struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Explanation string  `json:"explanation"`
}

// Contribution returns score times weight.
func (c RiskComponent) Contribution() float64 {
	return c.Score * c.Weight
}

// RiskAssessment is the output of the risk aggregator.
type RiskAssessment struct {
	OverallRiskScore      float64                  `json:"overall_risk_score"`
	OverallRiskLevel      RiskLevel                `json:"overall_risk_level"`
	Breakdown             map[string]RiskComponent `json:"risk_breakdown"`
	Components            []RiskComponent          `json:"-"`
	MitigationSuggestions []string                 `json:"risk_mitigation_suggestions"`
	AssessmentConfidence  float64                  `json:"confidence_in_assessment"`
	CalculationSteps      []string                 `json:"calculation_steps,omitempty"`
	Explanation           string                   `json:"explanation"`
}

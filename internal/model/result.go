package model

import "time"

// StepStatus represents the outcome of one engine step.
type StepStatus string

const (
	StepStatusComplete StepStatus = "complete"
	StepStatusFailed   StepStatus = "failed"
)

// StepLog records one step of a decision run.
type StepLog struct {
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	Duration  int64      `json:"duration_ms"`
	Error     string     `json:"error,omitempty"`
}

// ProcessingInfo is the metadata trail of a decision run.
type ProcessingInfo struct {
	RequestID     string    `json:"request_id"`
	Timestamp     time.Time `json:"timestamp"`
	EngineVersion string    `json:"engine_version"`
	Steps         []StepLog `json:"processing_steps"`
	Warnings      []string  `json:"warnings"`
	Errors        []string  `json:"errors"`
	Duration      int64     `json:"duration_ms"`
}

// YieldSummary is the farmer-facing view of the yield result.
type YieldSummary struct {
	ExpectedYieldPercentage float64 `json:"expected_yield_percentage"`
	ConfidenceScore         float64 `json:"confidence_score"`
	ConfidenceLevel         string  `json:"confidence_level"`
}

// DiseaseSummary is the farmer-facing view of the disease result.
type DiseaseSummary struct {
	RiskLevel     RiskLevel `json:"risk_level"`
	RiskScore     float64   `json:"risk_score"`
	ImageAnalysis string    `json:"image_analysis"`
}

// IrrigationSummary is the farmer-facing view of the irrigation result.
type IrrigationSummary struct {
	RecommendedIrrigationMM float64   `json:"recommended_irrigation_mm"`
	FrequencyDays           int       `json:"irrigation_frequency_days"`
	WaterStressLevel        RiskLevel `json:"water_stress_level"`
	WaterSavingTips         []string  `json:"water_saving_tips"`
}

// RiskSummary is the farmer-facing view of the aggregated risk.
type RiskSummary struct {
	OverallRiskScore     float64   `json:"overall_risk_score"`
	OverallRiskLevel     RiskLevel `json:"overall_risk_level"`
	AssessmentConfidence float64   `json:"confidence_in_assessment"`
}

// ConfidenceMetrics summarizes how much the run can be trusted.
type ConfidenceMetrics struct {
	YieldConfidence         float64 `json:"yield_confidence"`
	AssessmentConfidence    float64 `json:"assessment_confidence"`
	OverallSystemConfidence float64 `json:"overall_system_confidence"`
}

// TechnicalDetails carries the raw stage outputs for dashboards and evaluators.
type TechnicalDetails struct {
	SystemStatus       string            `json:"system_status"`
	YieldAnalysis      *YieldResult      `json:"yield_analysis,omitempty"`
	DiseaseAnalysis    *DiseaseResult    `json:"disease_analysis,omitempty"`
	IrrigationAnalysis *IrrigationResult `json:"irrigation_analysis,omitempty"`
	DecisionAnalysis   *DecisionResult   `json:"decision_analysis,omitempty"`
	RiskAnalysis       *RiskAssessment   `json:"risk_analysis,omitempty"`
	InputParameters    any               `json:"input_parameters"`
	FarmerMetadata     *FarmerMetadata   `json:"farmer_metadata,omitempty"`
	RiskFactors        []string          `json:"risk_factors"`
	ConfidenceMetrics  ConfidenceMetrics `json:"confidence_metrics"`
	ErrorDetails       []string          `json:"error_details,omitempty"`
}

// System status values reported in TechnicalDetails.
const (
	SystemStatusOK            = "OK"
	SystemStatusDegraded      = "DEGRADED"
	SystemStatusCriticalError = "CRITICAL_ERROR"
)

// ConsolidatedResult is the single response of a decision run.
type ConsolidatedResult struct {
	FinalDecision     Decision          `json:"final_decision"`
	OverallRiskLevel  RiskLevel         `json:"overall_risk_level"`
	YieldSummary      YieldSummary      `json:"yield_summary"`
	DiseaseSummary    DiseaseSummary    `json:"disease_summary"`
	IrrigationSummary IrrigationSummary `json:"irrigation_summary"`
	RiskSummary       RiskSummary       `json:"risk_summary"`
	Explanation       string            `json:"explanation"`
	Recommendations   []string          `json:"recommendations"`
	TechnicalDetails  TechnicalDetails  `json:"technical_details"`
	ProcessingInfo    ProcessingInfo    `json:"processing_info"`
}

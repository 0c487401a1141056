package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/farm-advisor/internal/model"
)

var decisionTemplates = map[model.Decision]string{
	model.DecisionProceed:      "You can proceed with %s farming using standard practices.",
	model.DecisionReduceInputs: "We recommend reducing your %s farming investment by 30-50%% due to current conditions.",
	model.DecisionAvoidFarming: "We strongly advise postponing %s farming until conditions improve.",
}

const emergencyExplanation = "SYSTEM ERROR: The decision support system encountered critical errors and cannot " +
	"provide reliable recommendations. For your safety, we strongly advise avoiding " +
	"farming activities until the system is restored. Please consult your local " +
	"agricultural extension officer for manual assessment."

var emergencyRecommendations = []string{
	"Do not proceed with farming until system is restored",
	"Consult local agricultural extension officer immediately",
	"Monitor weather and field conditions manually",
	"Wait for system recovery before making farming decisions",
}

// ConfidenceLabel maps a yield confidence onto High, Medium, Low or Very Low.
func ConfidenceLabel(conf float64) string {
	switch {
	case conf >= 0.8:
		return "High"
	case conf >= 0.6:
		return "Medium"
	case conf >= 0.4:
		return "Low"
	default:
		return "Very Low"
	}
}

// SystemConfidence discounts the yield confidence by the number of failed
// stages. The result lies in [0.1, 1].
func SystemConfidence(errorCount int, yieldConf float64) float64 {
	c := (0.8-0.2*float64(errorCount))*0.7 + yieldConf*0.3
	return math.Max(0.1, math.Min(1, c))
}

func (e *Engine) consolidate(in model.NormalizedInput, s stageResults, errorCount int) (*model.ConsolidatedResult, error) {
	y, d, ir, dec, ra := s.yield, s.disease, s.irrigation, s.decision, s.risk
	if y == nil || d == nil || ir == nil || dec == nil || ra == nil {
		return nil, eris.New("engine: missing stage result")
	}
	if _, ok := decisionTemplates[dec.Decision]; !ok {
		return nil, eris.Errorf("engine: unrecognized decision %q", dec.Decision)
	}

	level := model.MaxRiskLevel(dec.RiskLevel, ra.OverallRiskLevel)
	imageAnalysis := "Not available"
	if in.LeafImageProvided {
		imageAnalysis = "Completed"
	}

	yieldSummary := model.YieldSummary{
		ExpectedYieldPercentage: y.ExpectedYieldPercentage,
		ConfidenceScore:         y.ConfidenceScore,
		ConfidenceLevel:         ConfidenceLabel(y.ConfidenceScore),
	}
	diseaseSummary := model.DiseaseSummary{
		RiskLevel:     d.RiskLevel,
		RiskScore:     d.RiskScore,
		ImageAnalysis: imageAnalysis,
	}
	metadata := in.Metadata()

	return &model.ConsolidatedResult{
		FinalDecision:    dec.Decision,
		OverallRiskLevel: level,
		YieldSummary:     yieldSummary,
		DiseaseSummary:   diseaseSummary,
		IrrigationSummary: model.IrrigationSummary{
			RecommendedIrrigationMM: ir.RecommendedIrrigationMM,
			FrequencyDays:           ir.IrrigationFrequencyDays,
			WaterStressLevel:        ir.WaterStressLevel,
			WaterSavingTips:         append([]string{}, ir.WaterSavingTips...),
		},
		RiskSummary: model.RiskSummary{
			OverallRiskScore:     ra.OverallRiskScore,
			OverallRiskLevel:     ra.OverallRiskLevel,
			AssessmentConfidence: ra.AssessmentConfidence,
		},
		Explanation:     farmerExplanation(dec.Decision, level, yieldSummary, d.RiskLevel, in),
		Recommendations: mergeRecommendations(dec.Recommendations, d.Recommendations, ra.MitigationSuggestions),
		TechnicalDetails: model.TechnicalDetails{
			SystemStatus:       systemStatus(errorCount),
			YieldAnalysis:      y,
			DiseaseAnalysis:    d,
			IrrigationAnalysis: ir,
			DecisionAnalysis:   dec,
			RiskAnalysis:       ra,
			InputParameters:    in,
			FarmerMetadata:     &metadata,
			RiskFactors:        riskFactors(*y, *d, *dec),
			ConfidenceMetrics: model.ConfidenceMetrics{
				YieldConfidence:         y.ConfidenceScore,
				AssessmentConfidence:    ra.AssessmentConfidence,
				OverallSystemConfidence: SystemConfidence(errorCount, y.ConfidenceScore),
			},
		},
	}, nil
}

func systemStatus(errorCount int) string {
	if errorCount > 0 {
		return model.SystemStatusDegraded
	}
	return model.SystemStatusOK
}

// mergeRecommendations concatenates the lists, keeping the first occurrence
// of each entry.
func mergeRecommendations(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, rec := range list {
			if _, ok := seen[rec]; ok {
				continue
			}
			seen[rec] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}

func riskFactors(y model.YieldResult, d model.DiseaseResult, dec model.DecisionResult) []string {
	factors := []string{}
	if y.ExpectedYieldPercentage < 40 {
		factors = append(factors, fmt.Sprintf("Low expected yield (%.1f%%)", y.ExpectedYieldPercentage))
	}
	if y.ConfidenceScore < 0.5 {
		factors = append(factors, fmt.Sprintf("Low yield prediction confidence (%.2f)", y.ConfidenceScore))
	}
	if d.RiskLevel == model.RiskHigh || d.RiskLevel == model.RiskMedium {
		factors = append(factors, strings.ToLower(string(d.RiskLevel))+" disease risk")
	}
	for _, r := range dec.Reasoning {
		if r.IsRiskFactor() {
			factors = append(factors, r.String())
		}
	}
	return factors
}

func farmerExplanation(decision model.Decision, level model.RiskLevel, ys model.YieldSummary, disease model.RiskLevel, in model.NormalizedInput) string {
	parts := []string{
		fmt.Sprintf(decisionTemplates[decision], model.Title(in.CropType)),
		fmt.Sprintf("Overall risk level is %s.", strings.ToLower(string(level))),
		fmt.Sprintf("Expected yield is %.0f%% of maximum potential with %s confidence.",
			ys.ExpectedYieldPercentage, strings.ToLower(ys.ConfidenceLevel)),
		fmt.Sprintf("Disease risk is currently %s.", strings.ToLower(string(disease))),
		fmt.Sprintf("Current conditions: %.1f°C temperature, %.1fmm recent rainfall, %.1fmm water available for irrigation.",
			in.TemperatureC, in.RainfallMM, in.AvailableWaterMM),
		"This recommendation prioritizes your safety and economic protection. " +
			"Monitor conditions regularly and be prepared to adjust your approach if they change.",
	}
	return strings.Join(parts, " ")
}

// emergencyResult is returned when consolidation cannot complete. in may be
// nil when the failure happened before normalization finished.
func emergencyResult(in *model.NormalizedInput, info model.ProcessingInfo) *model.ConsolidatedResult {
	var params any
	if in != nil {
		params = *in
	}
	return &model.ConsolidatedResult{
		FinalDecision:    model.DecisionAvoidFarming,
		OverallRiskLevel: model.RiskHigh,
		YieldSummary: model.YieldSummary{
			ConfidenceLevel: "Very Low",
		},
		DiseaseSummary: model.DiseaseSummary{
			RiskLevel:     model.RiskHigh,
			RiskScore:     1,
			ImageAnalysis: "System Error",
		},
		IrrigationSummary: model.IrrigationSummary{
			WaterStressLevel: model.RiskHigh,
			WaterSavingTips:  []string{},
		},
		RiskSummary: model.RiskSummary{
			OverallRiskScore:     1,
			OverallRiskLevel:     model.RiskHigh,
			AssessmentConfidence: 0.1,
		},
		Explanation:     emergencyExplanation,
		Recommendations: append([]string{}, emergencyRecommendations...),
		TechnicalDetails: model.TechnicalDetails{
			SystemStatus:    model.SystemStatusCriticalError,
			InputParameters: params,
			RiskFactors:     []string{"System unable to assess conditions"},
			ConfidenceMetrics: model.ConfidenceMetrics{
				OverallSystemConfidence: 0.1,
			},
			ErrorDetails: append([]string{}, info.Errors...),
		},
		ProcessingInfo: info,
	}
}

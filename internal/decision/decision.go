// Package decision implements the priority-ordered farming decision rules.
package decision

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

// Rules evaluates yield and disease results against water context.
type Rules struct {
	cfg config.EngineConfig
}

// New returns Rules reading thresholds from cfg.
func New(cfg config.EngineConfig) *Rules {
	return &Rules{cfg: cfg}
}

// evaluation accumulates the findings of each rule tier in firing order.
type evaluation struct {
	reasons  []model.Reason
	safety   []string
	risks    []string
	positive []string
	recs     []string
}

func (e *evaluation) mark(kind model.ReasonKind, msg string) {
	e.reasons = append(e.reasons, model.Reason{Kind: kind, Message: msg})
}

// EconomicRisk is 1 - yield·confidence plus the weighted disease score,
// capped at 1.
func (r *Rules) EconomicRisk(yieldPct, conf, diseaseScore float64) float64 {
	base := 1 - (yieldPct/100)*conf
	return math.Min(base+diseaseScore*r.cfg.Decision.EconomicDiseaseWeight, 1)
}

// Decide selects PROCEED, REDUCE_INPUTS or AVOID_FARMING. Safety triggers
// short-circuit to AVOID_FARMING and ambiguity resolves to REDUCE_INPUTS.
func (r *Rules) Decide(in model.NormalizedInput, y model.YieldResult, d model.DiseaseResult) (*model.DecisionResult, error) {
	dc := r.cfg.Decision
	tiers := r.cfg.Confidence
	pct, conf := y.ExpectedYieldPercentage, y.ConfidenceScore
	water, rain := in.AvailableWaterMM, in.RainfallMM

	for _, v := range []float64{pct, conf, d.RiskScore, water, rain} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, eris.New("decision: non-finite rule input")
		}
	}

	var e evaluation

	// Safety tier.
	if d.RiskLevel == model.RiskHigh && d.RiskScore >= dc.CriticalDiseaseScore {
		e.safety = append(e.safety, "Critical disease risk detected - immediate crop protection needed")
		e.mark(model.ReasonAvoid, "Disease risk exceeds safe farming threshold")
		e.recs = append(e.recs,
			"Do not plant new crops until disease risk reduces",
			"Focus on treating existing crops if any",
			"Consult agricultural extension officer immediately",
		)
	}
	if water < dc.WaterFloorMM && rain < dc.NegligibleRainMM {
		e.safety = append(e.safety, fmt.Sprintf("Severe water shortage - only %.1fmm available", water))
		e.mark(model.ReasonAvoid, "Insufficient water for safe crop cultivation")
		e.recs = append(e.recs,
			"Postpone planting until water situation improves",
			"Focus on water conservation and collection",
			"Consider drought-resistant crops for future planting",
		)
	}
	if pct < dc.SafetyYieldPercent && conf < tiers.Low {
		e.safety = append(e.safety, "Extremely low yield prediction with high uncertainty")
		e.mark(model.ReasonAvoid, "Yield too low to justify farming investment")
		e.recs = append(e.recs, "Wait for more favorable conditions before investing in farming")
	}

	// Reduce tier.
	if d.RiskLevel == model.RiskMedium && (conf < tiers.Medium || water < dc.ModerateWaterMM) {
		e.risks = append(e.risks, "Medium disease risk combined with other limiting factors")
		e.mark(model.ReasonReduce, "Multiple moderate risk factors present")
		e.recs = append(e.recs,
			"Reduce planting area by 30-50%",
			"Focus on disease-resistant crop varieties",
			"Implement enhanced monitoring protocols",
		)
	}
	if water < dc.WaterStressMM && rain < dc.WaterStressRainMM {
		e.risks = append(e.risks, fmt.Sprintf("Water stress conditions - %.1fmm available, %.1fmm rainfall", water, rain))
		e.mark(model.ReasonReduce, "Water availability requires conservative approach")
		e.recs = append(e.recs,
			"Reduce crop area to match water availability",
			"Prioritize high-value, water-efficient crops",
			"Implement water-saving irrigation techniques",
		)
	}
	if pct >= dc.SafetyYieldPercent && pct < dc.LowYieldPercent && conf >= tiers.Low {
		e.risks = append(e.risks, fmt.Sprintf("Low expected yield (%.1f%%) but acceptable confidence", pct))
		e.mark(model.ReasonReduce, "Low yield requires reduced investment")
		e.recs = append(e.recs,
			"Plant smaller area to minimize losses",
			"Choose low-input, hardy crop varieties",
			"Focus on soil improvement for future seasons",
		)
	}

	// Economic viability.
	econ := r.EconomicRisk(pct, conf, d.RiskScore)
	switch {
	case econ > dc.EconomicAvoid:
		e.safety = append(e.safety, fmt.Sprintf("High economic risk (%.2f) - potential significant losses", econ))
		e.mark(model.ReasonAvoid, "Economic risk exceeds acceptable threshold")
		e.recs = append(e.recs, "Investment not recommended under current conditions")
	case econ > dc.EconomicReduce:
		e.risks = append(e.risks, fmt.Sprintf("Moderate economic risk (%.2f) - reduced investment advised", econ))
		e.mark(model.ReasonReduce, "Economic conditions require conservative investment")
		e.recs = append(e.recs, "Reduce investment and focus on risk mitigation")
	}

	// Positive indicators.
	if pct >= dc.GoodYieldPercent && conf >= tiers.High {
		e.positive = append(e.positive, fmt.Sprintf("Good yield prospects (%.1f%%) with high confidence", pct))
	}
	if d.RiskLevel == model.RiskLow {
		e.positive = append(e.positive, "Low disease risk supports safe farming")
	}
	if water >= dc.AdequateWaterMM || rain >= dc.AdequateRainMM {
		e.positive = append(e.positive, "Adequate water availability for crop cultivation")
	}
	if pct >= dc.ModerateYieldPercent && conf >= tiers.Medium && d.RiskLevel != model.RiskHigh && water >= dc.ModerateWaterMM {
		e.positive = append(e.positive, "Moderate conditions with acceptable risk levels")
	}

	decision, level := e.resolve()

	r.decisionRecommendations(&e, decision, pct, d.RiskLevel, water)
	r.timingRecommendations(&e, in, d.RiskLevel)

	return &model.DecisionResult{
		Decision:        decision,
		RiskLevel:       level,
		EconomicRisk:    math.Round(econ*1000) / 1000,
		Reasoning:       e.reasons,
		Recommendations: e.recs,
		Explanation:     explain(decision, level, pct, conf, d.RiskLevel, water, rain),
	}, nil
}

// resolve applies the conservative hierarchy: safety, then risk, then
// positive evidence, then the REDUCE_INPUTS default.
func (e *evaluation) resolve() (model.Decision, model.RiskLevel) {
	switch {
	case len(e.safety) > 0:
		for _, s := range e.safety {
			e.mark(model.ReasonSafety, s)
		}
		return model.DecisionAvoidFarming, model.RiskHigh
	case len(e.risks) >= 2 || (len(e.risks) == 1 && len(e.positive) == 0):
		for _, s := range e.risks {
			e.mark(model.ReasonRisk, s)
		}
		return model.DecisionReduceInputs, model.RiskMedium
	case len(e.positive) >= 2:
		for _, s := range e.positive {
			e.mark(model.ReasonPositive, s)
		}
		e.recs = append(e.recs,
			"Proceed with standard farming practices",
			"Maintain regular monitoring of crops and conditions",
			"Be prepared to adjust if conditions change",
		)
		return model.DecisionProceed, model.RiskLow
	default:
		e.mark(model.ReasonDefault, "Insufficient positive indicators for full farming recommendation")
		e.recs = append(e.recs, "Conservative approach recommended due to mixed conditions")
		return model.DecisionReduceInputs, model.RiskMedium
	}
}

func (r *Rules) decisionRecommendations(e *evaluation, decision model.Decision, pct float64, disease model.RiskLevel, water float64) {
	dc := r.cfg.Decision
	switch decision {
	case model.DecisionProceed:
		e.recs = append(e.recs,
			"Monitor weather conditions regularly",
			"Maintain emergency water reserves",
			"Keep disease management supplies ready",
		)
		if pct < dc.InsuranceYieldPercent {
			e.recs = append(e.recs, "Consider crop insurance to protect against losses")
		}
	case model.DecisionReduceInputs:
		e.recs = append(e.recs,
			"Start with 50-70% of planned crop area",
			"Choose proven, low-risk crop varieties",
			"Prioritize fields with best soil and water access",
		)
		if disease != model.RiskLow {
			e.recs = append(e.recs, "Implement preventive disease management from start")
		}
	default:
		e.recs = append(e.recs,
			"Focus on soil preparation and improvement",
			"Repair and maintain farming equipment",
			"Plan for better conditions in next season",
		)
		if water < dc.WaterHarvestingMM {
			e.recs = append(e.recs, "Invest in water harvesting and storage systems")
		}
	}
}

func (r *Rules) timingRecommendations(e *evaluation, in model.NormalizedInput, disease model.RiskLevel) {
	dc := r.cfg.Decision
	water := in.AvailableWaterMM

	if water < dc.ModerateWaterMM && in.RainfallMM < r.cfg.Rainfall.Low {
		e.recs = append(e.recs, "Wait for better water conditions or monsoon arrival")
	}
	if disease == model.RiskHigh {
		e.recs = append(e.recs,
			"Delay planting until disease pressure reduces",
			"Consider off-season crops with lower disease susceptibility",
		)
	}

	switch {
	case slices.Contains(dc.WaterIntensiveCrops, in.CropType) && water < dc.AdequateWaterMM:
		e.recs = append(e.recs, fmt.Sprintf("Consider switching from %s to more water-efficient crops", in.CropType))
	case slices.Contains(dc.DroughtResistantCrops, in.CropType) && water < dc.WaterHarvestingMM:
		e.recs = append(e.recs, fmt.Sprintf("%s is suitable for current water conditions", model.Title(in.CropType)))
	}
}

func explain(decision model.Decision, level model.RiskLevel, pct, conf float64, disease model.RiskLevel, water, rain float64) string {
	parts := []string{
		fmt.Sprintf("Farming Decision: %s (Risk Level: %s).", strings.ReplaceAll(string(decision), "_", " "), level),
		fmt.Sprintf("Key factors: %.1f%% expected yield (confidence: %.2f), %s disease risk, %.1fmm water available, %.1fmm recent rainfall.",
			pct, conf, strings.ToLower(string(disease)), water, rain),
	}
	switch decision {
	case model.DecisionProceed:
		parts = append(parts, "Conditions support farming with standard practices and regular monitoring.")
	case model.DecisionReduceInputs:
		parts = append(parts, "Mixed conditions require conservative approach with reduced investment and enhanced risk management.")
	default:
		parts = append(parts, "Current conditions pose significant risks that outweigh potential benefits. "+
			"Postponing farming activities is recommended for farmer safety and economic protection.")
	}
	parts = append(parts, "This recommendation prioritizes farmer safety and economic risk reduction over maximum output potential.")
	return strings.Join(parts, " ")
}

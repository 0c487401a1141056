// Package risk aggregates the stage results into one conservative overall
// risk score with mitigation suggestions.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

// Breakdown component names.
const (
	ComponentYield   = "yield_risk"
	ComponentDisease = "disease_risk"
	ComponentWater   = "water_risk"
	ComponentWeather = "weather_uncertainty_risk"
)

var (
	diseaseLevelRisk = map[model.RiskLevel]float64{model.RiskLow: 0.2, model.RiskMedium: 0.6, model.RiskHigh: 0.9}
	waterStressRisk  = map[model.RiskLevel]float64{model.RiskLow: 0.15, model.RiskMedium: 0.5, model.RiskHigh: 0.85}

	componentMitigations = map[string][]string{
		ComponentDisease: {
			"Implement immediate disease prevention measures",
			"Consider disease-resistant crop varieties",
			"Increase crop monitoring frequency",
		},
		ComponentWater: {
			"Secure additional water sources if possible",
			"Implement water-saving irrigation techniques",
			"Consider drought-resistant crops",
		},
		ComponentYield: {
			"Focus on proven, low-risk farming practices",
			"Consider crop insurance if available",
			"Diversify crops to spread risk",
		},
	}
)

// Aggregator combines yield, disease and irrigation results.
type Aggregator struct {
	cfg config.EngineConfig
}

// New returns an Aggregator reading weights and adjustments from cfg.
func New(cfg config.EngineConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate computes the overall risk assessment. Lower yield confidence
// never lowers the resulting score.
func (a *Aggregator) Aggregate(in model.NormalizedInput, y model.YieldResult, d model.DiseaseResult, ir model.IrrigationResult) (*model.RiskAssessment, error) {
	rc := a.cfg.Risk
	var steps []string

	components := []model.RiskComponent{
		a.yieldRisk(y, &steps),
		a.diseaseRisk(d, &steps),
		a.waterRisk(ir, &steps),
		a.weatherRisk(in.Context.WeatherUncertainty, &steps),
	}

	var score, maxScore float64
	for _, c := range components {
		contribution := c.Contribution()
		score += contribution
		maxScore = math.Max(maxScore, c.Score)
		steps = append(steps, fmt.Sprintf("%s: %.2f × %.2f = %.3f", c.Name, c.Score, c.Weight, contribution))
	}
	steps = append(steps, fmt.Sprintf("Base weighted risk score: %.3f", score))

	if maxScore >= rc.DominanceThreshold {
		adj := (maxScore - score) * rc.DominancePull
		score += adj
		steps = append(steps, fmt.Sprintf("High-risk dominance adjustment: +%.3f", adj))
	}

	penalty := a.confidencePenalty(y.ConfidenceScore)
	steps = append(steps, fmt.Sprintf("Low confidence penalty: %.3f", penalty))

	experience, ok := rc.ExperienceAdjustments[in.Context.FarmerExperience]
	if !ok {
		experience = rc.UnknownExperience
	}
	steps = append(steps, fmt.Sprintf("Farmer experience (%s) adjustment: %+.3f", in.Context.FarmerExperience, experience))

	economic := economicAdjustment(in.Context.EconomicBuffer)
	steps = append(steps, fmt.Sprintf("Economic buffer (%.2f) adjustment: +%.3f", in.Context.EconomicBuffer, economic))

	score += penalty + experience + economic + rc.ConservativeBuffer
	steps = append(steps, fmt.Sprintf("Conservative safety buffer: +%.3f", rc.ConservativeBuffer))

	score = math.Max(0, math.Min(1, score))
	if math.IsNaN(score) {
		return nil, eris.New("risk: non-finite overall score")
	}
	score = math.Round(score*1000) / 1000
	steps = append(steps, fmt.Sprintf("Final risk score (clamped): %.3f", score))

	level := a.cfg.RiskBands.Level(score)
	conf := a.assessmentConfidence(y.ConfidenceScore, in.Context.WeatherUncertainty)

	breakdown := make(map[string]model.RiskComponent, len(components))
	for _, c := range components {
		breakdown[c.Name] = c
	}

	return &model.RiskAssessment{
		OverallRiskScore:      score,
		OverallRiskLevel:      level,
		Breakdown:             breakdown,
		Components:            components,
		MitigationSuggestions: a.mitigations(level, components),
		AssessmentConfidence:  conf,
		CalculationSteps:      steps,
		Explanation:           explain(score, level, components, steps, conf),
	}, nil
}

func (a *Aggregator) yieldRisk(y model.YieldResult, steps *[]string) model.RiskComponent {
	pct, conf := y.ExpectedYieldPercentage, y.ConfidenceScore
	base := 1 - pct/100
	adj := (1 - conf) * 0.3
	score := math.Min(1, base+adj)
	*steps = append(*steps, fmt.Sprintf("Yield risk: base %.3f + confidence penalty %.3f = %.3f", base, adj, score))

	var msg string
	switch {
	case pct < 30:
		msg = fmt.Sprintf("Very low expected yield (%.1f%%) creates high risk", pct)
	case pct < 50:
		msg = fmt.Sprintf("Low expected yield (%.1f%%) increases risk", pct)
	case pct < 70:
		msg = fmt.Sprintf("Moderate expected yield (%.1f%%) presents manageable risk", pct)
	default:
		msg = fmt.Sprintf("Good expected yield (%.1f%%) reduces risk", pct)
	}
	switch tiers := a.cfg.Confidence; {
	case conf < tiers.Low:
		msg += fmt.Sprintf(" with very low confidence (%.2f)", conf)
	case conf < tiers.Medium:
		msg += fmt.Sprintf(" with low confidence (%.2f)", conf)
	}

	return model.RiskComponent{Name: ComponentYield, Score: score, Weight: a.cfg.Risk.YieldWeight, Explanation: msg}
}

func (a *Aggregator) diseaseRisk(d model.DiseaseResult, steps *[]string) model.RiskComponent {
	levelRisk, ok := diseaseLevelRisk[d.RiskLevel]
	if !ok {
		levelRisk = diseaseLevelRisk[model.RiskHigh]
	}
	score := math.Max(levelRisk, d.RiskScore)
	*steps = append(*steps, fmt.Sprintf("Disease risk: level-based %.3f, score-based %.3f, using max = %.3f", levelRisk, d.RiskScore, score))

	msg := fmt.Sprintf("%s disease risk (score: %.2f)", strings.ToLower(string(d.RiskLevel)), d.RiskScore)
	switch d.RiskLevel {
	case model.RiskHigh:
		msg += " - immediate crop protection needed"
	case model.RiskMedium:
		msg += " - enhanced monitoring required"
	default:
		msg += " - standard disease management sufficient"
	}

	return model.RiskComponent{Name: ComponentDisease, Score: score, Weight: a.cfg.Risk.DiseaseWeight, Explanation: msg}
}

func (a *Aggregator) waterRisk(ir model.IrrigationResult, steps *[]string) model.RiskComponent {
	base, ok := waterStressRisk[ir.WaterStressLevel]
	if !ok {
		base = waterStressRisk[model.RiskHigh]
	}
	amount := ir.RecommendedIrrigationMM
	var adj float64
	switch {
	case amount < 5:
		adj = 0.2
	case amount < 15:
		adj = 0.1
	}
	score := math.Min(1, base+adj)
	*steps = append(*steps, fmt.Sprintf("Water risk: stress-based %.3f + irrigation penalty %.3f = %.3f", base, adj, score))

	msg := strings.ToLower(string(ir.WaterStressLevel)) + " water stress"
	if amount < 10 {
		msg += fmt.Sprintf(" with limited irrigation capacity (%.1fmm)", amount)
	} else {
		msg += fmt.Sprintf(" with %.1fmm recommended irrigation", amount)
	}

	return model.RiskComponent{Name: ComponentWater, Score: score, Weight: a.cfg.Risk.WaterWeight, Explanation: msg}
}

func (a *Aggregator) weatherRisk(uncertainty float64, steps *[]string) model.RiskComponent {
	score := math.Min(a.cfg.Risk.WeatherUncertaintyCap, uncertainty)
	*steps = append(*steps, fmt.Sprintf("Weather uncertainty risk: %.3f", score))

	var msg string
	switch {
	case uncertainty > 0.7:
		msg = fmt.Sprintf("High weather uncertainty (%.2f) increases unpredictability", uncertainty)
	case uncertainty > 0.4:
		msg = fmt.Sprintf("Moderate weather uncertainty (%.2f) adds some risk", uncertainty)
	default:
		msg = fmt.Sprintf("Low weather uncertainty (%.2f) provides stable conditions", uncertainty)
	}

	return model.RiskComponent{Name: ComponentWeather, Score: score, Weight: a.cfg.Risk.WeatherWeight, Explanation: msg}
}

func (a *Aggregator) confidencePenalty(conf float64) float64 {
	switch {
	case conf < a.cfg.Confidence.Low:
		return a.cfg.Risk.LowConfidencePenalty
	case conf < a.cfg.Confidence.Medium:
		return a.cfg.Risk.MediumConfidencePenalty
	}
	return 0
}

// economicAdjustment raises risk for farmers with little financial slack.
func economicAdjustment(buffer float64) float64 {
	switch {
	case buffer < 0.2:
		return 0.1
	case buffer < 0.4:
		return 0.05
	}
	return 0
}

func (a *Aggregator) assessmentConfidence(yieldConf, uncertainty float64) float64 {
	c := (yieldConf + (1 - uncertainty)) / 2 * a.cfg.Risk.AssessmentBase
	c = math.Max(0.1, math.Min(1, c))
	return math.Round(c*100) / 100
}

func (a *Aggregator) mitigations(level model.RiskLevel, components []model.RiskComponent) []string {
	var out []string
	switch level {
	case model.RiskHigh:
		out = append(out,
			"Consider postponing farming until conditions improve",
			"If proceeding, reduce investment and crop area significantly",
			"Implement all available risk mitigation measures",
		)
	case model.RiskMedium:
		out = append(out,
			"Proceed with caution and enhanced monitoring",
			"Consider reducing crop area by 30-50%",
			"Implement preventive measures proactively",
		)
	}
	for _, c := range components {
		if c.Score > a.cfg.Risk.ComponentAlert {
			out = append(out, componentMitigations[c.Name]...)
		}
	}
	return dedupe(out)
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ConfidenceLabel describes an assessment confidence value.
func ConfidenceLabel(conf float64) string {
	switch {
	case conf > 0.7:
		return "high"
	case conf > 0.5:
		return "medium"
	default:
		return "low"
	}
}

func explain(score float64, level model.RiskLevel, components []model.RiskComponent, steps []string, conf float64) string {
	parts := []string{
		fmt.Sprintf("Overall farming risk: %s (%.3f/1.0).", level, score),
		"Risk breakdown:",
	}
	for _, c := range components {
		parts = append(parts, fmt.Sprintf("• %s: %.2f (weight: %.0f%%, contribution: %.3f)",
			model.Title(strings.ReplaceAll(c.Name, "_", " ")), c.Score, c.Weight*100, c.Contribution()))
	}

	var key []string
	for _, s := range steps {
		if strings.Contains(s, "adjustment") || strings.Contains(s, "penalty") {
			key = append(key, s)
		}
	}
	if len(key) > 0 {
		parts = append(parts, "Key calculation factors:")
		for _, s := range key[:min(3, len(key))] {
			parts = append(parts, "• "+s)
		}
	}

	parts = append(parts,
		fmt.Sprintf("Assessment confidence: %s (%.2f).", ConfidenceLabel(conf), conf),
		"This assessment uses conservative estimates and safety margins to prioritize farmer protection over profit maximization.",
	)
	return strings.Join(parts, " ")
}

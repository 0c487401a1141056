// Package yield implements the rule-based expected yield scorer.
package yield

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

// Warning flags raised while scoring.
const (
	FlagFrostRisk          = "frost_risk"
	FlagHeatStress         = "heat_stress"
	FlagDroughtStress      = "drought_stress"
	FlagFloodRisk          = "flood_risk"
	FlagHighIrrigationNeed = "high_irrigation_need"
	FlagUnknownSoil        = "unknown_soil"
	FlagUnknownCrop        = "unknown_crop"
)

var flagMessages = map[string]string{
	FlagFrostRisk:          "Risk of frost damage - consider protective measures",
	FlagHeatStress:         "Heat stress risk - ensure adequate irrigation and shade",
	FlagDroughtStress:      "Drought conditions - irrigation strongly recommended",
	FlagFloodRisk:          "Flooding risk - ensure proper drainage",
	FlagHighIrrigationNeed: "Frequent irrigation required due to soil type",
	FlagUnknownSoil:        "Soil type unknown - recommendation may be less accurate",
	FlagUnknownCrop:        "Crop type unknown - using conservative estimates",
}

// Scorer predicts expected yield from temperature, rainfall, soil and crop.
type Scorer struct {
	cfg config.EngineConfig
}

// New returns a Scorer reading its thresholds from cfg.
func New(cfg config.EngineConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the expected yield percentage and a confidence value.
func (s *Scorer) Score(in model.NormalizedInput) (*model.YieldResult, error) {
	yc := s.cfg.Yield
	var factors, flags []string

	tempScore := s.scoreTemperature(in.TemperatureC, &factors, &flags)
	rainScore := s.scoreRainfall(in.RainfallMM, &factors, &flags)

	soilScore := yc.UnknownSoilScore
	profile, knownSoil := s.cfg.Soils.Profile(in.SoilType)
	if knownSoil {
		soilScore = profile.YieldScore
		factors = append(factors, soilFactor(in.SoilType))
		if in.SoilType == model.SoilSandy {
			flags = append(flags, FlagHighIrrigationNeed)
		}
	} else {
		factors = append(factors, fmt.Sprintf("Unknown soil type (%s), using conservative estimate", in.SoilType))
		flags = append(flags, FlagUnknownSoil)
	}

	cropBonus, knownCrop := yc.CropBonus[in.CropType]
	switch {
	case !knownCrop:
		cropBonus = yc.UnknownCropBonus
		factors = append(factors, fmt.Sprintf("Unknown crop type (%s), applying conservative penalty", in.CropType))
		flags = append(flags, FlagUnknownCrop)
	case cropBonus > 0:
		factors = append(factors, fmt.Sprintf("%s is well-suited to current conditions", model.Title(in.CropType)))
	case cropBonus < 0:
		factors = append(factors, fmt.Sprintf("%s is sensitive to current weather conditions", model.Title(in.CropType)))
	}

	base := tempScore*yc.TemperatureWeight +
		rainScore*yc.RainfallWeight +
		soilScore*yc.SoilWeight +
		cropBonus*yc.CropWeight

	// The safety discount is applied before scaling onto the capped range.
	pct := base * yc.SafetyDiscount * yc.MaxPercent
	pct = math.Max(yc.MinPercent, math.Min(pct, yc.MaxPercent))

	conf := s.baseConfidence(in, knownSoil, knownCrop)
	conf = math.Max(conf-float64(len(flags))*yc.FlagPenalty, yc.MinConfidence)

	if math.IsNaN(pct) || math.IsNaN(conf) {
		return nil, eris.New("yield: non-finite score")
	}

	pct = math.Round(pct*10) / 10
	conf = math.Round(conf*100) / 100

	return &model.YieldResult{
		ExpectedYieldPercentage: pct,
		ConfidenceScore:         conf,
		WarningFlags:            flags,
		Explanation:             explain(pct, conf, s.cfg.Confidence, factors, flags),
	}, nil
}

func (s *Scorer) scoreTemperature(t float64, factors, flags *[]string) float64 {
	b := s.cfg.Temperature
	switch {
	case t < b.CriticalLow:
		*factors = append(*factors, fmt.Sprintf("Critical low temperature (%g°C) poses severe frost risk", t))
		*flags = append(*flags, FlagFrostRisk)
		return 0.1
	case t < b.OptimalMin:
		*factors = append(*factors, fmt.Sprintf("Temperature (%g°C) is below optimal range", t))
		return 0.4
	case t <= b.OptimalMax:
		*factors = append(*factors, fmt.Sprintf("Temperature (%g°C) is in optimal range", t))
		return 1.0
	case t < b.CriticalHigh:
		*factors = append(*factors, fmt.Sprintf("Temperature (%g°C) is above optimal but manageable", t))
		return 0.6
	default:
		*factors = append(*factors, fmt.Sprintf("Critical high temperature (%g°C) causes severe heat stress", t))
		*flags = append(*flags, FlagHeatStress)
		return 0.2
	}
}

func (s *Scorer) scoreRainfall(r float64, factors, flags *[]string) float64 {
	b := s.cfg.Rainfall
	switch {
	case r < b.Low:
		*factors = append(*factors, fmt.Sprintf("Low rainfall (%gmm) indicates drought stress", r))
		*flags = append(*flags, FlagDroughtStress)
		return 0.3
	case r < b.Medium:
		*factors = append(*factors, fmt.Sprintf("Moderate rainfall (%gmm) may require supplemental irrigation", r))
		return 0.7
	case r < b.High:
		*factors = append(*factors, fmt.Sprintf("Good rainfall levels (%gmm) for crop growth", r))
		return 1.0
	default:
		*factors = append(*factors, fmt.Sprintf("High rainfall (%gmm) poses flooding and disease risks", r))
		*flags = append(*flags, FlagFloodRisk)
		return 0.5
	}
}

// baseConfidence picks the HIGH, MEDIUM or LOW baseline tier.
func (s *Scorer) baseConfidence(in model.NormalizedInput, knownSoil, knownCrop bool) float64 {
	t, r := in.TemperatureC, in.RainfallMM
	tb, rb, tiers := s.cfg.Temperature, s.cfg.Rainfall, s.cfg.Confidence

	if tb.Optimal(t) && r >= rb.Low && r <= rb.High && knownSoil && knownCrop {
		return tiers.High
	}
	if t > tb.CriticalLow && t < tb.CriticalHigh && r > 0 && knownSoil {
		return tiers.Medium
	}
	return tiers.Low
}

func soilFactor(soil model.SoilType) string {
	switch soil {
	case model.SoilLoam:
		return "Loam soil provides excellent growing conditions"
	case model.SoilClay:
		return "Clay soil has good water retention but may have drainage issues"
	case model.SoilSilt:
		return "Silt soil provides good fertility and water retention"
	default:
		return "Sandy soil requires frequent irrigation due to poor water retention"
	}
}

// ConfidenceLabel describes a yield confidence against the configured tiers.
func ConfidenceLabel(conf float64, tiers config.ConfidenceTiers) string {
	switch {
	case conf >= tiers.High:
		return "High"
	case conf >= tiers.Medium:
		return "Medium"
	case conf >= tiers.Low:
		return "Low"
	default:
		return "Very Low"
	}
}

func explain(pct, conf float64, tiers config.ConfidenceTiers, factors, flags []string) string {
	parts := []string{
		fmt.Sprintf("Predicted yield: %.1f%% of potential maximum.", pct),
		fmt.Sprintf("Confidence level: %.2f (%s).", conf, ConfidenceLabel(conf, tiers)),
		"Key factors:",
	}
	for _, f := range factors {
		parts = append(parts, "• "+f)
	}
	if len(flags) > 0 {
		parts = append(parts, "Caution factors:")
		for _, f := range flags {
			parts = append(parts, "• "+flagMessages[f])
		}
	}
	parts = append(parts, "Note: Predictions use conservative estimates to prioritize farmer safety and risk reduction.")
	return strings.Join(parts, " ")
}

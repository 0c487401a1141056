// Package irrigation sizes a conservative irrigation recommendation and
// schedule from crop, soil, weather and water supply.
package irrigation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

const daysPerWeek = 7

var optimalTiming = []string{"Early morning (5-7 AM)", "Late evening (6-8 PM)"}

// Optimizer computes irrigation recommendations.
type Optimizer struct {
	cfg config.EngineConfig
}

// New returns an Optimizer reading its tables from cfg.
func New(cfg config.EngineConfig) *Optimizer {
	return &Optimizer{cfg: cfg}
}

type plan struct {
	steps    []string
	warnings []string
}

// Optimize returns the per-session amount, frequency, stress level and
// schedule for in. The amount never exceeds in.AvailableWaterMM.
func (o *Optimizer) Optimize(in model.NormalizedInput) (*model.IrrigationResult, error) {
	ic := o.cfg.Irrigation
	var p plan

	need, ok := ic.CropWaterNeedMM[in.CropType]
	if !ok {
		need = ic.DefaultWaterNeedMM
	}
	p.steps = append(p.steps, fmt.Sprintf("Base water requirement for %s: %g mm/day", in.CropType, need))

	soil, ok := o.cfg.Soils.Profile(in.SoilType)
	if ok {
		p.steps = append(p.steps, soilStep(in.SoilType))
		if in.SoilType == model.SoilSandy {
			p.warnings = append(p.warnings, "Sandy soil requires frequent, light irrigation to prevent water loss")
		}
	} else {
		soil = o.cfg.Soils.Loam
		p.steps = append(p.steps, fmt.Sprintf("Unknown soil type (%s), using default adjustments", in.SoilType))
		p.warnings = append(p.warnings, "Unknown soil type may affect irrigation accuracy")
	}
	if soil.IrrigationIntervalDays <= 0 {
		return nil, eris.Errorf("irrigation: invalid interval %d for soil %s", soil.IrrigationIntervalDays, in.SoilType)
	}

	stageMult, ok := ic.StageMultipliers[in.GrowingStage]
	if !ok {
		stageMult = 1
	}
	staged := need * stageMult
	p.steps = append(p.steps, fmt.Sprintf("Growth stage (%s) adjustment: %gx multiplier = %.1f mm/day", in.GrowingStage, stageMult, staged))

	credit := o.rainfallCredit(in.RainfallMM, &p)

	et := evaporationFactor(in.TemperatureC, in.HumidityPercent)
	demand := staged * et
	p.steps = append(p.steps, fmt.Sprintf("Environmental conditions (T:%g°C, H:%g%%): %.2fx factor = %.1f mm/day",
		in.TemperatureC, in.HumidityPercent, et, demand))

	daily := math.Max(0, demand-credit/daysPerWeek)
	daily *= soil.IrrigationMultiplier * (1 - ic.SafetyMargin)
	p.steps = append(p.steps, fmt.Sprintf("Net daily irrigation need: %.1f mm/day (after safety margin)", daily))

	interval := soil.IrrigationIntervalDays
	perWeek := float64(daysPerWeek) / float64(interval)
	session := math.Min(daily*float64(interval), ic.MaxDailyMM)
	if session*perWeek > ic.MaxWeeklyMM {
		session = ic.MaxWeeklyMM / perWeek
		p.warnings = append(p.warnings, "Irrigation reduced to stay within weekly safety limits")
	}

	if session > in.AvailableWaterMM {
		limited := in.AvailableWaterMM * ic.SupplyFraction
		p.warnings = append(p.warnings, fmt.Sprintf("Limited water availability: Reduced from %.1fmm to %.1fmm", session, limited))
		p.steps = append(p.steps, "Irrigation limited by available water supply")
		session = limited
	}

	if math.IsNaN(session) || math.IsInf(session, 0) {
		return nil, eris.New("irrigation: non-finite session amount")
	}
	// Floor so rounding never implies more water than the farmer has.
	amount := math.Floor(session*10+1e-9) / 10
	if amount > in.AvailableWaterMM {
		amount = in.AvailableWaterMM
	}

	stress := o.waterStress(daily, session, in.CropType)

	return &model.IrrigationResult{
		RecommendedIrrigationMM: amount,
		IrrigationFrequencyDays: interval,
		WaterStressLevel:        stress,
		Schedule:                schedule(amount, interval, soil, in.GrowingStage),
		WaterSavingTips:         o.savingTips(in, stress),
		Warnings:                p.warnings,
		Explanation:             explain(amount, interval, stress, in, p),
	}, nil
}

// rainfallCredit returns the effective rainfall after runoff and evaporation.
func (o *Optimizer) rainfallCredit(r float64, p *plan) float64 {
	b := o.cfg.Rainfall
	var eff float64
	var label string
	switch {
	case r >= b.High:
		eff, label = 0.6, "Heavy"
		p.warnings = append(p.warnings, "Heavy rainfall may cause waterlogging - monitor field drainage")
	case r >= b.Medium:
		eff, label = 0.8, "Moderate"
	case r >= b.Low:
		eff, label = 0.9, "Light"
	default:
		p.steps = append(p.steps, fmt.Sprintf("Minimal rainfall (%gmm): Limited benefit for irrigation needs", r))
		return r * 0.5
	}
	credit := r * eff
	p.steps = append(p.steps, fmt.Sprintf("%s rainfall (%gmm): %g%% efficiency = %.1fmm credit", label, r, eff*100, credit))
	return credit
}

// evaporationFactor scales water demand for heat and dry air.
func evaporationFactor(temp, humidity float64) float64 {
	var tf, hf float64
	switch {
	case temp > 35:
		tf = 1.3
	case temp > 30:
		tf = 1.15
	case temp > 25:
		tf = 1.0
	case temp > 20:
		tf = 0.9
	default:
		tf = 0.8
	}
	switch {
	case humidity < 40:
		hf = 1.2
	case humidity < 60:
		hf = 1.1
	case humidity < 80:
		hf = 1.0
	default:
		hf = 0.9
	}
	return tf * hf
}

// waterStress compares the conservative daily need with what one session
// can deliver. Drought tolerant crops get a wider MEDIUM band.
func (o *Optimizer) waterStress(daily, session float64, crop string) model.RiskLevel {
	ic := o.cfg.Irrigation
	var ratio float64
	if daily > 0 {
		ratio = (daily - session) / daily
	}
	tolerant := slices.Contains(ic.DroughtTolerantCrops, crop)

	switch {
	case ratio <= ic.LowStressRatio:
		return model.RiskLow
	case ratio <= ic.MediumStressRatio, tolerant && ratio <= ic.TolerantStressRatio:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

func schedule(amount float64, interval int, soil config.SoilProfile, stage string) model.IrrigationSchedule {
	s := model.IrrigationSchedule{
		AmountPerSessionMM:     amount,
		FrequencyDays:          interval,
		OptimalTiming:          append([]string(nil), optimalTiming...),
		ApplicationRateMMPerHr: soil.ApplicationRateMMPerHr,
		EstimatedDurationHours: 1,
		NextIrrigationDays:     interval,
	}
	if soil.ApplicationRateMMPerHr > 0 {
		s.EstimatedDurationHours = math.Round(amount/soil.ApplicationRateMMPerHr*10) / 10
	}

	switch stage {
	case "flowering", "reproductive":
		s.SpecialNotes = []string{
			"Critical growth stage - maintain consistent soil moisture",
			"Avoid water stress during this period",
		}
	case "harvest":
		s.SpecialNotes = []string{
			"Reduce irrigation to prevent crop quality issues",
			"Stop irrigation 3-5 days before harvest",
		}
	}
	return s
}

func (o *Optimizer) savingTips(in model.NormalizedInput, stress model.RiskLevel) []string {
	tips := []string{
		"Apply mulch around plants to reduce evaporation",
		"Irrigate early morning or late evening to minimize water loss",
		"Use drip irrigation or soaker hoses for efficient water delivery",
	}

	switch in.SoilType {
	case model.SoilSandy:
		tips = append(tips,
			"Add organic matter to improve water retention in sandy soil",
			"Use frequent, light irrigation to prevent water runoff",
			"Consider installing subsurface irrigation for better efficiency",
		)
	case model.SoilClay:
		tips = append(tips,
			"Ensure proper drainage to prevent waterlogging",
			"Allow soil to dry slightly between irrigations",
			"Break up soil crust to improve water infiltration",
		)
	}

	if in.TemperatureC > o.cfg.Irrigation.HotWeatherC {
		tips = append(tips,
			"Provide shade cloth during hottest part of day",
			"Increase irrigation frequency in hot weather",
			"Monitor plants for heat stress signs",
		)
	}

	switch stress {
	case model.RiskHigh:
		tips = append(tips,
			"Prioritize irrigation for most valuable crops",
			"Consider deficit irrigation strategies",
			"Harvest rainwater for supplemental irrigation",
		)
	case model.RiskMedium:
		tips = append(tips, "Monitor soil moisture regularly to optimize irrigation timing")
	}

	switch {
	case in.RainfallMM < o.cfg.Rainfall.Low:
		tips = append(tips,
			"Install rainwater harvesting systems for future use",
			"Consider drought-resistant crop varieties for next season",
		)
	case in.RainfallMM > o.cfg.Rainfall.High:
		tips = append(tips,
			"Improve field drainage to prevent waterlogging",
			"Reduce irrigation frequency after heavy rainfall",
		)
	}
	return tips
}

func soilStep(soil model.SoilType) string {
	switch soil {
	case model.SoilClay:
		return "Clay soil: Increased irrigation amount due to high water retention"
	case model.SoilSandy:
		return "Sandy soil: Reduced irrigation amount due to poor water retention"
	case model.SoilSilt:
		return "Silt soil: Good water retention, slight increase in irrigation amount"
	default:
		return "Loam soil: Optimal water retention, no adjustment needed"
	}
}

func explain(amount float64, interval int, stress model.RiskLevel, in model.NormalizedInput, p plan) string {
	parts := []string{
		fmt.Sprintf("Irrigation recommendation: %.1fmm every %d days for %s in %s soil.",
			amount, interval, in.CropType, strings.ToLower(string(in.SoilType))),
		fmt.Sprintf("Current water stress level: %s.", strings.ToLower(string(stress))),
		fmt.Sprintf("Based on %.1fmm recent rainfall and %.1fmm available water.", in.RainfallMM, in.AvailableWaterMM),
	}
	if len(p.steps) > 0 {
		parts = append(parts, "Key calculation factors:")
		for _, s := range p.steps[:min(3, len(p.steps))] {
			parts = append(parts, "• "+s)
		}
	}
	if len(p.warnings) > 0 {
		parts = append(parts, "Important considerations:")
		for _, w := range p.warnings {
			parts = append(parts, "• "+w)
		}
	}
	parts = append(parts, "Recommendations use conservative water amounts to prevent over-irrigation and promote water conservation.")
	return strings.Join(parts, " ")
}

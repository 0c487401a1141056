package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/farm-advisor/internal/model"
)

// EngineConfig is the single read-only set of thresholds, weights and lookup
// tables shared by every stage of the decision engine. Stages never mutate it.
type EngineConfig struct {
	ConcurrentStages bool `yaml:"concurrent_stages" mapstructure:"concurrent_stages"`

	Inputs      InputConfig      `yaml:"inputs" mapstructure:"inputs"`
	Temperature TemperatureBands `yaml:"temperature" mapstructure:"temperature"`
	Rainfall    RainfallBands    `yaml:"rainfall" mapstructure:"rainfall"`
	Humidity    HumidityBands    `yaml:"humidity" mapstructure:"humidity"`
	RiskBands   RiskBands        `yaml:"risk_bands" mapstructure:"risk_bands"`
	Confidence  ConfidenceTiers  `yaml:"confidence" mapstructure:"confidence"`
	Soils       SoilProfiles     `yaml:"soils" mapstructure:"soils"`
	Yield       YieldConfig      `yaml:"yield" mapstructure:"yield"`
	Disease     DiseaseConfig    `yaml:"disease" mapstructure:"disease"`
	Irrigation  IrrigationConfig `yaml:"irrigation" mapstructure:"irrigation"`
	Decision    DecisionConfig   `yaml:"decision" mapstructure:"decision"`
	Risk        RiskConfig       `yaml:"risk" mapstructure:"risk"`
}

// InputConfig holds normalization defaults and accepted ranges.
type InputConfig struct {
	DefaultRainfallMM         float64 `yaml:"default_rainfall_mm" mapstructure:"default_rainfall_mm"`
	DefaultTemperatureC       float64 `yaml:"default_temperature_c" mapstructure:"default_temperature_c"`
	DefaultHumidityPercent    float64 `yaml:"default_humidity_percent" mapstructure:"default_humidity_percent"`
	DefaultAvailableWaterMM   float64 `yaml:"default_available_water_mm" mapstructure:"default_available_water_mm"`
	DefaultSoilType           string  `yaml:"default_soil_type" mapstructure:"default_soil_type"`
	DefaultCropType           string  `yaml:"default_crop_type" mapstructure:"default_crop_type"`
	MinTemperatureC           float64 `yaml:"min_temperature_c" mapstructure:"min_temperature_c"`
	MaxTemperatureC           float64 `yaml:"max_temperature_c" mapstructure:"max_temperature_c"`
	DefaultWeatherUncertainty float64 `yaml:"default_weather_uncertainty" mapstructure:"default_weather_uncertainty"`
	DefaultFarmerExperience   string  `yaml:"default_farmer_experience" mapstructure:"default_farmer_experience"`
	DefaultEconomicBuffer     float64 `yaml:"default_economic_buffer" mapstructure:"default_economic_buffer"`
}

// TemperatureBands are the shared temperature thresholds in °C.
type TemperatureBands struct {
	OptimalMin   float64 `yaml:"optimal_min" mapstructure:"optimal_min"`
	OptimalMax   float64 `yaml:"optimal_max" mapstructure:"optimal_max"`
	CriticalLow  float64 `yaml:"critical_low" mapstructure:"critical_low"`
	CriticalHigh float64 `yaml:"critical_high" mapstructure:"critical_high"`
}

// Optimal reports whether t lies in the inclusive optimal band.
func (b TemperatureBands) Optimal(t float64) bool {
	return t >= b.OptimalMin && t <= b.OptimalMax
}

// RainfallBands are the shared rainfall thresholds in mm.
type RainfallBands struct {
	Low    float64 `yaml:"low" mapstructure:"low"`
	Medium float64 `yaml:"medium" mapstructure:"medium"`
	High   float64 `yaml:"high" mapstructure:"high"`
}

// HumidityBands are the shared relative humidity thresholds in percent.
type HumidityBands struct {
	OptimalMin  float64 `yaml:"optimal_min" mapstructure:"optimal_min"`
	OptimalMax  float64 `yaml:"optimal_max" mapstructure:"optimal_max"`
	DiseaseRisk float64 `yaml:"disease_risk" mapstructure:"disease_risk"`
}

// RiskBands map continuous scores onto risk levels.
type RiskBands struct {
	Low    float64 `yaml:"low" mapstructure:"low"`
	Medium float64 `yaml:"medium" mapstructure:"medium"`
	High   float64 `yaml:"high" mapstructure:"high"`
}

// Level maps a score onto LOW, MEDIUM or HIGH. The mapping is monotonic.
func (b RiskBands) Level(score float64) model.RiskLevel {
	switch {
	case score >= b.High:
		return model.RiskHigh
	case score >= b.Medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// ConfidenceTiers are the yield confidence baselines.
type ConfidenceTiers struct {
	High   float64 `yaml:"high" mapstructure:"high"`
	Medium float64 `yaml:"medium" mapstructure:"medium"`
	Low    float64 `yaml:"low" mapstructure:"low"`
}

// SoilProfile holds the agronomic properties of one soil type.
type SoilProfile struct {
	WaterRetention         float64 `yaml:"water_retention" mapstructure:"water_retention"`
	IrrigationIntervalDays int     `yaml:"irrigation_interval_days" mapstructure:"irrigation_interval_days"`
	ApplicationRateMMPerHr float64 `yaml:"application_rate_mm_per_hour" mapstructure:"application_rate_mm_per_hour"`
	IrrigationMultiplier   float64 `yaml:"irrigation_multiplier" mapstructure:"irrigation_multiplier"`
	YieldScore             float64 `yaml:"yield_score" mapstructure:"yield_score"`
}

// SoilProfiles keeps one profile per supported soil. The profiles are struct
// fields rather than a map so config keys stay case-insensitive.
type SoilProfiles struct {
	Clay  SoilProfile `yaml:"clay" mapstructure:"clay"`
	Loam  SoilProfile `yaml:"loam" mapstructure:"loam"`
	Sandy SoilProfile `yaml:"sandy" mapstructure:"sandy"`
	Silt  SoilProfile `yaml:"silt" mapstructure:"silt"`
}

// Profile returns the profile for soil, or false for an unsupported soil.
func (p SoilProfiles) Profile(soil model.SoilType) (SoilProfile, bool) {
	switch soil {
	case model.SoilClay:
		return p.Clay, true
	case model.SoilLoam:
		return p.Loam, true
	case model.SoilSandy:
		return p.Sandy, true
	case model.SoilSilt:
		return p.Silt, true
	}
	return SoilProfile{}, false
}

// YieldConfig configures the yield scorer.
type YieldConfig struct {
	TemperatureWeight float64            `yaml:"temperature_weight" mapstructure:"temperature_weight"`
	RainfallWeight    float64            `yaml:"rainfall_weight" mapstructure:"rainfall_weight"`
	SoilWeight        float64            `yaml:"soil_weight" mapstructure:"soil_weight"`
	CropWeight        float64            `yaml:"crop_weight" mapstructure:"crop_weight"`
	SafetyDiscount    float64            `yaml:"safety_discount" mapstructure:"safety_discount"`
	MaxPercent        float64            `yaml:"max_percent" mapstructure:"max_percent"`
	MinPercent        float64            `yaml:"min_percent" mapstructure:"min_percent"`
	UnknownSoilScore  float64            `yaml:"unknown_soil_score" mapstructure:"unknown_soil_score"`
	UnknownCropBonus  float64            `yaml:"unknown_crop_bonus" mapstructure:"unknown_crop_bonus"`
	FlagPenalty       float64            `yaml:"flag_penalty" mapstructure:"flag_penalty"`
	MinConfidence     float64            `yaml:"min_confidence" mapstructure:"min_confidence"`
	CropBonus         map[string]float64 `yaml:"crop_bonus" mapstructure:"crop_bonus"`
}

// DiseasePattern describes when a crop's known disease pressure applies.
// Trigger is one of high_humidity, moderate_temperature or cool_wet.
type DiseasePattern struct {
	Trigger     string  `yaml:"trigger" mapstructure:"trigger"`
	Risk        float64 `yaml:"risk" mapstructure:"risk"`
	Description string  `yaml:"description" mapstructure:"description"`
}

// Disease pattern triggers.
const (
	TriggerHighHumidity        = "high_humidity"
	TriggerModerateTemperature = "moderate_temperature"
	TriggerCoolWet             = "cool_wet"
)

// DiseaseConfig configures the disease risk scorer.
type DiseaseConfig struct {
	HumidityWeight        float64                   `yaml:"humidity_weight" mapstructure:"humidity_weight"`
	TemperatureWeight     float64                   `yaml:"temperature_weight" mapstructure:"temperature_weight"`
	RainfallWeight        float64                   `yaml:"rainfall_weight" mapstructure:"rainfall_weight"`
	BasePresence          float64                   `yaml:"base_presence" mapstructure:"base_presence"`
	EnvironmentalShare    float64                   `yaml:"environmental_share" mapstructure:"environmental_share"`
	CropAdjustmentCap     float64                   `yaml:"crop_adjustment_cap" mapstructure:"crop_adjustment_cap"`
	UnknownCropAdjustment float64                   `yaml:"unknown_crop_adjustment" mapstructure:"unknown_crop_adjustment"`
	ConservativeBuffer    float64                   `yaml:"conservative_buffer" mapstructure:"conservative_buffer"`
	DiagnosisThreshold    float64                   `yaml:"diagnosis_threshold" mapstructure:"diagnosis_threshold"`
	Patterns              map[string]DiseasePattern `yaml:"patterns" mapstructure:"patterns"`
}

// IrrigationConfig configures the irrigation optimizer.
type IrrigationConfig struct {
	MaxDailyMM           float64            `yaml:"max_daily_mm" mapstructure:"max_daily_mm"`
	MaxWeeklyMM          float64            `yaml:"max_weekly_mm" mapstructure:"max_weekly_mm"`
	SafetyMargin         float64            `yaml:"safety_margin" mapstructure:"safety_margin"`
	SupplyFraction       float64            `yaml:"supply_fraction" mapstructure:"supply_fraction"`
	DefaultWaterNeedMM   float64            `yaml:"default_water_need_mm" mapstructure:"default_water_need_mm"`
	CropWaterNeedMM      map[string]float64 `yaml:"crop_water_need_mm" mapstructure:"crop_water_need_mm"`
	StageMultipliers     map[string]float64 `yaml:"stage_multipliers" mapstructure:"stage_multipliers"`
	DroughtTolerantCrops []string           `yaml:"drought_tolerant_crops" mapstructure:"drought_tolerant_crops"`
	LowStressRatio       float64            `yaml:"low_stress_ratio" mapstructure:"low_stress_ratio"`
	MediumStressRatio    float64            `yaml:"medium_stress_ratio" mapstructure:"medium_stress_ratio"`
	TolerantStressRatio  float64            `yaml:"tolerant_stress_ratio" mapstructure:"tolerant_stress_ratio"`
	HotWeatherC          float64            `yaml:"hot_weather_c" mapstructure:"hot_weather_c"`
}

// DecisionConfig configures the farming decision rules.
type DecisionConfig struct {
	CriticalDiseaseScore  float64  `yaml:"critical_disease_score" mapstructure:"critical_disease_score"`
	WaterFloorMM          float64  `yaml:"water_floor_mm" mapstructure:"water_floor_mm"`
	NegligibleRainMM      float64  `yaml:"negligible_rain_mm" mapstructure:"negligible_rain_mm"`
	SafetyYieldPercent    float64  `yaml:"safety_yield_percent" mapstructure:"safety_yield_percent"`
	EconomicAvoid         float64  `yaml:"economic_avoid" mapstructure:"economic_avoid"`
	EconomicReduce        float64  `yaml:"economic_reduce" mapstructure:"economic_reduce"`
	EconomicDiseaseWeight float64  `yaml:"economic_disease_weight" mapstructure:"economic_disease_weight"`
	DiseaseWaterMM        float64  `yaml:"disease_water_mm" mapstructure:"disease_water_mm"`
	WaterStressMM         float64  `yaml:"water_stress_mm" mapstructure:"water_stress_mm"`
	WaterStressRainMM     float64  `yaml:"water_stress_rain_mm" mapstructure:"water_stress_rain_mm"`
	LowYieldPercent       float64  `yaml:"low_yield_percent" mapstructure:"low_yield_percent"`
	GoodYieldPercent      float64  `yaml:"good_yield_percent" mapstructure:"good_yield_percent"`
	ModerateYieldPercent  float64  `yaml:"moderate_yield_percent" mapstructure:"moderate_yield_percent"`
	AdequateWaterMM       float64  `yaml:"adequate_water_mm" mapstructure:"adequate_water_mm"`
	AdequateRainMM        float64  `yaml:"adequate_rain_mm" mapstructure:"adequate_rain_mm"`
	ModerateWaterMM       float64  `yaml:"moderate_water_mm" mapstructure:"moderate_water_mm"`
	InsuranceYieldPercent float64  `yaml:"insurance_yield_percent" mapstructure:"insurance_yield_percent"`
	WaterHarvestingMM     float64  `yaml:"water_harvesting_mm" mapstructure:"water_harvesting_mm"`
	WaterIntensiveCrops   []string `yaml:"water_intensive_crops" mapstructure:"water_intensive_crops"`
	DroughtResistantCrops []string `yaml:"drought_resistant_crops" mapstructure:"drought_resistant_crops"`
}

// RiskConfig configures the risk aggregator.
type RiskConfig struct {
	YieldWeight             float64            `yaml:"yield_weight" mapstructure:"yield_weight"`
	DiseaseWeight           float64            `yaml:"disease_weight" mapstructure:"disease_weight"`
	WaterWeight             float64            `yaml:"water_weight" mapstructure:"water_weight"`
	WeatherWeight           float64            `yaml:"weather_weight" mapstructure:"weather_weight"`
	WeatherUncertaintyCap   float64            `yaml:"weather_uncertainty_cap" mapstructure:"weather_uncertainty_cap"`
	DominanceThreshold      float64            `yaml:"dominance_threshold" mapstructure:"dominance_threshold"`
	DominancePull           float64            `yaml:"dominance_pull" mapstructure:"dominance_pull"`
	LowConfidencePenalty    float64            `yaml:"low_confidence_penalty" mapstructure:"low_confidence_penalty"`
	MediumConfidencePenalty float64            `yaml:"medium_confidence_penalty" mapstructure:"medium_confidence_penalty"`
	ExperienceAdjustments   map[string]float64 `yaml:"experience_adjustments" mapstructure:"experience_adjustments"`
	UnknownExperience       float64            `yaml:"unknown_experience" mapstructure:"unknown_experience"`
	ConservativeBuffer      float64            `yaml:"conservative_buffer" mapstructure:"conservative_buffer"`
	AssessmentBase          float64            `yaml:"assessment_base" mapstructure:"assessment_base"`
	ComponentAlert          float64            `yaml:"component_alert" mapstructure:"component_alert"`
}

// DefaultEngineConfig returns the engine configuration used when no file or
// environment override is present. Every call returns fresh maps.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ConcurrentStages: true,

		Inputs: InputConfig{
			DefaultRainfallMM:         0,
			DefaultTemperatureC:       25,
			DefaultHumidityPercent:    60,
			DefaultAvailableWaterMM:   30,
			DefaultSoilType:           string(model.SoilLoam),
			DefaultCropType:           "wheat",
			MinTemperatureC:           -20,
			MaxTemperatureC:           60,
			DefaultWeatherUncertainty: 0.2,
			DefaultFarmerExperience:   "medium",
			DefaultEconomicBuffer:     0.3,
		},
		Temperature: TemperatureBands{OptimalMin: 15, OptimalMax: 30, CriticalLow: 5, CriticalHigh: 40},
		Rainfall:    RainfallBands{Low: 10, Medium: 50, High: 100},
		Humidity:    HumidityBands{OptimalMin: 40, OptimalMax: 70, DiseaseRisk: 80},
		RiskBands:   RiskBands{Low: 0.25, Medium: 0.60, High: 0.85},
		Confidence:  ConfidenceTiers{High: 0.85, Medium: 0.65, Low: 0.45},
		Soils: SoilProfiles{
			Clay:  SoilProfile{WaterRetention: 0.45, IrrigationIntervalDays: 7, ApplicationRateMMPerHr: 5, IrrigationMultiplier: 1.2, YieldScore: 0.8},
			Loam:  SoilProfile{WaterRetention: 0.35, IrrigationIntervalDays: 5, ApplicationRateMMPerHr: 10, IrrigationMultiplier: 1.0, YieldScore: 1.0},
			Sandy: SoilProfile{WaterRetention: 0.15, IrrigationIntervalDays: 3, ApplicationRateMMPerHr: 15, IrrigationMultiplier: 0.7, YieldScore: 0.6},
			Silt:  SoilProfile{WaterRetention: 0.40, IrrigationIntervalDays: 6, ApplicationRateMMPerHr: 7, IrrigationMultiplier: 1.1, YieldScore: 0.9},
		},
		Yield: YieldConfig{
			TemperatureWeight: 0.40,
			RainfallWeight:    0.35,
			SoilWeight:        0.20,
			CropWeight:        0.05,
			SafetyDiscount:    0.90,
			MaxPercent:        85,
			MinPercent:        5,
			UnknownSoilScore:  0.5,
			UnknownCropBonus:  -0.1,
			FlagPenalty:       0.1,
			MinConfidence:     0.2,
			CropBonus: map[string]float64{
				"rice": 0.1, "wheat": 0, "cotton": -0.05, "sugarcane": 0.05,
				"maize": 0, "millet": 0.1, "soybean": 0, "groundnut": -0.05,
				"potato": 0, "mustard": 0, "jute": 0.05, "chili": -0.1,
				"coconut": 0.05, "tea": 0,
			},
		},
		Disease: DiseaseConfig{
			HumidityWeight:        0.40,
			TemperatureWeight:     0.30,
			RainfallWeight:        0.20,
			BasePresence:          0.10,
			EnvironmentalShare:    0.60,
			CropAdjustmentCap:     0.25,
			UnknownCropAdjustment: 0.05,
			ConservativeBuffer:    0.10,
			DiagnosisThreshold:    0.60,
			Patterns: map[string]DiseasePattern{
				"rice":   {Trigger: TriggerHighHumidity, Risk: 0.15, Description: "susceptible to fungal diseases in wet conditions"},
				"wheat":  {Trigger: TriggerModerateTemperature, Risk: 0.10, Description: "prone to rust diseases in moderate temperatures"},
				"cotton": {Trigger: TriggerHighHumidity, Risk: 0.12, Description: "susceptible to bollworm and bacterial diseases"},
				"tomato": {Trigger: TriggerHighHumidity, Risk: 0.18, Description: "highly susceptible to blight in humid conditions"},
				"potato": {Trigger: TriggerCoolWet, Risk: 0.20, Description: "extremely susceptible to late blight in cool, wet conditions"},
			},
		},
		Irrigation: IrrigationConfig{
			MaxDailyMM:         25,
			MaxWeeklyMM:        100,
			SafetyMargin:       0.15,
			SupplyFraction:     0.8,
			DefaultWaterNeedMM: 4,
			CropWaterNeedMM: map[string]float64{
				"rice": 8, "sugarcane": 7, "cotton": 5, "wheat": 4, "maize": 4.5,
				"soybean": 4, "potato": 3.5, "groundnut": 3, "millet": 2.5,
				"sorghum": 2.5, "mustard": 3, "chili": 4, "tomato": 5, "jute": 6,
				"coconut": 4, "tea": 3.5,
			},
			StageMultipliers: map[string]float64{
				"seedling": 0.6, "vegetative": 1.0, "flowering": 1.2, "reproductive": 1.2,
				"fruiting": 1.1, "maturation": 0.8, "harvest": 0.4, "mature": 0.9,
			},
			DroughtTolerantCrops: []string{"millet", "sorghum", "groundnut"},
			LowStressRatio:       0.1,
			MediumStressRatio:    0.3,
			TolerantStressRatio:  0.4,
			HotWeatherC:          30,
		},
		Decision: DecisionConfig{
			CriticalDiseaseScore:  0.8,
			WaterFloorMM:          20,
			NegligibleRainMM:      5,
			SafetyYieldPercent:    20,
			EconomicAvoid:         0.7,
			EconomicReduce:        0.4,
			EconomicDiseaseWeight: 0.3,
			DiseaseWaterMM:        40,
			WaterStressMM:         50,
			WaterStressRainMM:     15,
			LowYieldPercent:       40,
			GoodYieldPercent:      60,
			ModerateYieldPercent:  45,
			AdequateWaterMM:       60,
			AdequateRainMM:        25,
			ModerateWaterMM:       40,
			InsuranceYieldPercent: 70,
			WaterHarvestingMM:     30,
			WaterIntensiveCrops:   []string{"rice", "sugarcane"},
			DroughtResistantCrops: []string{"millet", "sorghum", "groundnut"},
		},
		Risk: RiskConfig{
			YieldWeight:             0.30,
			DiseaseWeight:           0.35,
			WaterWeight:             0.25,
			WeatherWeight:           0.10,
			WeatherUncertaintyCap:   0.8,
			DominanceThreshold:      0.8,
			DominancePull:           0.5,
			LowConfidencePenalty:    0.15,
			MediumConfidencePenalty: 0.08,
			ExperienceAdjustments: map[string]float64{
				"beginner": 0.1, "novice": 0.08, "medium": 0, "experienced": -0.05, "expert": -0.08,
			},
			UnknownExperience:  0.05,
			ConservativeBuffer: 0.05,
			AssessmentBase:     0.8,
			ComponentAlert:     0.7,
		},
	}
}

// ValidateEngine checks that an EngineConfig is internally consistent.
func ValidateEngine(c EngineConfig) error {
	var errs []string

	checkSum := func(name string, sum float64) {
		if math.Abs(sum-1) > 0.01 {
			errs = append(errs, fmt.Sprintf("%s weights should sum to 1, got %.2f", name, sum))
		}
	}
	checkSum("yield", c.Yield.TemperatureWeight+c.Yield.RainfallWeight+c.Yield.SoilWeight+c.Yield.CropWeight)
	checkSum("disease", c.Disease.HumidityWeight+c.Disease.TemperatureWeight+c.Disease.RainfallWeight+c.Disease.BasePresence)
	checkSum("risk", c.Risk.YieldWeight+c.Risk.DiseaseWeight+c.Risk.WaterWeight+c.Risk.WeatherWeight)

	// Band ordering.
	t := c.Temperature
	if !(t.CriticalLow < t.OptimalMin && t.OptimalMin <= t.OptimalMax && t.OptimalMax < t.CriticalHigh) {
		errs = append(errs, "temperature bands must satisfy critical_low < optimal_min <= optimal_max < critical_high")
	}
	if !(c.Rainfall.Low < c.Rainfall.Medium && c.Rainfall.Medium < c.Rainfall.High) {
		errs = append(errs, "rainfall bands must be strictly increasing")
	}
	if !(c.Humidity.OptimalMin <= c.Humidity.OptimalMax && c.Humidity.OptimalMax <= c.Humidity.DiseaseRisk) {
		errs = append(errs, "humidity bands must satisfy optimal_min <= optimal_max <= disease_risk")
	}
	if !(c.RiskBands.Low < c.RiskBands.Medium && c.RiskBands.Medium < c.RiskBands.High) {
		errs = append(errs, "risk bands must be strictly increasing")
	}
	if c.RiskBands.Low < 0 || c.RiskBands.High > 1 {
		errs = append(errs, "risk bands must lie within [0, 1]")
	}
	if !(c.Confidence.Low < c.Confidence.Medium && c.Confidence.Medium < c.Confidence.High) {
		errs = append(errs, "confidence tiers must be strictly increasing")
	}
	if c.Inputs.MinTemperatureC >= c.Inputs.MaxTemperatureC {
		errs = append(errs, "inputs.min_temperature_c must be < max_temperature_c")
	}
	if !model.SoilType(strings.ToUpper(c.Inputs.DefaultSoilType)).Valid() {
		errs = append(errs, fmt.Sprintf("inputs.default_soil_type %q is not a supported soil", c.Inputs.DefaultSoilType))
	}

	// Soils.
	for _, soil := range model.AllSoilTypes() {
		p, _ := c.Soils.Profile(soil)
		name := strings.ToLower(string(soil))
		if p.IrrigationIntervalDays <= 0 {
			errs = append(errs, fmt.Sprintf("soils.%s.irrigation_interval_days must be > 0", name))
		}
		if p.ApplicationRateMMPerHr <= 0 {
			errs = append(errs, fmt.Sprintf("soils.%s.application_rate_mm_per_hour must be > 0", name))
		}
		if p.IrrigationMultiplier < 0 {
			errs = append(errs, fmt.Sprintf("soils.%s.irrigation_multiplier must be >= 0", name))
		}
	}

	// Ceilings.
	if c.Irrigation.MaxDailyMM <= 0 {
		errs = append(errs, "irrigation.max_daily_mm must be > 0")
	}
	if c.Irrigation.MaxWeeklyMM <= 0 {
		errs = append(errs, "irrigation.max_weekly_mm must be > 0")
	}
	if c.Irrigation.SafetyMargin < 0 || c.Irrigation.SafetyMargin >= 1 {
		errs = append(errs, "irrigation.safety_margin must be in [0, 1)")
	}
	if c.Irrigation.SupplyFraction <= 0 || c.Irrigation.SupplyFraction > 1 {
		errs = append(errs, "irrigation.supply_fraction must be in (0, 1]")
	}
	if c.Yield.MinPercent < 0 || c.Yield.MinPercent > c.Yield.MaxPercent {
		errs = append(errs, "yield.min_percent must be in [0, max_percent]")
	}
	if c.Disease.EnvironmentalShare < 0 || c.Disease.EnvironmentalShare > 1 {
		errs = append(errs, "disease.environmental_share must be in [0, 1]")
	}
	if c.Decision.EconomicReduce >= c.Decision.EconomicAvoid {
		errs = append(errs, "decision.economic_reduce must be < economic_avoid")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: engine validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

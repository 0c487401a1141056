// Package normalize turns loosely typed field observations into a fully
// populated model.NormalizedInput.
package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

// Raw input field names.
const (
	FieldRainfall           = "rainfall_mm"
	FieldTemperature        = "temperature_c"
	FieldHumidity           = "humidity_percent"
	FieldAvailableWater     = "available_water_mm"
	FieldSoilType           = "soil_type"
	FieldCropType           = "crop_type"
	FieldLeafImage          = "leaf_image_provided"
	FieldFarmerID           = "farmer_id"
	FieldRegion             = "region"
	FieldGrowingStage       = "growing_stage"
	FieldWeatherUncertainty = "weather_uncertainty"
	FieldFarmerExperience   = "farmer_experience"
	FieldEconomicBuffer     = "economic_buffer"
)

const unknown = "unknown"

// BasicFields are the fields of which at least one must be present for a
// request to pass the validation gate.
var BasicFields = []string{FieldRainfall, FieldTemperature, FieldSoilType, FieldCropType}

// Normalize cleans raw into a canonical input. It never fails: every missing,
// uncoercible or out-of-range core value is replaced by its configured default
// and reported in the returned warnings.
func Normalize(raw map[string]any, cfg config.EngineConfig) (model.NormalizedInput, []string) {
	n := normalizer{raw: raw}
	d := cfg.Inputs

	in := model.NormalizedInput{
		RainfallMM:       n.number(FieldRainfall, d.DefaultRainfallMM),
		TemperatureC:     n.number(FieldTemperature, d.DefaultTemperatureC),
		HumidityPercent:  n.number(FieldHumidity, d.DefaultHumidityPercent),
		AvailableWaterMM: n.number(FieldAvailableWater, d.DefaultAvailableWaterMM),
	}

	// Range resets.
	if in.RainfallMM < 0 {
		in.RainfallMM = 0
		n.warn("Negative rainfall corrected to 0")
	}
	if in.TemperatureC < d.MinTemperatureC || in.TemperatureC > d.MaxTemperatureC {
		in.TemperatureC = d.DefaultTemperatureC
		n.warn(fmt.Sprintf("Temperature outside realistic range, using default %g°C", d.DefaultTemperatureC))
	}
	if in.HumidityPercent < 0 || in.HumidityPercent > 100 {
		in.HumidityPercent = d.DefaultHumidityPercent
		n.warn(fmt.Sprintf("Humidity outside valid range (0-100%%), using default %g%%", d.DefaultHumidityPercent))
	}
	if in.AvailableWaterMM < 0 {
		in.AvailableWaterMM = 0
		n.warn("Negative water availability corrected to 0")
	}

	defaultSoil := model.SoilType(strings.ToUpper(d.DefaultSoilType))
	soil := model.SoilType(strings.ToUpper(n.text(FieldSoilType, string(defaultSoil), true)))
	if !soil.Valid() {
		n.warn(fmt.Sprintf("Unknown soil type, using default: %s", defaultSoil))
		soil = defaultSoil
	}
	in.SoilType = soil
	in.CropType = strings.ToLower(n.text(FieldCropType, d.DefaultCropType, true))
	in.LeafImageProvided = n.flag(FieldLeafImage)

	in.FarmerID = n.text(FieldFarmerID, unknown, false)
	in.Region = n.text(FieldRegion, unknown, false)
	in.GrowingStage = strings.ToLower(n.text(FieldGrowingStage, unknown, false))

	in.Context = model.RiskContext{
		WeatherUncertainty: n.fraction(FieldWeatherUncertainty, d.DefaultWeatherUncertainty),
		FarmerExperience:   strings.ToLower(n.text(FieldFarmerExperience, d.DefaultFarmerExperience, false)),
		EconomicBuffer:     n.fraction(FieldEconomicBuffer, d.DefaultEconomicBuffer),
	}

	return in, n.warnings
}

// ValidateEngineInputs is the permissive pre-check run before the engine. It
// fails only when none of the basic fields is present.
func ValidateEngineInputs(raw map[string]any) (bool, string) {
	for _, f := range BasicFields {
		if _, ok := raw[f]; ok {
			return true, "Inputs are acceptable for processing"
		}
	}
	return false, "At least some basic farming parameters must be provided"
}

type normalizer struct {
	raw      map[string]any
	warnings []string
}

func (n *normalizer) warn(msg string) {
	n.warnings = append(n.warnings, msg)
}

func (n *normalizer) lookup(field string) (any, bool) {
	v, ok := n.raw[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// number coerces a required numeric field.
func (n *normalizer) number(field string, def float64) float64 {
	v, ok := n.lookup(field)
	if !ok {
		n.warn(fmt.Sprintf("Missing %s, using default value: %g", field, def))
		return def
	}
	f, err := toFloat(v)
	if err != nil {
		n.warn(fmt.Sprintf("Invalid %s value, using default: %g", field, def))
		return def
	}
	return f
}

// fraction coerces an optional value in [0, 1]. Absence is silent.
func (n *normalizer) fraction(field string, def float64) float64 {
	v, ok := n.lookup(field)
	if !ok {
		return def
	}
	f, err := toFloat(v)
	if err != nil || f < 0 || f > 1 {
		n.warn(fmt.Sprintf("Invalid %s value, using default: %g", field, def))
		return def
	}
	return f
}

// text coerces a string field. Required fields warn when defaulted.
func (n *normalizer) text(field, def string, required bool) string {
	v, ok := n.lookup(field)
	if !ok {
		if required {
			n.warn(fmt.Sprintf("Missing %s, using default value: %s", field, def))
		}
		return def
	}
	s, err := cast.ToStringE(v)
	s = strings.TrimSpace(s)
	if err != nil || s == "" {
		if required {
			n.warn(fmt.Sprintf("Invalid %s value, using default: %s", field, def))
		}
		return def
	}
	return s
}

// flag coerces a boolean field, defaulting to false.
func (n *normalizer) flag(field string) bool {
	v, ok := n.lookup(field)
	if !ok {
		n.warn(fmt.Sprintf("Missing %s, using default value: false", field))
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "yes", "y":
			return true
		case "no", "n", "":
			return false
		}
		if b, err := cast.ToBoolE(s); err == nil {
			return b
		}
	default:
		if f, err := toFloat(t); err == nil {
			return f != 0
		}
	}
	n.warn(fmt.Sprintf("Invalid %s value, using default: false", field))
	return false
}

func toFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, eris.New("normalize: empty numeric value")
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("normalize: non-finite value %v", f)
	}
	return f, nil
}

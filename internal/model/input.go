// Package model holds the domain types shared by every stage of the decision engine.
package model

// SoilType is the canonical soil classification.
type SoilType string

const (
	SoilClay  SoilType = "CLAY"
	SoilLoam  SoilType = "LOAM"
	SoilSandy SoilType = "SANDY"
	SoilSilt  SoilType = "SILT"
)

// AllSoilTypes returns every supported soil type.
func AllSoilTypes() []SoilType {
	return []SoilType{SoilClay, SoilLoam, SoilSandy, SoilSilt}
}

// Valid reports whether s is one of the four supported soil types.
func (s SoilType) Valid() bool {
	switch s {
	case SoilClay, SoilLoam, SoilSandy, SoilSilt:
		return true
	}
	return false
}

// RiskContext carries the exogenous factors consumed by the risk aggregator.
type RiskContext struct {
	WeatherUncertainty float64 `json:"weather_uncertainty"`
	FarmerExperience   string  `json:"farmer_experience"`
	EconomicBuffer     float64 `json:"economic_buffer"`
}

// NormalizedInput is the canonical, fully-populated field record produced by
// the normalizer. Every field is always set.
type NormalizedInput struct {
	RainfallMM        float64  `json:"rainfall_mm"`
	TemperatureC      float64  `json:"temperature_c"`
	HumidityPercent   float64  `json:"humidity_percent"`
	AvailableWaterMM  float64  `json:"available_water_mm"`
	SoilType          SoilType `json:"soil_type"`
	CropType          string   `json:"crop_type"`
	LeafImageProvided bool     `json:"leaf_image_provided"`

	FarmerID     string `json:"farmer_id"`
	Region       string `json:"region"`
	GrowingStage string `json:"growing_stage"`

	Context RiskContext `json:"risk_context"`
}

// FarmerMetadata is the descriptive subset of the input echoed back to callers.
type FarmerMetadata struct {
	FarmerID     string   `json:"farmer_id"`
	Region       string   `json:"region"`
	CropType     string   `json:"crop_type"`
	SoilType     SoilType `json:"soil_type"`
	GrowingStage string   `json:"growing_stage"`
}

// Metadata returns the farmer metadata view of the input.
func (in NormalizedInput) Metadata() FarmerMetadata {
	return FarmerMetadata{
		FarmerID:     in.FarmerID,
		Region:       in.Region,
		CropType:     in.CropType,
		SoilType:     in.SoilType,
		GrowingStage: in.GrowingStage,
	}
}

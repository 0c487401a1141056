// Package disease scores disease pressure from environmental conditions and
// an optional visual inspection estimate.
package disease

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

const imageRecommendation = "Consider providing leaf images for more accurate disease detection"

var levelRecommendations = map[model.RiskLevel][]string{
	model.RiskHigh: {
		"URGENT: Inspect crops immediately for disease symptoms",
		"Consider preventive fungicide application if available",
		"Improve air circulation around plants",
		"Avoid overhead watering to reduce leaf wetness",
	},
	model.RiskMedium: {
		"Monitor crops closely for early disease symptoms",
		"Ensure good field drainage",
		"Consider preventive measures if weather continues",
	},
	model.RiskLow: {
		"Continue regular crop monitoring",
		"Maintain good agricultural practices",
	},
}

// Scorer estimates disease risk for a normalized input.
type Scorer struct {
	cfg       config.EngineConfig
	inspector VisualInspector
}

// New returns a Scorer using the placeholder visual inspector.
func New(cfg config.EngineConfig) *Scorer {
	return &Scorer{cfg: cfg, inspector: PlaceholderInspector{}}
}

// WithInspector returns a copy of s that uses v for leaf observations.
func (s *Scorer) WithInspector(v VisualInspector) *Scorer {
	c := *s
	c.inspector = v
	return &c
}

type assessment struct {
	risks      []string
	protective []string
	recs       []string
}

// Score computes the disease risk level and score.
func (s *Scorer) Score(in model.NormalizedInput) (*model.DiseaseResult, error) {
	dc := s.cfg.Disease
	var a assessment

	env := s.humidityRisk(in.HumidityPercent, &a)*dc.HumidityWeight +
		s.temperatureRisk(in.TemperatureC, &a)*dc.TemperatureWeight +
		s.rainfallRisk(in.RainfallMM, &a)*dc.RainfallWeight +
		dc.BasePresence
	env = round(env, 6)

	combined := env
	if in.LeafImageProvided {
		if s.inspector == nil {
			return nil, eris.New("disease: no visual inspector configured")
		}
		est := s.inspector.Inspect(env)
		for _, f := range est.Findings {
			a.risks = append(a.risks, "Visual inspection: "+f)
		}
		visual := clamp01(est.Risk)
		if visual > dc.DiagnosisThreshold {
			a.recs = append(a.recs, "Consider consulting agricultural extension officer for professional disease diagnosis")
		}
		combined = env*dc.EnvironmentalShare + visual*(1-dc.EnvironmentalShare)
	} else {
		a.recs = append(a.recs, imageRecommendation)
	}

	score := math.Min(combined+s.cropAdjustment(in, &a), 1)
	score = clamp01(score + dc.ConservativeBuffer)
	if math.IsNaN(score) {
		return nil, eris.New("disease: non-finite score")
	}
	score = round(score, 2)
	level := s.cfg.RiskBands.Level(score)

	a.recs = append(a.recs, levelRecommendations[level]...)
	a.recs = append(a.recs, s.environmentRecommendations(in)...)

	return &model.DiseaseResult{
		RiskLevel:         level,
		RiskScore:         score,
		VisualInspection:  in.LeafImageProvided,
		RiskFactors:       a.risks,
		ProtectiveFactors: a.protective,
		Explanation:       explain(level, score, in.LeafImageProvided, a),
		Recommendations:   a.recs,
	}, nil
}

func (s *Scorer) humidityRisk(h float64, a *assessment) float64 {
	b := s.cfg.Humidity
	switch {
	case h >= b.DiseaseRisk:
		a.risks = append(a.risks, fmt.Sprintf("Very high humidity (%g%%) creates ideal conditions for fungal diseases", h))
		return 0.8
	case h > b.OptimalMax:
		a.risks = append(a.risks, fmt.Sprintf("High humidity (%g%%) increases disease risk", h))
		return 0.6
	case h >= b.OptimalMin:
		a.protective = append(a.protective, fmt.Sprintf("Moderate humidity (%g%%) is within acceptable range", h))
		return 0.2
	default:
		a.protective = append(a.protective, fmt.Sprintf("Low humidity (%g%%) reduces fungal disease risk", h))
		return 0.1
	}
}

func (s *Scorer) temperatureRisk(t float64, a *assessment) float64 {
	b := s.cfg.Temperature
	switch {
	case t < b.CriticalLow:
		a.protective = append(a.protective, fmt.Sprintf("Very low temperature (%g°C) inhibits most pathogens", t))
		return 0.1
	case t < b.OptimalMin:
		a.protective = append(a.protective, fmt.Sprintf("Cool temperature (%g°C) slows pathogen development", t))
		return 0.2
	case t <= b.OptimalMax:
		a.risks = append(a.risks, fmt.Sprintf("Optimal temperature (%g°C) favors pathogen activity", t))
		return 0.6
	case t < b.CriticalHigh:
		a.risks = append(a.risks, fmt.Sprintf("Warm temperature (%g°C) may stress plants, increasing susceptibility", t))
		return 0.5
	default:
		a.protective = append(a.protective, fmt.Sprintf("Very high temperature (%g°C) inhibits many pathogens", t))
		return 0.3
	}
}

func (s *Scorer) rainfallRisk(r float64, a *assessment) float64 {
	b := s.cfg.Rainfall
	switch {
	case r >= b.High:
		a.risks = append(a.risks, fmt.Sprintf("Heavy rainfall (%gmm) creates wet conditions favoring disease spread", r))
		return 0.8
	case r >= b.Medium:
		a.risks = append(a.risks, fmt.Sprintf("Moderate rainfall (%gmm) increases moisture-related disease risk", r))
		return 0.5
	case r > 0:
		a.protective = append(a.protective, fmt.Sprintf("Light rainfall (%gmm) provides moisture without excess", r))
		return 0.2
	default:
		a.protective = append(a.protective, "No recent rainfall reduces moisture-related disease risk")
		return 0.1
	}
}

// cropAdjustment adds the crop's known disease pressure when its trigger
// conditions hold.
func (s *Scorer) cropAdjustment(in model.NormalizedInput, a *assessment) float64 {
	dc := s.cfg.Disease
	p, ok := dc.Patterns[in.CropType]
	if !ok {
		return dc.UnknownCropAdjustment
	}

	var matched bool
	switch p.Trigger {
	case config.TriggerHighHumidity:
		matched = in.HumidityPercent > s.cfg.Humidity.DiseaseRisk
	case config.TriggerModerateTemperature:
		matched = s.cfg.Temperature.Optimal(in.TemperatureC)
	case config.TriggerCoolWet:
		matched = in.TemperatureC < s.cfg.Temperature.OptimalMin && in.RainfallMM > s.cfg.Rainfall.Medium
	}
	if !matched {
		return 0
	}
	a.risks = append(a.risks, fmt.Sprintf("%s is %s", model.Title(in.CropType), p.Description))
	return math.Min(p.Risk, dc.CropAdjustmentCap)
}

func (s *Scorer) environmentRecommendations(in model.NormalizedInput) []string {
	var recs []string
	if in.HumidityPercent > s.cfg.Humidity.DiseaseRisk {
		recs = append(recs, "Improve field ventilation to reduce humidity")
	}
	if in.RainfallMM > s.cfg.Rainfall.High {
		recs = append(recs,
			"Ensure proper field drainage",
			"Avoid working in wet fields to prevent disease spread",
		)
	}
	if s.cfg.Temperature.Optimal(in.TemperatureC) && in.HumidityPercent > s.cfg.Humidity.OptimalMax {
		recs = append(recs, "Current conditions favor disease development - increase monitoring frequency")
	}
	return recs
}

func explain(level model.RiskLevel, score float64, image bool, a assessment) string {
	parts := []string{fmt.Sprintf("Disease risk assessment: %s (%.2f/1.0).", level, score)}
	if image {
		parts = append(parts, "Assessment based on environmental conditions and simulated visual inspection.")
	} else {
		parts = append(parts, "Assessment based on environmental conditions only.")
	}
	if len(a.risks) > 0 {
		parts = append(parts, "Risk factors identified:")
		for _, f := range a.risks {
			parts = append(parts, "• "+f)
		}
	}
	if len(a.protective) > 0 {
		parts = append(parts, "Protective factors:")
		for _, f := range a.protective {
			parts = append(parts, "• "+f)
		}
	}
	parts = append(parts, "Note: Assessment uses conservative estimates to prioritize early disease detection and crop protection.")
	return strings.Join(parts, " ")
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

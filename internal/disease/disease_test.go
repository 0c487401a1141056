package disease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

func TestScore_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		in        model.NormalizedInput
		wantLevel model.RiskLevel
		wantScore float64
	}{
		{
			// env 0.40, visual 0.30, combined 0.36, wheat +0.10, buffer +0.10
			name: "wheat with leaf image",
			in: model.NormalizedInput{
				RainfallMM: 25, TemperatureC: 26, HumidityPercent: 65,
				CropType: "wheat", LeafImageProvided: true,
			},
			wantLevel: model.RiskLow,
			wantScore: 0.56,
		},
		{
			// env 0.76, rice +0.15, buffer +0.10, capped
			name: "flooded rice",
			in: model.NormalizedInput{
				RainfallMM: 150, TemperatureC: 28, HumidityPercent: 90,
				CropType: "rice",
			},
			wantLevel: model.RiskHigh,
			wantScore: 1.0,
		},
		{
			// env 0.08 + 0.15 + 0.04 + 0.10 = 0.37, unknown crop +0.05, buffer +0.10
			name: "dry heat on unknown crop",
			in: model.NormalizedInput{
				RainfallMM: 5, TemperatureC: 32, HumidityPercent: 45,
				CropType: "quinoa",
			},
			wantLevel: model.RiskLow,
			wantScore: 0.52,
		},
		{
			// env 0.32 + 0.06 + 0.16 + 0.10 = 0.64, potato +0.20, buffer +0.10
			name: "cool wet potato",
			in: model.NormalizedInput{
				RainfallMM: 120, TemperatureC: 10, HumidityPercent: 85,
				CropType: "potato",
			},
			wantLevel: model.RiskHigh,
			wantScore: 0.94,
		},
		{
			// env 0.32 + 0.18 + 0.04 + 0.10 = 0.64, tomato +0.18, buffer +0.10
			name: "humid tomato",
			in: model.NormalizedInput{
				RainfallMM: 20, TemperatureC: 24, HumidityPercent: 85,
				CropType: "tomato",
			},
			wantLevel: model.RiskHigh,
			wantScore: 0.92,
		},
	}

	s := New(config.DefaultEngineConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Score(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, res.RiskLevel)
			assert.InDelta(t, tt.wantScore, res.RiskScore, 0.001)
			assert.Equal(t, tt.in.LeafImageProvided, res.VisualInspection)
		})
	}
}

func TestScore_BoundsAndBands(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	s := New(cfg)

	for _, crop := range []string{"rice", "wheat", "cotton", "tomato", "potato", "millet"} {
		for _, hum := range []float64{0, 39, 40, 70, 71, 80, 100} {
			for _, temp := range []float64{-20, 4, 10, 20, 35, 45} {
				for _, rain := range []float64{0, 1, 50, 100, 400} {
					for _, img := range []bool{false, true} {
						res, err := s.Score(model.NormalizedInput{
							RainfallMM: rain, TemperatureC: temp, HumidityPercent: hum,
							CropType: crop, LeafImageProvided: img,
						})
						require.NoError(t, err)
						assert.GreaterOrEqual(t, res.RiskScore, 0.0)
						assert.LessOrEqual(t, res.RiskScore, 1.0)
						if res.RiskScore >= cfg.RiskBands.High {
							assert.Equal(t, model.RiskHigh, res.RiskLevel)
						} else if res.RiskScore >= cfg.RiskBands.Medium {
							assert.Equal(t, model.RiskMedium, res.RiskLevel)
						} else {
							assert.Equal(t, model.RiskLow, res.RiskLevel)
						}
						assert.NotEmpty(t, res.Recommendations)
					}
				}
			}
		}
	}
}

func TestScore_ImageRecommendation(t *testing.T) {
	s := New(config.DefaultEngineConfig())
	in := model.NormalizedInput{RainfallMM: 25, TemperatureC: 26, HumidityPercent: 65, CropType: "wheat"}

	res, err := s.Score(in)
	require.NoError(t, err)
	assert.Equal(t, imageRecommendation, res.Recommendations[0])
	assert.Contains(t, res.Explanation, "Assessment based on environmental conditions only.")

	in.LeafImageProvided = true
	res, err = s.Score(in)
	require.NoError(t, err)
	assert.NotContains(t, res.Recommendations, imageRecommendation)
	assert.Contains(t, res.RiskFactors, "Visual inspection: No obvious disease symptoms detected in leaf image")
}

func TestScore_HighRiskRecommendations(t *testing.T) {
	s := New(config.DefaultEngineConfig())
	res, err := s.Score(model.NormalizedInput{
		RainfallMM: 150, TemperatureC: 28, HumidityPercent: 90,
		CropType: "rice", LeafImageProvided: true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.RiskHigh, res.RiskLevel)
	assert.Contains(t, res.Recommendations, "Consider consulting agricultural extension officer for professional disease diagnosis")
	assert.Contains(t, res.Recommendations, "URGENT: Inspect crops immediately for disease symptoms")
	assert.Contains(t, res.Recommendations, "Improve field ventilation to reduce humidity")
	assert.Contains(t, res.Recommendations, "Avoid working in wet fields to prevent disease spread")
	assert.Contains(t, res.RiskFactors, "Rice is susceptible to fungal diseases in wet conditions")
}

type fixedInspector struct{ risk float64 }

func (f fixedInspector) Inspect(float64) VisualEstimate {
	return VisualEstimate{Risk: f.risk, Findings: []string{"fixed"}}
}

func TestScore_CustomInspector(t *testing.T) {
	base := New(config.DefaultEngineConfig())
	in := model.NormalizedInput{
		RainfallMM: 25, TemperatureC: 26, HumidityPercent: 65,
		CropType: "wheat", LeafImageProvided: true,
	}

	low, err := base.WithInspector(fixedInspector{risk: 0}).Score(in)
	require.NoError(t, err)
	high, err := base.WithInspector(fixedInspector{risk: 1}).Score(in)
	require.NoError(t, err)

	// 0.40 env share of 0.6, wheat +0.10, buffer +0.10
	assert.InDelta(t, 0.44, low.RiskScore, 0.001)
	assert.InDelta(t, 0.84, high.RiskScore, 0.001)
	assert.Contains(t, high.RiskFactors, "Visual inspection: fixed")

	// The base scorer keeps the placeholder.
	orig, err := base.Score(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.56, orig.RiskScore, 0.001)
}

func TestPlaceholderInspector(t *testing.T) {
	tests := []struct {
		env      float64
		want     float64
		findings int
	}{
		{0.9, 1.0, 3},
		{0.71, 0.91, 3},
		{0.5, 0.6, 2},
		{0.4, 0.3, 1},
		{0.05, 0, 1},
	}
	for _, tt := range tests {
		est := PlaceholderInspector{}.Inspect(tt.env)
		assert.InDelta(t, tt.want, est.Risk, 0.0001)
		assert.Len(t, est.Findings, tt.findings)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := New(config.DefaultEngineConfig())
	in := model.NormalizedInput{RainfallMM: 60, TemperatureC: 22, HumidityPercent: 75, CropType: "cotton", LeafImageProvided: true}

	a, err := s.Score(in)
	require.NoError(t, err)
	b, err := s.Score(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

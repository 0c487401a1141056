package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type yieldFunc func(model.NormalizedInput) (*model.YieldResult, error)

func (f yieldFunc) Score(in model.NormalizedInput) (*model.YieldResult, error) { return f(in) }

type diseaseFunc func(model.NormalizedInput) (*model.DiseaseResult, error)

func (f diseaseFunc) Score(in model.NormalizedInput) (*model.DiseaseResult, error) { return f(in) }

type irrigationFunc func(model.NormalizedInput) (*model.IrrigationResult, error)

func (f irrigationFunc) Optimize(in model.NormalizedInput) (*model.IrrigationResult, error) {
	return f(in)
}

type rulesFunc func(model.NormalizedInput, model.YieldResult, model.DiseaseResult) (*model.DecisionResult, error)

func (f rulesFunc) Decide(in model.NormalizedInput, y model.YieldResult, d model.DiseaseResult) (*model.DecisionResult, error) {
	return f(in, y, d)
}

type riskFunc func(model.NormalizedInput, model.YieldResult, model.DiseaseResult, model.IrrigationResult) (*model.RiskAssessment, error)

func (f riskFunc) Aggregate(in model.NormalizedInput, y model.YieldResult, d model.DiseaseResult, ir model.IrrigationResult) (*model.RiskAssessment, error) {
	return f(in, y, d, ir)
}

var fixedNow = time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func wheatField() map[string]any {
	return map[string]any{
		"rainfall_mm":         25,
		"temperature_c":       26,
		"humidity_percent":    65,
		"available_water_mm":  60,
		"soil_type":           "loam",
		"crop_type":           "wheat",
		"leaf_image_provided": true,
		"farmer_id":           "F001",
		"region":              "Punjab",
		"growing_stage":       "vegetative",
	}
}

func newEngine(opts ...Option) *Engine {
	return New(config.DefaultEngineConfig(), append([]Option{WithClock(fixedClock)}, opts...)...)
}

func TestRun_WheatProceeds(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		res := newEngine(WithConcurrency(concurrent)).Run(context.Background(), wheatField())
		require.NotNil(t, res)

		assert.Equal(t, model.DecisionProceed, res.FinalDecision)
		assert.Equal(t, model.RiskLow, res.OverallRiskLevel)

		assert.InDelta(t, 64.6, res.YieldSummary.ExpectedYieldPercentage, 0.0001)
		assert.Equal(t, "High", res.YieldSummary.ConfidenceLevel)
		assert.Equal(t, model.RiskLow, res.DiseaseSummary.RiskLevel)
		assert.InDelta(t, 0.56, res.DiseaseSummary.RiskScore, 0.0001)
		assert.Equal(t, "Completed", res.DiseaseSummary.ImageAnalysis)
		assert.InDelta(t, 3.3, res.IrrigationSummary.RecommendedIrrigationMM, 0.0001)
		assert.Equal(t, 5, res.IrrigationSummary.FrequencyDays)
		assert.InDelta(t, 0.523, res.RiskSummary.OverallRiskScore, 0.0001)

		assert.Equal(t, model.SystemStatusOK, res.TechnicalDetails.SystemStatus)
		assert.Empty(t, res.TechnicalDetails.RiskFactors)
		assert.InDelta(t, 0.815, res.TechnicalDetails.ConfidenceMetrics.OverallSystemConfidence, 0.0001)
		assert.Equal(t, "F001", res.TechnicalDetails.FarmerMetadata.FarmerID)

		assert.Contains(t, res.Explanation, "You can proceed with Wheat farming using standard practices.")
		assert.Contains(t, res.Explanation, "Overall risk level is low.")
		assert.Contains(t, res.Explanation, "Expected yield is 65% of maximum potential with high confidence.")
		assert.Contains(t, res.Explanation, "Current conditions: 26.0°C temperature, 25.0mm recent rainfall, 60.0mm water available for irrigation.")
		assert.Contains(t, res.Recommendations, "Proceed with standard farming practices")

		assert.Empty(t, res.ProcessingInfo.Errors)
		assert.Empty(t, res.ProcessingInfo.Warnings)
		assert.Equal(t, Version, res.ProcessingInfo.EngineVersion)
		assert.NotEmpty(t, res.ProcessingInfo.RequestID)
		assert.Equal(t, fixedNow, res.ProcessingInfo.Timestamp)
	}
}

func TestRun_StepLog(t *testing.T) {
	res := newEngine().Run(context.Background(), wheatField())

	var names []string
	for _, s := range res.ProcessingInfo.Steps {
		names = append(names, s.Name)
		assert.Equal(t, model.StepStatusComplete, s.Status)
		assert.Empty(t, s.Error)
	}
	assert.Equal(t, []string{
		"input_validation",
		"yield_prediction",
		"disease_detection",
		"irrigation_optimization",
		"decision_making",
		"risk_assessment",
		"result_consolidation",
	}, names)
}

func TestRun_EmptyInputAvoids(t *testing.T) {
	res := newEngine().Run(context.Background(), map[string]any{})

	assert.Equal(t, model.DecisionAvoidFarming, res.FinalDecision)
	assert.Equal(t, model.RiskHigh, res.OverallRiskLevel)
	assert.InDelta(t, 53.9, res.YieldSummary.ExpectedYieldPercentage, 0.0001)
	assert.Equal(t, "Very Low", res.YieldSummary.ConfidenceLevel)
	assert.Equal(t, "Not available", res.DiseaseSummary.ImageAnalysis)
	assert.NotEmpty(t, res.ProcessingInfo.Warnings)
	assert.Empty(t, res.ProcessingInfo.Errors)
	assert.Contains(t, res.TechnicalDetails.RiskFactors, "Low yield prediction confidence (0.35)")
}

func TestRun_StageFallbacks(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		opt       Option
		wantError string
		wantWarn  string
		check     func(t *testing.T, res *model.ConsolidatedResult)
	}{
		{
			name: "yield error",
			opt: WithYieldScorer(yieldFunc(func(model.NormalizedInput) (*model.YieldResult, error) {
				return nil, boom
			})),
			wantError: "Yield prediction failed: boom",
			wantWarn:  "Using conservative fallback yield estimates",
			check: func(t *testing.T, res *model.ConsolidatedResult) {
				assert.Equal(t, 30.0, res.YieldSummary.ExpectedYieldPercentage)
				assert.Equal(t, 0.3, res.YieldSummary.ConfidenceScore)
				assert.Contains(t, res.TechnicalDetails.YieldAnalysis.Explanation, "Yield prediction unavailable (boom)")
				assert.Equal(t, model.DecisionAvoidFarming, res.FinalDecision)
				assert.InDelta(t, 0.51, res.TechnicalDetails.ConfidenceMetrics.OverallSystemConfidence, 0.0001)
			},
		},
		{
			name: "disease panic",
			opt: WithDiseaseScorer(diseaseFunc(func(model.NormalizedInput) (*model.DiseaseResult, error) {
				panic("inspector crashed")
			})),
			wantError: "inspector crashed",
			wantWarn:  "Using conservative fallback disease risk estimates",
			check: func(t *testing.T, res *model.ConsolidatedResult) {
				assert.True(t, strings.HasPrefix(res.ProcessingInfo.Errors[0], "Disease detection failed: "))
				assert.Equal(t, model.RiskMedium, res.DiseaseSummary.RiskLevel)
				assert.Equal(t, 0.6, res.DiseaseSummary.RiskScore)
				assert.Contains(t, res.Recommendations, "Monitor crops closely for disease symptoms")
				assert.Contains(t, res.TechnicalDetails.RiskFactors, "medium disease risk")
			},
		},
		{
			name: "irrigation nil result",
			opt: WithIrrigationOptimizer(irrigationFunc(func(model.NormalizedInput) (*model.IrrigationResult, error) {
				return nil, nil
			})),
			wantError: "stage returned no result",
			wantWarn:  "Using conservative fallback irrigation estimates",
			check: func(t *testing.T, res *model.ConsolidatedResult) {
				assert.True(t, strings.HasPrefix(res.ProcessingInfo.Errors[0], "Irrigation optimization failed: "))
				assert.Equal(t, 0.0, res.IrrigationSummary.RecommendedIrrigationMM)
				assert.Equal(t, model.RiskHigh, res.IrrigationSummary.WaterStressLevel)
			},
		},
		{
			name: "decision error",
			opt: WithDecisionRules(rulesFunc(func(model.NormalizedInput, model.YieldResult, model.DiseaseResult) (*model.DecisionResult, error) {
				return nil, boom
			})),
			wantError: "Decision making failed: boom",
			wantWarn:  "Using conservative fallback decision",
			check: func(t *testing.T, res *model.ConsolidatedResult) {
				assert.Equal(t, model.DecisionReduceInputs, res.FinalDecision)
				assert.Equal(t, model.RiskHigh, res.OverallRiskLevel)
				assert.Contains(t, res.TechnicalDetails.RiskFactors, "SAFETY: Reduced inputs minimize potential losses")
				assert.NotContains(t, res.TechnicalDetails.RiskFactors, "FALLBACK: System error requires conservative approach")
				assert.Equal(t, "Proceed with caution and reduced investment", res.Recommendations[0])
			},
		},
		{
			name: "risk error",
			opt: WithRiskAggregator(riskFunc(func(model.NormalizedInput, model.YieldResult, model.DiseaseResult, model.IrrigationResult) (*model.RiskAssessment, error) {
				return nil, boom
			})),
			wantError: "Risk assessment failed: boom",
			wantWarn:  "Using conservative fallback risk assessment",
			check: func(t *testing.T, res *model.ConsolidatedResult) {
				assert.Equal(t, model.DecisionProceed, res.FinalDecision)
				assert.Equal(t, model.RiskHigh, res.OverallRiskLevel)
				assert.Equal(t, 0.85, res.RiskSummary.OverallRiskScore)
				assert.Equal(t, 0.1, res.RiskSummary.AssessmentConfidence)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, concurrent := range []bool{false, true} {
				res := newEngine(tt.opt, WithConcurrency(concurrent)).Run(context.Background(), wheatField())
				require.NotNil(t, res)

				require.Len(t, res.ProcessingInfo.Errors, 1)
				assert.Contains(t, res.ProcessingInfo.Errors[0], tt.wantError)
				assert.Contains(t, res.ProcessingInfo.Warnings, tt.wantWarn)
				assert.Equal(t, model.SystemStatusDegraded, res.TechnicalDetails.SystemStatus)

				var failed int
				for _, s := range res.ProcessingInfo.Steps {
					if s.Status == model.StepStatusFailed {
						failed++
					}
				}
				assert.Equal(t, 1, failed)
				tt.check(t, res)
			}
		})
	}
}

func TestRun_AllStagesFail(t *testing.T) {
	boom := errors.New("boom")
	res := newEngine(
		WithYieldScorer(yieldFunc(func(model.NormalizedInput) (*model.YieldResult, error) { return nil, boom })),
		WithDiseaseScorer(diseaseFunc(func(model.NormalizedInput) (*model.DiseaseResult, error) { return nil, boom })),
		WithIrrigationOptimizer(irrigationFunc(func(model.NormalizedInput) (*model.IrrigationResult, error) { return nil, boom })),
		WithDecisionRules(rulesFunc(func(model.NormalizedInput, model.YieldResult, model.DiseaseResult) (*model.DecisionResult, error) {
			return nil, boom
		})),
		WithRiskAggregator(riskFunc(func(model.NormalizedInput, model.YieldResult, model.DiseaseResult, model.IrrigationResult) (*model.RiskAssessment, error) {
			return nil, boom
		})),
	).Run(context.Background(), wheatField())

	assert.Equal(t, model.DecisionReduceInputs, res.FinalDecision)
	assert.Equal(t, model.RiskHigh, res.OverallRiskLevel)
	assert.Len(t, res.ProcessingInfo.Errors, 5)
	assert.Equal(t, 0.1, res.TechnicalDetails.ConfidenceMetrics.OverallSystemConfidence)
}

func TestRun_EmergencyFallback(t *testing.T) {
	res := newEngine(WithDecisionRules(rulesFunc(func(model.NormalizedInput, model.YieldResult, model.DiseaseResult) (*model.DecisionResult, error) {
		return &model.DecisionResult{Decision: "MAYBE", RiskLevel: model.RiskLow}, nil
	}))).Run(context.Background(), wheatField())

	assert.Equal(t, model.DecisionAvoidFarming, res.FinalDecision)
	assert.Equal(t, model.RiskHigh, res.OverallRiskLevel)
	assert.Equal(t, "System Error", res.DiseaseSummary.ImageAnalysis)
	assert.Equal(t, "Very Low", res.YieldSummary.ConfidenceLevel)
	assert.Equal(t, emergencyExplanation, res.Explanation)
	assert.Equal(t, emergencyRecommendations, res.Recommendations)
	assert.Equal(t, model.SystemStatusCriticalError, res.TechnicalDetails.SystemStatus)
	require.Len(t, res.TechnicalDetails.ErrorDetails, 1)
	assert.True(t, strings.HasPrefix(res.TechnicalDetails.ErrorDetails[0], "Critical system failure: "))
	assert.Contains(t, res.TechnicalDetails.ErrorDetails[0], `unrecognized decision "MAYBE"`)
	assert.Equal(t, res.TechnicalDetails.ErrorDetails, res.ProcessingInfo.Errors)

	last := res.ProcessingInfo.Steps[len(res.ProcessingInfo.Steps)-1]
	assert.Equal(t, "result_consolidation", last.Name)
	assert.Equal(t, model.StepStatusFailed, last.Status)
}

func TestRun_ConsolidationPanicRecordsStep(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		e := newEngine(WithConcurrency(concurrent))
		e.finish = func(model.NormalizedInput, stageResults, int) (*model.ConsolidatedResult, error) {
			panic("template missing")
		}

		res := e.Run(context.Background(), wheatField())
		require.NotNil(t, res)

		assert.Equal(t, model.DecisionAvoidFarming, res.FinalDecision)
		assert.Equal(t, model.SystemStatusCriticalError, res.TechnicalDetails.SystemStatus)
		require.Len(t, res.ProcessingInfo.Errors, 1)
		assert.True(t, strings.HasPrefix(res.ProcessingInfo.Errors[0], "Critical system failure: "))
		assert.Contains(t, res.ProcessingInfo.Errors[0], "template missing")

		require.Len(t, res.ProcessingInfo.Steps, 7)
		last := res.ProcessingInfo.Steps[6]
		assert.Equal(t, "result_consolidation", last.Name)
		assert.Equal(t, model.StepStatusFailed, last.Status)
		assert.Contains(t, last.Error, "template missing")
	}
}

func TestRun_NeverPanics(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{},
		{"rainfall_mm": "lots"},
		{"temperature_c": math.NaN(), "humidity_percent": math.Inf(1)},
		{"soil_type": 42, "crop_type": nil},
		{"available_water_mm": -5, "rainfall_mm": []int{1, 2}},
		{"leaf_image_provided": "maybe", "growing_stage": map[string]any{}},
	}
	valid := map[model.Decision]bool{
		model.DecisionProceed:      true,
		model.DecisionReduceInputs: true,
		model.DecisionAvoidFarming: true,
	}

	e := newEngine()
	for _, raw := range inputs {
		res := e.Run(context.Background(), raw)
		require.NotNil(t, res)
		assert.True(t, valid[res.FinalDecision])
		assert.Empty(t, res.ProcessingInfo.Errors)
	}
}

func TestRun_ConcurrentMatchesSequential(t *testing.T) {
	ignoreID := cmpopts.IgnoreFields(model.ProcessingInfo{}, "RequestID")
	fields := []map[string]any{
		wheatField(),
		{},
		{"rainfall_mm": 150, "temperature_c": 28, "humidity_percent": 90, "available_water_mm": 100, "soil_type": "CLAY", "crop_type": "rice"},
		{"rainfall_mm": 2, "temperature_c": 35, "humidity_percent": 40, "available_water_mm": 5, "soil_type": "SANDY", "crop_type": "millet"},
	}

	seq := newEngine(WithConcurrency(false))
	par := newEngine(WithConcurrency(true))
	for _, raw := range fields {
		a := seq.Run(context.Background(), raw)
		b := par.Run(context.Background(), raw)
		if diff := cmp.Diff(a, b, ignoreID); diff != "" {
			t.Errorf("concurrent result differs (-seq +par):\n%s", diff)
		}

		again := par.Run(context.Background(), raw)
		if diff := cmp.Diff(b, again, ignoreID); diff != "" {
			t.Errorf("repeat run differs (-first +second):\n%s", diff)
		}
	}
}

func TestRun_SharedEngineAcrossGoroutines(t *testing.T) {
	e := newEngine()
	results := make([]*model.ConsolidatedResult, 16)

	g, ctx := errgroup.WithContext(context.Background())
	for i := range results {
		g.Go(func() error {
			results[i] = e.Run(ctx, wheatField())
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ids := make(map[string]struct{})
	for _, res := range results {
		assert.Equal(t, model.DecisionProceed, res.FinalDecision)
		ids[res.ProcessingInfo.RequestID] = struct{}{}
	}
	assert.Len(t, ids, len(results))
}

func TestValidateInputs(t *testing.T) {
	ok, msg := ValidateInputs(nil)
	assert.False(t, ok)
	assert.Equal(t, "At least some basic farming parameters must be provided", msg)

	ok, msg = ValidateInputs(map[string]any{"crop_type": "rice"})
	assert.True(t, ok)
	assert.Equal(t, "Inputs are acceptable for processing", msg)
}

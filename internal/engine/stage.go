package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/farm-advisor/internal/model"
)

type step int

const (
	stepInput step = iota
	stepYield
	stepDisease
	stepIrrigation
	stepDecision
	stepRisk
	stepConsolidate
	numSteps
)

type stepDef struct {
	name     string
	label    string
	fallback string
}

var steps = [numSteps]stepDef{
	stepInput:       {name: "input_validation", label: "Input validation"},
	stepYield:       {name: "yield_prediction", label: "Yield prediction", fallback: "Using conservative fallback yield estimates"},
	stepDisease:     {name: "disease_detection", label: "Disease detection", fallback: "Using conservative fallback disease risk estimates"},
	stepIrrigation:  {name: "irrigation_optimization", label: "Irrigation optimization", fallback: "Using conservative fallback irrigation estimates"},
	stepDecision:    {name: "decision_making", label: "Decision making", fallback: "Using conservative fallback decision"},
	stepRisk:        {name: "risk_assessment", label: "Risk assessment", fallback: "Using conservative fallback risk assessment"},
	stepConsolidate: {name: "result_consolidation", label: "Result consolidation"},
}

// trace collects the step log of one run. Each step writes only its own
// slot, so concurrent stages need no locking and the assembled trail is
// ordered by step regardless of completion order.
type trace struct {
	requestID string
	now       func() time.Time
	warnings  []string
	slots     [numSteps]*model.StepLog
	errs      [numSteps]error
}

func newTrace(now func() time.Time) *trace {
	return &trace{requestID: uuid.NewString(), now: now, warnings: []string{}}
}

func (t *trace) record(s step, started time.Time, err error) {
	log := &model.StepLog{
		Name:      steps[s].name,
		Status:    model.StepStatusComplete,
		StartedAt: started,
		Duration:  t.now().Sub(started).Milliseconds(),
	}
	if err != nil {
		log.Status = model.StepStatusFailed
		log.Error = err.Error()
		t.errs[s] = err
	}
	t.slots[s] = log
}

func (t *trace) errorCount() int {
	n := 0
	for _, err := range t.errs {
		if err != nil {
			n++
		}
	}
	return n
}

// info assembles the processing trail. A critical error is appended after
// the per-step errors.
func (t *trace) info(start time.Time, critical error) model.ProcessingInfo {
	info := model.ProcessingInfo{
		RequestID:     t.requestID,
		Timestamp:     start,
		EngineVersion: Version,
		Steps:         []model.StepLog{},
		Warnings:      append([]string{}, t.warnings...),
		Errors:        []string{},
		Duration:      t.now().Sub(start).Milliseconds(),
	}
	for s, log := range t.slots {
		if log == nil {
			continue
		}
		info.Steps = append(info.Steps, *log)
		if err := t.errs[s]; err != nil && step(s) != stepConsolidate {
			info.Errors = append(info.Errors, fmt.Sprintf("%s failed: %s", steps[s].label, err))
			info.Warnings = append(info.Warnings, steps[s].fallback)
		}
	}
	if critical != nil {
		info.Errors = append(info.Errors, fmt.Sprintf("Critical system failure: %s", critical))
	}
	return info
}

// runStage calls fn and substitutes fallback when it errors, panics or
// returns nil. Failed stages are never retried.
func runStage[T any](tr *trace, s step, fn func() (*T, error), fallback func(reason string) *T) *T {
	started := tr.now()
	res, err := call(fn)
	tr.record(s, started, err)
	if err == nil {
		return res
	}
	zap.L().Warn("engine: stage failed, using fallback",
		zap.String("request_id", tr.requestID),
		zap.String("stage", steps[s].name),
		zap.Error(err),
	)
	return fallback(err.Error())
}

func call[T any](fn func() (*T, error)) (res *T, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, eris.Errorf("engine: step panicked: %v", p)
		}
	}()
	res, err = fn()
	if err == nil && res == nil {
		err = eris.New("engine: stage returned no result")
	}
	return res, err
}

func fallbackYield(reason string) *model.YieldResult {
	return &model.YieldResult{
		ExpectedYieldPercentage: 30,
		ConfidenceScore:         0.3,
		Explanation: fmt.Sprintf("Yield prediction unavailable (%s). "+
			"Using conservative estimate of 30%% yield with low confidence for safety.", reason),
	}
}

func fallbackDisease(reason string) *model.DiseaseResult {
	return &model.DiseaseResult{
		RiskLevel:   model.RiskMedium,
		RiskScore:   0.6,
		Explanation: fmt.Sprintf("Disease assessment unavailable (%s). Assuming medium disease risk for safety.", reason),
		Recommendations: []string{
			"Monitor crops closely for disease symptoms",
			"Implement preventive disease management practices",
		},
	}
}

func fallbackIrrigation(reason string) *model.IrrigationResult {
	return &model.IrrigationResult{
		RecommendedIrrigationMM: 0,
		WaterStressLevel:        model.RiskHigh,
		Schedule:                model.IrrigationSchedule{OptimalTiming: []string{}},
		WaterSavingTips:         []string{"Check soil moisture manually before irrigating"},
		Explanation: fmt.Sprintf("Irrigation analysis unavailable (%s). "+
			"No irrigation amount is recommended and water stress is assumed high for safety.", reason),
	}
}

func fallbackDecision(reason string) *model.DecisionResult {
	return &model.DecisionResult{
		Decision:  model.DecisionReduceInputs,
		RiskLevel: model.RiskHigh,
		Explanation: fmt.Sprintf("Decision analysis unavailable (%s). "+
			"Recommending conservative approach with reduced inputs for farmer safety.", reason),
		Reasoning: []model.Reason{
			{Kind: model.ReasonFallback, Message: "System error requires conservative approach"},
			{Kind: model.ReasonSafety, Message: "Reduced inputs minimize potential losses"},
		},
		Recommendations: []string{
			"Proceed with caution and reduced investment",
			"Consult local agricultural extension officer",
			"Monitor conditions closely",
		},
	}
}

func fallbackRisk(reason string) *model.RiskAssessment {
	return &model.RiskAssessment{
		OverallRiskScore:      0.85,
		OverallRiskLevel:      model.RiskHigh,
		Breakdown:             map[string]model.RiskComponent{},
		MitigationSuggestions: []string{"Consult local agricultural extension officer before investing"},
		AssessmentConfidence:  0.1,
		Explanation:           fmt.Sprintf("Risk assessment unavailable (%s). Assuming high overall risk for safety.", reason),
	}
}

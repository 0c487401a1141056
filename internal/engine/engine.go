// Package engine orchestrates the decision stages for one field record and
// consolidates their outputs into a single farmer-facing result.
package engine

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/decision"
	"github.com/sells-group/farm-advisor/internal/disease"
	"github.com/sells-group/farm-advisor/internal/irrigation"
	"github.com/sells-group/farm-advisor/internal/model"
	"github.com/sells-group/farm-advisor/internal/normalize"
	"github.com/sells-group/farm-advisor/internal/risk"
	"github.com/sells-group/farm-advisor/internal/yield"
)

// Version is reported in every ProcessingInfo.
const Version = "1.0"

// YieldScorer estimates expected yield.
type YieldScorer interface {
	Score(in model.NormalizedInput) (*model.YieldResult, error)
}

// DiseaseScorer estimates disease pressure.
type DiseaseScorer interface {
	Score(in model.NormalizedInput) (*model.DiseaseResult, error)
}

// IrrigationOptimizer sizes irrigation.
type IrrigationOptimizer interface {
	Optimize(in model.NormalizedInput) (*model.IrrigationResult, error)
}

// DecisionRules turns yield and disease results into a decision.
type DecisionRules interface {
	Decide(in model.NormalizedInput, y model.YieldResult, d model.DiseaseResult) (*model.DecisionResult, error)
}

// RiskAggregator combines stage results into an overall risk.
type RiskAggregator interface {
	Aggregate(in model.NormalizedInput, y model.YieldResult, d model.DiseaseResult, ir model.IrrigationResult) (*model.RiskAssessment, error)
}

// Engine runs the decision pipeline. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	cfg        config.EngineConfig
	yield      YieldScorer
	disease    DiseaseScorer
	irrigation IrrigationOptimizer
	rules      DecisionRules
	risk       RiskAggregator
	now        func() time.Time
	concurrent bool

	// finish assembles the final result; swapped only in tests.
	finish func(model.NormalizedInput, stageResults, int) (*model.ConsolidatedResult, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithYieldScorer replaces the yield stage.
func WithYieldScorer(s YieldScorer) Option { return func(e *Engine) { e.yield = s } }

// WithDiseaseScorer replaces the disease stage.
func WithDiseaseScorer(s DiseaseScorer) Option { return func(e *Engine) { e.disease = s } }

// WithIrrigationOptimizer replaces the irrigation stage.
func WithIrrigationOptimizer(o IrrigationOptimizer) Option {
	return func(e *Engine) { e.irrigation = o }
}

// WithDecisionRules replaces the decision stage.
func WithDecisionRules(r DecisionRules) Option { return func(e *Engine) { e.rules = r } }

// WithRiskAggregator replaces the risk stage.
func WithRiskAggregator(a RiskAggregator) Option { return func(e *Engine) { e.risk = a } }

// WithClock sets the time source used for timestamps and durations.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithConcurrency toggles the parallel stage graph.
func WithConcurrency(on bool) Option { return func(e *Engine) { e.concurrent = on } }

// New builds an Engine with the default stages for cfg.
func New(cfg config.EngineConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		yield:      yield.New(cfg),
		disease:    disease.New(cfg),
		irrigation: irrigation.New(cfg),
		rules:      decision.New(cfg),
		risk:       risk.New(cfg),
		now:        time.Now,
		concurrent: cfg.ConcurrentStages,
	}
	e.finish = e.consolidate
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the thresholds the engine was built with.
func (e *Engine) Config() config.EngineConfig { return e.cfg }

// ValidateInputs reports whether raw carries enough to be worth processing.
func ValidateInputs(raw map[string]any) (bool, string) {
	return normalize.ValidateEngineInputs(raw)
}

// stageResults holds the output of every stage, fallback or not.
type stageResults struct {
	yield      *model.YieldResult
	disease    *model.DiseaseResult
	irrigation *model.IrrigationResult
	decision   *model.DecisionResult
	risk       *model.RiskAssessment
}

// Run executes the pipeline for raw. It never returns nil and never panics:
// stage failures are replaced by conservative fallbacks and a consolidation
// failure or panic yields the emergency result with a failed consolidation
// step.
func (e *Engine) Run(ctx context.Context, raw map[string]any) (res *model.ConsolidatedResult) {
	start := e.now()
	tr := newTrace(e.now)
	log := zap.L().With(zap.String("request_id", tr.requestID))
	log.Debug("engine: run started", zap.Bool("concurrent", e.concurrent))

	var in *model.NormalizedInput
	defer func() {
		if p := recover(); p != nil {
			err := eris.Errorf("engine: critical failure: %v", p)
			log.Error("engine: emergency fallback", zap.Error(err))
			res = emergencyResult(in, tr.info(start, err))
		}
	}()

	normStart := e.now()
	normalized, warnings := normalize.Normalize(raw, e.cfg)
	in = &normalized
	tr.warnings = append(tr.warnings, warnings...)
	tr.record(stepInput, normStart, nil)

	var s stageResults
	if e.concurrent {
		e.runConcurrent(ctx, tr, normalized, &s)
	} else {
		e.runSequential(tr, normalized, &s)
	}

	consStart := e.now()
	out, err := call(func() (*model.ConsolidatedResult, error) {
		return e.finish(normalized, s, tr.errorCount())
	})
	tr.record(stepConsolidate, consStart, err)
	if err != nil {
		log.Error("engine: consolidation failed", zap.Error(err))
		return emergencyResult(in, tr.info(start, err))
	}
	out.ProcessingInfo = tr.info(start, nil)

	log.Info("engine: run complete",
		zap.String("decision", string(out.FinalDecision)),
		zap.String("risk_level", string(out.OverallRiskLevel)),
		zap.Int("errors", len(out.ProcessingInfo.Errors)),
		zap.Int64("duration_ms", out.ProcessingInfo.Duration),
	)
	return out
}

func (e *Engine) runSequential(tr *trace, in model.NormalizedInput, s *stageResults) {
	s.yield = e.runYield(tr, in)
	s.disease = e.runDisease(tr, in)
	s.irrigation = e.runIrrigation(tr, in)
	s.decision = e.runDecision(tr, in, s)
	s.risk = e.runRisk(tr, in, s)
}

// runConcurrent evaluates the independent stages in parallel, then the two
// dependent stages in parallel. Stage failures never reach the errgroup.
func (e *Engine) runConcurrent(ctx context.Context, tr *trace, in model.NormalizedInput, s *stageResults) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { s.yield = e.runYield(tr, in); return nil })
	g.Go(func() error { s.disease = e.runDisease(tr, in); return nil })
	g.Go(func() error { s.irrigation = e.runIrrigation(tr, in); return nil })
	_ = g.Wait()

	g, _ = errgroup.WithContext(ctx)
	g.Go(func() error { s.decision = e.runDecision(tr, in, s); return nil })
	g.Go(func() error { s.risk = e.runRisk(tr, in, s); return nil })
	_ = g.Wait()
}

func (e *Engine) runYield(tr *trace, in model.NormalizedInput) *model.YieldResult {
	return runStage(tr, stepYield, func() (*model.YieldResult, error) {
		return e.yield.Score(in)
	}, fallbackYield)
}

func (e *Engine) runDisease(tr *trace, in model.NormalizedInput) *model.DiseaseResult {
	return runStage(tr, stepDisease, func() (*model.DiseaseResult, error) {
		return e.disease.Score(in)
	}, fallbackDisease)
}

func (e *Engine) runIrrigation(tr *trace, in model.NormalizedInput) *model.IrrigationResult {
	return runStage(tr, stepIrrigation, func() (*model.IrrigationResult, error) {
		return e.irrigation.Optimize(in)
	}, fallbackIrrigation)
}

func (e *Engine) runDecision(tr *trace, in model.NormalizedInput, s *stageResults) *model.DecisionResult {
	return runStage(tr, stepDecision, func() (*model.DecisionResult, error) {
		return e.rules.Decide(in, *s.yield, *s.disease)
	}, fallbackDecision)
}

func (e *Engine) runRisk(tr *trace, in model.NormalizedInput, s *stageResults) *model.RiskAssessment {
	return runStage(tr, stepRisk, func() (*model.RiskAssessment, error) {
		return e.risk.Aggregate(in, *s.yield, *s.disease, *s.irrigation)
	}, fallbackRisk)
}

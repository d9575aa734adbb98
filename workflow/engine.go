package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/contentfactory/analyze"
	"github.com/c360studio/contentfactory/generate"
	"github.com/c360studio/contentfactory/llm"
	"github.com/c360studio/contentfactory/metrics"
	"github.com/c360studio/contentfactory/quality"
)

// defaultMaxTransitions bounds the engine loop so any failure sequence
// settles instead of cycling.
const defaultMaxTransitions = 64

// StateStore checkpoints job state at phase boundaries so a crashed process
// can resume at the last completed phase.
type StateStore interface {
	Save(ctx context.Context, state State) error
	Load(ctx context.Context, jobID string) (State, error)
	List(ctx context.Context) ([]State, error)
}

// PipelineRunner is the multi-pass pipeline surface the engine drives.
// *generate.Pipeline satisfies it.
type PipelineRunner interface {
	Run(ctx context.Context, job generate.Job) (string, error)
}

// Engine executes one job's phases sequentially. Handlers never return
// errors: every failure is captured into the state and routed by the pure
// transition function Next.
type Engine struct {
	client   generate.Generator
	pipeline PipelineRunner
	analyzer analyze.Analyzer
	store    StateStore
	logger   *slog.Logger

	expectations   func(contentType string) quality.Expectations
	reviewTimeout  time.Duration
	maxTransitions int

	now func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStore sets the checkpoint store. Without one the engine runs purely in
// memory.
func WithStore(store StateStore) EngineOption {
	return func(e *Engine) { e.store = store }
}

// WithAnalyzer replaces the default heuristic analyzer.
func WithAnalyzer(a analyze.Analyzer) EngineOption {
	return func(e *Engine) { e.analyzer = a }
}

// WithPipeline replaces the default multi-pass pipeline.
func WithPipeline(p PipelineRunner) EngineOption {
	return func(e *Engine) { e.pipeline = p }
}

// WithEngineLogger sets the logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithExpectations replaces the per-content-type quality expectations.
func WithExpectations(f func(contentType string) quality.Expectations) EngineOption {
	return func(e *Engine) { e.expectations = f }
}

// WithReviewTimeout sets how long a job may wait in human review before the
// sweep escalates it. 0 disables the deadline.
func WithReviewTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.reviewTimeout = d }
}

// WithClock injects the time source for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an Engine around a generation client.
func NewEngine(client generate.Generator, opts ...EngineOption) *Engine {
	e := &Engine{
		client:         client,
		analyzer:       analyze.HeuristicAnalyzer{},
		logger:         slog.Default(),
		expectations:   quality.DefaultExpectations,
		reviewTimeout:  72 * time.Hour,
		maxTransitions: defaultMaxTransitions,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pipeline == nil {
		e.pipeline = generate.NewPipeline(client, generate.WithPipelineLogger(e.logger))
	}
	return e
}

// NewState creates the initial state for a submission.
func (e *Engine) NewState(jobID, document, contentType string) State {
	now := e.now()
	return State{
		JobID:        jobID,
		ContentType:  contentType,
		Document:     document,
		CurrentPhase: PhaseAnalyze,
		PhaseStatus:  StatusRunning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Run drives the state machine until the job settles in finalize or abort,
// or pauses in human review. The returned state is the settled one.
func (e *Engine) Run(ctx context.Context, state State) State {
	for i := 0; i < e.maxTransitions; i++ {
		metrics.PhaseTransitions.WithLabelValues(state.CurrentPhase.String()).Inc()
		e.logger.Info("entering phase",
			"job_id", state.JobID,
			"phase", state.CurrentPhase,
			"retry_count", state.RetryCount,
			"error_count", state.ErrorCount(),
		)

		state = e.handle(ctx, state)
		state.UpdatedAt = e.now()
		e.checkpoint(ctx, state)

		if state.Terminal() || state.Paused() {
			e.settle(state)
			return state
		}

		state.CurrentPhase = Next(state)
		state.PhaseStatus = StatusRunning
	}

	// The cap is generous; reaching it means the policy above is cycling.
	state.LastError = "transition limit reached"
	state.CurrentPhase = PhaseAbort
	state = e.handleAbort(state)
	state.UpdatedAt = e.now()
	e.checkpoint(ctx, state)
	e.settle(state)
	return state
}

func (e *Engine) handle(ctx context.Context, s State) State {
	switch s.CurrentPhase {
	case PhaseAnalyze:
		return e.handleAnalyze(s)
	case PhaseRoute:
		return e.handleRoute(s)
	case PhaseKnowledgeExtraction:
		return e.handleKnowledgeExtraction(ctx, s)
	case PhaseScenarioDesign:
		return e.handleScenarioDesign(ctx, s)
	case PhaseAssessmentCreation:
		return e.handleAssessmentCreation(ctx, s)
	case PhaseScriptGeneration:
		return e.handleScriptGeneration(ctx, s)
	case PhaseQualityCheck:
		return e.handleQualityCheck(s)
	case PhaseHumanReview:
		return e.handleHumanReview(s)
	case PhaseErrorRecovery:
		return e.handleErrorRecovery(s)
	case PhaseFinalize:
		return e.handleFinalize(s)
	case PhaseAbort:
		return e.handleAbort(s)
	default:
		s.LastError = fmt.Sprintf("unknown phase %q", s.CurrentPhase)
		s.PhaseStatus = StatusFailed
		s.CurrentPhase = PhaseAbort
		return e.handleAbort(s)
	}
}

func (e *Engine) handleAnalyze(s State) State {
	s.Analysis = e.analyzer.Analyze(s.Document)
	if s.ContentType == "" {
		s.ContentType = s.Analysis.ContentType
	}
	if len(s.Analysis.Topics) == 0 {
		return e.fail(s, fmt.Errorf("document analysis produced no topics"))
	}
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleRoute(s State) State {
	e.logger.Info("routed job",
		"job_id", s.JobID,
		"content_type", s.ContentType,
		"entry_phase", entryPhase(s.ContentType),
	)
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleKnowledgeExtraction(ctx context.Context, s State) State {
	out, err := e.client.Generate(ctx, llm.Request{
		ContentType: "knowledge_analysis",
		Prompt:      knowledgePrompt(s.Document, s.Analysis.Topics),
	})
	if err != nil {
		return e.fail(s, err)
	}
	s.Artifacts.KnowledgeAnalysis = out
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleScenarioDesign(ctx context.Context, s State) State {
	knowledge := s.Artifacts.KnowledgeAnalysis
	out, err := e.pipeline.Run(ctx, generate.Job{
		ContentType: "use_cases",
		Topics:      s.Analysis.Topics,
		Complexity:  s.Analysis.Complexity,
		Prompt: func(spec generate.PassSpec) string {
			return useCasePrompt(spec, knowledge)
		},
		Review: reviewPrompt,
	})
	if err != nil {
		return e.fail(s, err)
	}
	s.Artifacts.UseCases = out
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleAssessmentCreation(ctx context.Context, s State) State {
	knowledge := s.Artifacts.KnowledgeAnalysis
	out, err := e.pipeline.Run(ctx, generate.Job{
		ContentType: "quiz",
		Topics:      s.Analysis.Topics,
		Complexity:  s.Analysis.Complexity,
		Prompt: func(spec generate.PassSpec) string {
			return quizPrompt(spec, knowledge)
		},
	})
	if err != nil {
		return e.fail(s, err)
	}
	s.Artifacts.Quiz = out
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleScriptGeneration(ctx context.Context, s State) State {
	useCases := s.Artifacts.UseCases
	out, err := e.pipeline.Run(ctx, generate.Job{
		ContentType: "trainer_script",
		Topics:      s.Analysis.Topics,
		Complexity:  s.Analysis.Complexity,
		Prompt: func(spec generate.PassSpec) string {
			return scriptPrompt(spec, useCases)
		},
		Review: reviewPrompt,
	})
	if err != nil {
		return e.fail(s, err)
	}
	s.Artifacts.TrainerScript = out
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleQualityCheck(s State) State {
	artifacts := map[string]string{
		"use_cases":      s.Artifacts.UseCases,
		"quiz":           s.Artifacts.Quiz,
		"trainer_script": s.Artifacts.TrainerScript,
	}

	reports := make(map[string]quality.Report)
	for name, artifact := range artifacts {
		if artifact == "" {
			continue
		}
		exp := e.expectations(name)
		exp.Topics = s.Analysis.Topics
		report := quality.Evaluate(artifact, exp)
		reports[name] = report
		e.logger.Info("artifact evaluated",
			"job_id", s.JobID,
			"artifact", name,
			"score", report.Score,
			"grade", report.Grade,
			"issues", len(report.Issues),
			"warnings", len(report.Warnings),
		)
	}

	if len(reports) == 0 {
		return e.fail(s, fmt.Errorf("no artifacts produced"))
	}
	s.Reports = reports
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleHumanReview(s State) State {
	if s.Approval == "" {
		s.Approval = ApprovalPending
	}
	if s.ReviewDeadline.IsZero() && e.reviewTimeout > 0 {
		s.ReviewDeadline = e.now().Add(e.reviewTimeout)
	}
	s.PhaseStatus = StatusAwaitingReview
	return s
}

func (e *Engine) handleErrorRecovery(s State) State {
	msg := s.LastError
	if msg == "" {
		msg = fmt.Sprintf("quality below threshold: mean score %.0f", meanScore(s))
	}
	phase := s.FailedPhase
	if phase == "" {
		phase = PhaseQualityCheck
	}
	s = s.recordError(msg, phase, e.now())

	if s.ErrorCount() >= maxErrors {
		s.PhaseStatus = StatusFailed
		return s
	}
	if s.RetryCount < maxRetries {
		// Full restart: downstream phases consume upstream artifacts, so
		// a partial resume would mix generations.
		s.RetryCount++
		s.Artifacts = Artifacts{}
		s.Reports = nil
		s.Approval = ""
		s.ReviewDeadline = time.Time{}
		s.FailedPhase = ""
		s.LastError = ""
		s.PhaseStatus = StatusCompleted
		e.logger.Info("restarting pipeline",
			"job_id", s.JobID,
			"retry_count", s.RetryCount,
			"error_count", s.ErrorCount(),
		)
		return s
	}

	// Retries exhausted but the error budget is not: escalate.
	s.PhaseStatus = StatusFailed
	return s
}

func (e *Engine) handleFinalize(s State) State {
	s.PhaseStatus = StatusCompleted
	return s
}

func (e *Engine) handleAbort(s State) State {
	s.PhaseStatus = StatusFailed
	return s
}

// fail captures a handler failure into the state. The error history entry is
// written by the recovery phase, not here, so one failure counts once.
func (e *Engine) fail(s State, err error) State {
	s.LastError = err.Error()
	s.FailedPhase = s.CurrentPhase
	s.PhaseStatus = StatusFailed
	e.logger.Warn("phase failed",
		"job_id", s.JobID,
		"phase", s.CurrentPhase,
		"error", err,
	)
	return s
}

func (e *Engine) checkpoint(ctx context.Context, s State) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, s); err != nil {
		e.logger.Warn("checkpoint failed", "job_id", s.JobID, "phase", s.CurrentPhase, "error", err)
	}
}

func (e *Engine) settle(s State) {
	outcome := ""
	switch {
	case s.CurrentPhase == PhaseFinalize:
		outcome = "finalized"
	case s.CurrentPhase == PhaseAbort:
		outcome = "aborted"
	case s.Paused():
		outcome = "human_review"
	}
	if outcome != "" {
		metrics.JobOutcomes.WithLabelValues(outcome).Inc()
	}
	e.logger.Info("job settled",
		"job_id", s.JobID,
		"phase", s.CurrentPhase,
		"outcome", outcome,
		"retry_count", s.RetryCount,
		"error_count", s.ErrorCount(),
	)
}

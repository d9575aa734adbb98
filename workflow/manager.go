package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for manager operations.
var (
	ErrJobExists   = errors.New("job already exists")
	ErrJobNotFound = errors.New("job not found")
	ErrNotPaused   = errors.New("job is not awaiting review")
)

// Decision is a human reviewer's action on a paused job.
type Decision string

const (
	DecisionApprove    Decision = "approve"
	DecisionReject     Decision = "reject"
	DecisionRegenerate Decision = "regenerate"
)

// ResumeAction applies a review decision. Phase selects which generation
// phase to rerun for DecisionRegenerate; empty means the last generation
// phase of the job's content type.
type ResumeAction struct {
	Decision Decision `json:"decision"`
	Phase    Phase    `json:"phase,omitempty"`
}

// TrackingRecord is one row in the external job tracking store.
type TrackingRecord struct {
	JobID       string    `json:"job_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TrackingStore records job lifecycle events for external review tooling.
type TrackingStore interface {
	Append(ctx context.Context, record TrackingRecord) error
	Pending(ctx context.Context) ([]TrackingRecord, error)
	UpdateStatus(ctx context.Context, jobID, status string) error
}

// JobHandle identifies a running job. Done is closed when the job settles or
// pauses.
type JobHandle struct {
	JobID string
	Done  <-chan struct{}
}

// Manager is the produced interface: submit, status, resume. Each job runs
// on its own goroutine so one job's limiter or network wait cannot block
// another.
type Manager struct {
	engine   *Engine
	store    StateStore
	tracking TrackingStore
	logger   *slog.Logger
	now      func() time.Time

	wg sync.WaitGroup
	mu sync.Mutex // serializes submit/resume per process
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTracking sets the job tracking store. Without one, tracking is
// skipped.
func WithTracking(ts TrackingStore) ManagerOption {
	return func(m *Manager) { m.tracking = ts }
}

// WithManagerLogger sets the logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithManagerClock injects the time source for tests.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager wraps an engine and its checkpoint store. The store must be the
// one the engine checkpoints to; it is the source of truth for Status.
func NewManager(engine *Engine, store StateStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		engine: engine,
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit starts a new job and returns immediately. The job runs until it
// settles or pauses for review; in-flight generation calls are not cancelled
// when the caller's context ends.
func (m *Manager) Submit(ctx context.Context, document, jobID, contentType string) (*JobHandle, error) {
	if document == "" {
		return nil, fmt.Errorf("document is empty")
	}
	if jobID == "" {
		jobID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, err := m.store.Load(ctx, jobID); err == nil && !existing.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrJobExists, jobID)
	}

	state := m.engine.NewState(jobID, document, contentType)
	if err := m.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save initial state: %w", err)
	}
	m.track(ctx, TrackingRecord{
		JobID:       jobID,
		ContentType: contentType,
		Status:      "pending",
		SubmittedAt: m.now(),
	})

	return m.launch(ctx, state), nil
}

// Status returns the serializable projection of a job's last checkpoint.
func (m *Manager) Status(ctx context.Context, jobID string) (Summary, error) {
	state, err := m.store.Load(ctx, jobID)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return state.Summarize(), nil
}

// Artifacts returns the generated outputs of a job.
func (m *Manager) Artifacts(ctx context.Context, jobID string) (Artifacts, error) {
	state, err := m.store.Load(ctx, jobID)
	if err != nil {
		return Artifacts{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return state.Artifacts, nil
}

// Resume applies a review decision to a paused job and restarts it. The
// returned summary reflects the state at restart, not settlement.
func (m *Manager) Resume(ctx context.Context, jobID string, action ResumeAction) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.store.Load(ctx, jobID)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if !state.Paused() {
		return Summary{}, fmt.Errorf("%w: %s is in %s", ErrNotPaused, jobID, state.CurrentPhase)
	}

	switch action.Decision {
	case DecisionApprove:
		state.Approval = ApprovalApproved
		state.CurrentPhase = Next(state)
	case DecisionReject:
		state.Approval = ApprovalRejected
		state.CurrentPhase = Next(state)
	case DecisionRegenerate:
		target := action.Phase
		if !target.IsGeneration() {
			phases := phasesFor(state.ContentType)
			target = phases[len(phases)-1]
		}
		state = clearArtifact(state, target)
		state.Reports = nil
		state.Approval = ""
		state.ReviewDeadline = time.Time{}
		state.CurrentPhase = target
	default:
		return Summary{}, fmt.Errorf("unknown decision %q", action.Decision)
	}
	state.PhaseStatus = StatusRunning

	if err := m.store.Save(ctx, state); err != nil {
		return Summary{}, fmt.Errorf("failed to save resumed state: %w", err)
	}
	m.launch(ctx, state)
	return state.Summarize(), nil
}

// SweepExpiredReviews escalates paused jobs whose review deadline has
// passed: the unanswered review is treated as a rejection and routed through
// error recovery.
func (m *Manager) SweepExpiredReviews(ctx context.Context) error {
	states, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	now := m.now()
	for _, state := range states {
		if !state.Paused() || state.ReviewDeadline.IsZero() || now.Before(state.ReviewDeadline) {
			continue
		}
		m.logger.Info("review deadline expired", "job_id", state.JobID, "deadline", state.ReviewDeadline)
		if _, err := m.Resume(ctx, state.JobID, ResumeAction{Decision: DecisionReject}); err != nil {
			m.logger.Warn("failed to escalate expired review", "job_id", state.JobID, "error", err)
		}
	}
	return nil
}

// RunSweeper runs SweepExpiredReviews on an interval until ctx ends.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.SweepExpiredReviews(ctx); err != nil {
				m.logger.Warn("review sweep failed", "error", err)
			}
		}
	}
}

// Wait blocks until all launched jobs have settled or paused.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) launch(ctx context.Context, state State) *JobHandle {
	done := make(chan struct{})
	handle := &JobHandle{JobID: state.JobID, Done: done}

	// The job owns its own lifetime; the submitter's context only carries
	// values from here on.
	jobCtx := context.WithoutCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(done)

		final := m.engine.Run(jobCtx, state)

		status := "human_review"
		switch final.CurrentPhase {
		case PhaseFinalize:
			status = "finalized"
		case PhaseAbort:
			status = "aborted"
		}
		if m.tracking != nil {
			if err := m.tracking.UpdateStatus(jobCtx, final.JobID, status); err != nil {
				m.logger.Warn("failed to update tracking status", "job_id", final.JobID, "error", err)
			}
		}
	}()
	return handle
}

func (m *Manager) track(ctx context.Context, record TrackingRecord) {
	if m.tracking == nil {
		return
	}
	if err := m.tracking.Append(ctx, record); err != nil {
		m.logger.Warn("failed to append tracking record", "job_id", record.JobID, "error", err)
	}
}

func clearArtifact(s State, phase Phase) State {
	switch phase {
	case PhaseKnowledgeExtraction:
		s.Artifacts.KnowledgeAnalysis = ""
	case PhaseScenarioDesign:
		s.Artifacts.UseCases = ""
	case PhaseAssessmentCreation:
		s.Artifacts.Quiz = ""
	case PhaseScriptGeneration:
		s.Artifacts.TrainerScript = ""
	}
	return s
}

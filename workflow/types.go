// Package workflow runs content generation jobs through a phase state
// machine: analysis, routed generation phases, quality check, and the
// finalize / human review / error recovery outcomes.
package workflow

import (
	"time"

	"github.com/c360studio/contentfactory/analyze"
	"github.com/c360studio/contentfactory/quality"
)

// Phase identifies one state of the job state machine.
type Phase string

const (
	PhaseAnalyze             Phase = "analyze"
	PhaseRoute               Phase = "route"
	PhaseKnowledgeExtraction Phase = "knowledge_extraction"
	PhaseScenarioDesign      Phase = "scenario_design"
	PhaseAssessmentCreation  Phase = "assessment_creation"
	PhaseScriptGeneration    Phase = "script_generation"
	PhaseQualityCheck        Phase = "quality_check"
	PhaseHumanReview         Phase = "human_review"
	PhaseErrorRecovery       Phase = "error_recovery"
	PhaseFinalize            Phase = "finalize"
	PhaseAbort               Phase = "abort"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid returns true if the phase is a known phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseAnalyze, PhaseRoute, PhaseKnowledgeExtraction,
		PhaseScenarioDesign, PhaseAssessmentCreation, PhaseScriptGeneration,
		PhaseQualityCheck, PhaseHumanReview, PhaseErrorRecovery,
		PhaseFinalize, PhaseAbort:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for the two phases a job can settle in.
func (p Phase) IsTerminal() bool {
	return p == PhaseFinalize || p == PhaseAbort
}

// IsGeneration returns true for phases that call the generation service.
func (p Phase) IsGeneration() bool {
	switch p {
	case PhaseKnowledgeExtraction, PhaseScenarioDesign,
		PhaseAssessmentCreation, PhaseScriptGeneration:
		return true
	default:
		return false
	}
}

// PhaseStatus is the outcome of the handler that just ran.
type PhaseStatus string

const (
	StatusRunning        PhaseStatus = "running"
	StatusCompleted      PhaseStatus = "completed"
	StatusFailed         PhaseStatus = "failed"
	StatusAwaitingReview PhaseStatus = "awaiting_review"
)

// ApprovalStatus records the human decision on a paused job.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ErrorRecord is one structured entry in a job's error history.
type ErrorRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error"`
	Phase      Phase     `json:"phase"`
	RetryCount int       `json:"retry_count"`
}

// Artifacts holds the generated outputs of one job. Fields are set by their
// generation phase and only replaced on a full restart.
type Artifacts struct {
	KnowledgeAnalysis string `json:"knowledge_analysis,omitempty"`
	UseCases          string `json:"use_cases,omitempty"`
	Quiz              string `json:"quiz,omitempty"`
	TrainerScript     string `json:"trainer_script,omitempty"`
}

// State is the complete job state. Handlers receive it by value and return
// the updated copy; the engine checkpoints it at every phase boundary.
type State struct {
	JobID       string `json:"job_id"`
	ContentType string `json:"content_type"`
	Document    string `json:"document"`

	Analysis analyze.Analysis `json:"analysis"`

	CurrentPhase Phase       `json:"current_phase"`
	PhaseStatus  PhaseStatus `json:"phase_status"`

	Artifacts Artifacts                 `json:"artifacts"`
	Reports   map[string]quality.Report `json:"reports,omitempty"`

	RetryCount   int           `json:"retry_count"`
	ErrorHistory []ErrorRecord `json:"error_history,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	FailedPhase  Phase         `json:"failed_phase,omitempty"`

	Approval       ApprovalStatus `json:"approval,omitempty"`
	ReviewDeadline time.Time      `json:"review_deadline,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorCount is the total number of recorded failures.
func (s State) ErrorCount() int {
	return len(s.ErrorHistory)
}

// Terminal reports whether the job has settled.
func (s State) Terminal() bool {
	return s.CurrentPhase.IsTerminal()
}

// Paused reports whether the job is waiting on a human decision.
func (s State) Paused() bool {
	return s.CurrentPhase == PhaseHumanReview && s.PhaseStatus == StatusAwaitingReview
}

// recordError appends to the job's error history. The history is
// append-only, so error counts never decrease.
func (s State) recordError(msg string, phase Phase, now time.Time) State {
	s.ErrorHistory = append(s.ErrorHistory, ErrorRecord{
		Timestamp:  now,
		Error:      msg,
		Phase:      phase,
		RetryCount: s.RetryCount,
	})
	s.LastError = msg
	return s
}

// Summary is the serializable projection of State returned to callers. It
// excludes the source document and the full artifact bodies.
type Summary struct {
	JobID        string         `json:"job_id"`
	ContentType  string         `json:"content_type"`
	CurrentPhase Phase          `json:"current_phase"`
	PhaseStatus  PhaseStatus    `json:"phase_status"`
	Terminal     bool           `json:"terminal"`
	Paused       bool           `json:"paused"`
	RetryCount   int            `json:"retry_count"`
	ErrorCount   int            `json:"error_count"`
	LastError    string         `json:"last_error,omitempty"`
	Scores       map[string]int `json:"scores,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Summarize builds the caller-facing projection.
func (s State) Summarize() Summary {
	var scores map[string]int
	if len(s.Reports) > 0 {
		scores = make(map[string]int, len(s.Reports))
		for name, report := range s.Reports {
			scores[name] = report.Score
		}
	}
	return Summary{
		JobID:        s.JobID,
		ContentType:  s.ContentType,
		CurrentPhase: s.CurrentPhase,
		PhaseStatus:  s.PhaseStatus,
		Terminal:     s.Terminal(),
		Paused:       s.Paused(),
		RetryCount:   s.RetryCount,
		ErrorCount:   s.ErrorCount(),
		LastError:    s.LastError,
		Scores:       scores,
		UpdatedAt:    s.UpdatedAt,
	}
}

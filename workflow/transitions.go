package workflow

// Recovery and routing policy.
const (
	// maxRetries bounds full pipeline restarts per job.
	maxRetries = 3

	// maxErrors aborts the job outright once the error history reaches it.
	maxErrors = 5

	// qualityFinalize and qualityReview are thresholds on the mean
	// artifact score scaled to [0,1].
	qualityFinalize = 0.8
	qualityReview   = 0.6
)

// generationChain is the canonical order of generation phases. A content
// type runs the subset it needs, always in this order.
var generationChain = []Phase{
	PhaseKnowledgeExtraction,
	PhaseScenarioDesign,
	PhaseAssessmentCreation,
	PhaseScriptGeneration,
}

// phasesFor is the fixed routing table: content type to the generation
// phases it runs.
func phasesFor(contentType string) []Phase {
	switch contentType {
	case "use_cases":
		return []Phase{PhaseKnowledgeExtraction, PhaseScenarioDesign}
	case "quiz":
		return []Phase{PhaseKnowledgeExtraction, PhaseAssessmentCreation}
	case "trainer_script":
		return []Phase{PhaseKnowledgeExtraction, PhaseScenarioDesign, PhaseScriptGeneration}
	default:
		// Unknown types produce the full artifact set.
		return generationChain
	}
}

// entryPhase is the first generation phase for a content type, also the
// restart target for error recovery.
func entryPhase(contentType string) Phase {
	return phasesFor(contentType)[0]
}

// nextGeneration returns the generation phase that follows current for the
// content type, or quality check when the chain is done.
func nextGeneration(contentType string, current Phase) Phase {
	phases := phasesFor(contentType)
	for i, p := range phases {
		if p == current && i+1 < len(phases) {
			return phases[i+1]
		}
	}
	return PhaseQualityCheck
}

// Next is the pure transition function: given the state a handler just
// produced, it returns the phase to enter. It is total: every phase and
// status combination has a defined successor.
func Next(s State) Phase {
	switch s.CurrentPhase {
	case PhaseAnalyze:
		// Analysis failures are fatal: there is nothing to generate from.
		if s.PhaseStatus == StatusFailed {
			return PhaseAbort
		}
		return PhaseRoute

	case PhaseRoute:
		return entryPhase(s.ContentType)

	case PhaseKnowledgeExtraction, PhaseScenarioDesign,
		PhaseAssessmentCreation, PhaseScriptGeneration:
		if s.PhaseStatus == StatusFailed {
			return PhaseErrorRecovery
		}
		return nextGeneration(s.ContentType, s.CurrentPhase)

	case PhaseQualityCheck:
		if s.PhaseStatus == StatusFailed {
			return PhaseErrorRecovery
		}
		mean := meanScore(s) / 100
		switch {
		case mean >= qualityFinalize:
			return PhaseFinalize
		case mean >= qualityReview:
			return PhaseHumanReview
		default:
			return PhaseErrorRecovery
		}

	case PhaseHumanReview:
		switch s.Approval {
		case ApprovalApproved:
			return PhaseFinalize
		case ApprovalRejected:
			return PhaseErrorRecovery
		default:
			return PhaseHumanReview
		}

	case PhaseErrorRecovery:
		if s.ErrorCount() >= maxErrors {
			return PhaseAbort
		}
		if s.PhaseStatus == StatusCompleted {
			// The recovery handler prepared a full restart.
			return entryPhase(s.ContentType)
		}
		return PhaseHumanReview

	case PhaseFinalize, PhaseAbort:
		return s.CurrentPhase

	default:
		return PhaseAbort
	}
}

// meanScore averages the quality scores of the evaluated artifacts. No
// reports means no usable output, scored as zero.
func meanScore(s State) float64 {
	if len(s.Reports) == 0 {
		return 0
	}
	total := 0
	for _, report := range s.Reports {
		total += report.Score
	}
	return float64(total) / float64(len(s.Reports))
}

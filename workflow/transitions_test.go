package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/contentfactory/quality"
)

func TestPhaseIsValid(t *testing.T) {
	for _, p := range []Phase{
		PhaseAnalyze, PhaseRoute, PhaseKnowledgeExtraction, PhaseScenarioDesign,
		PhaseAssessmentCreation, PhaseScriptGeneration, PhaseQualityCheck,
		PhaseHumanReview, PhaseErrorRecovery, PhaseFinalize, PhaseAbort,
	} {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, Phase("made_up").IsValid())
}

func TestPhasesForRoutingTable(t *testing.T) {
	assert.Equal(t, PhaseKnowledgeExtraction, entryPhase("use_cases"))
	assert.Equal(t, PhaseKnowledgeExtraction, entryPhase("quiz"))
	assert.Equal(t, PhaseKnowledgeExtraction, entryPhase("trainer_script"))
	assert.Equal(t, PhaseKnowledgeExtraction, entryPhase("anything_else"))

	assert.Equal(t,
		[]Phase{PhaseKnowledgeExtraction, PhaseAssessmentCreation},
		phasesFor("quiz"))
	assert.Equal(t, generationChain, phasesFor("unknown"))
}

func TestNextGenerationChain(t *testing.T) {
	assert.Equal(t, PhaseScenarioDesign, nextGeneration("use_cases", PhaseKnowledgeExtraction))
	assert.Equal(t, PhaseQualityCheck, nextGeneration("use_cases", PhaseScenarioDesign))
	assert.Equal(t, PhaseAssessmentCreation, nextGeneration("quiz", PhaseKnowledgeExtraction))
	assert.Equal(t, PhaseScriptGeneration, nextGeneration("trainer_script", PhaseScenarioDesign))
	assert.Equal(t, PhaseQualityCheck, nextGeneration("trainer_script", PhaseScriptGeneration))
}

func TestNextQualityRouting(t *testing.T) {
	state := func(score int) State {
		return State{
			ContentType:  "use_cases",
			CurrentPhase: PhaseQualityCheck,
			PhaseStatus:  StatusCompleted,
			Reports:      map[string]quality.Report{"use_cases": {Score: score}},
		}
	}

	assert.Equal(t, PhaseFinalize, Next(state(100)))
	assert.Equal(t, PhaseFinalize, Next(state(80)))
	assert.Equal(t, PhaseHumanReview, Next(state(79)))
	assert.Equal(t, PhaseHumanReview, Next(state(60)))
	assert.Equal(t, PhaseErrorRecovery, Next(state(59)))
	assert.Equal(t, PhaseErrorRecovery, Next(state(0)))
}

func TestNextQualityMeanAcrossArtifacts(t *testing.T) {
	s := State{
		CurrentPhase: PhaseQualityCheck,
		PhaseStatus:  StatusCompleted,
		Reports: map[string]quality.Report{
			"use_cases": {Score: 100},
			"quiz":      {Score: 50},
		},
	}
	// Mean 75 lands in the review band.
	assert.Equal(t, PhaseHumanReview, Next(s))
}

func TestNextGenerationFailureRoutesToRecovery(t *testing.T) {
	for _, p := range generationChain {
		s := State{ContentType: "unknown", CurrentPhase: p, PhaseStatus: StatusFailed}
		assert.Equal(t, PhaseErrorRecovery, Next(s), p)
	}
}

func TestNextAnalyzeFailureIsFatal(t *testing.T) {
	s := State{CurrentPhase: PhaseAnalyze, PhaseStatus: StatusFailed}
	assert.Equal(t, PhaseAbort, Next(s))
}

func TestNextHumanReview(t *testing.T) {
	s := State{CurrentPhase: PhaseHumanReview, PhaseStatus: StatusAwaitingReview}

	s.Approval = ApprovalApproved
	assert.Equal(t, PhaseFinalize, Next(s))

	s.Approval = ApprovalRejected
	assert.Equal(t, PhaseErrorRecovery, Next(s))

	s.Approval = ApprovalPending
	assert.Equal(t, PhaseHumanReview, Next(s))
}

func TestNextErrorRecovery(t *testing.T) {
	base := State{ContentType: "use_cases", CurrentPhase: PhaseErrorRecovery}

	restart := base
	restart.PhaseStatus = StatusCompleted
	restart.ErrorHistory = make([]ErrorRecord, 2)
	assert.Equal(t, PhaseKnowledgeExtraction, Next(restart))

	escalate := base
	escalate.PhaseStatus = StatusFailed
	escalate.ErrorHistory = make([]ErrorRecord, 4)
	assert.Equal(t, PhaseHumanReview, Next(escalate))

	abort := base
	abort.PhaseStatus = StatusFailed
	abort.ErrorHistory = make([]ErrorRecord, maxErrors)
	assert.Equal(t, PhaseAbort, Next(abort))
}

func TestNextTerminalPhasesAreAbsorbing(t *testing.T) {
	assert.Equal(t, PhaseFinalize, Next(State{CurrentPhase: PhaseFinalize}))
	assert.Equal(t, PhaseAbort, Next(State{CurrentPhase: PhaseAbort}))
}

func TestNextIsTotal(t *testing.T) {
	phases := []Phase{
		PhaseAnalyze, PhaseRoute, PhaseKnowledgeExtraction, PhaseScenarioDesign,
		PhaseAssessmentCreation, PhaseScriptGeneration, PhaseQualityCheck,
		PhaseHumanReview, PhaseErrorRecovery, PhaseFinalize, PhaseAbort,
		Phase("bogus"),
	}
	statuses := []PhaseStatus{StatusRunning, StatusCompleted, StatusFailed, StatusAwaitingReview}

	for _, p := range phases {
		for _, st := range statuses {
			next := Next(State{ContentType: "use_cases", CurrentPhase: p, PhaseStatus: st})
			assert.True(t, next.IsValid(), "Next(%s,%s) = %s", p, st, next)
		}
	}
}

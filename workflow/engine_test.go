package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/contentfactory/generate"
	"github.com/c360studio/contentfactory/llm"
	"github.com/c360studio/contentfactory/quality"
)

const testDocument = `# Deployment Basics

## Build pipelines
Compiling and packaging the application.

## Rollbacks
Returning to a known-good release quickly.

## Monitoring
Watching the deployed service.
`

type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "knowledge summary for " + req.ContentType, nil
}

type fakePipeline struct {
	err   error
	calls int
}

func (p *fakePipeline) Run(_ context.Context, job generate.Job) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	// Echo the topics so the coverage check sees them.
	return fmt.Sprintf("generated %s: %s", job.ContentType, strings.Join(job.Topics, ", ")), nil
}

func lenientExpectations(string) quality.Expectations {
	return quality.Expectations{MinLength: 10}
}

func strictExpectations(string) quality.Expectations {
	return quality.Expectations{
		MinLength:        100_000,
		RequiredSections: []string{"NO SUCH SECTION"},
	}
}

func newTestEngine(gen *fakeGenerator, pipe *fakePipeline, opts ...EngineOption) *Engine {
	base := []EngineOption{
		WithPipeline(pipe),
		WithExpectations(lenientExpectations),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	}
	return NewEngine(gen, append(base, opts...)...)
}

func TestEngineRunFinalizes(t *testing.T) {
	gen := &fakeGenerator{}
	pipe := &fakePipeline{}
	store := NewMemoryStore()
	e := newTestEngine(gen, pipe, WithStore(store))

	final := e.Run(context.Background(), e.NewState("job-1", testDocument, "use_cases"))

	assert.Equal(t, PhaseFinalize, final.CurrentPhase)
	assert.True(t, final.Terminal())
	assert.False(t, final.Paused())
	assert.NotEmpty(t, final.Artifacts.KnowledgeAnalysis)
	assert.NotEmpty(t, final.Artifacts.UseCases)
	assert.Empty(t, final.Artifacts.Quiz, "use_cases jobs do not build a quiz")
	assert.Equal(t, 100, final.Reports["use_cases"].Score)
	assert.Zero(t, final.ErrorCount())

	saved, err := store.Load(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseFinalize, saved.CurrentPhase)
}

func TestEngineRunFullChainForUnknownType(t *testing.T) {
	gen := &fakeGenerator{}
	pipe := &fakePipeline{}
	e := newTestEngine(gen, pipe)

	final := e.Run(context.Background(), e.NewState("job-2", testDocument, "full_set"))

	assert.Equal(t, PhaseFinalize, final.CurrentPhase)
	assert.NotEmpty(t, final.Artifacts.UseCases)
	assert.NotEmpty(t, final.Artifacts.Quiz)
	assert.NotEmpty(t, final.Artifacts.TrainerScript)
	assert.Equal(t, 3, pipe.calls)
}

func TestEngineRunDetectsContentType(t *testing.T) {
	gen := &fakeGenerator{}
	pipe := &fakePipeline{}
	e := newTestEngine(gen, pipe)

	doc := testDocument + "\nPrepare a quiz with multiple choice questions.\n"
	final := e.Run(context.Background(), e.NewState("job-3", doc, ""))

	assert.Equal(t, "quiz", final.ContentType)
	assert.NotEmpty(t, final.Artifacts.Quiz)
	assert.Empty(t, final.Artifacts.TrainerScript)
}

func TestEngineRunEmptyDocumentAborts(t *testing.T) {
	e := newTestEngine(&fakeGenerator{}, &fakePipeline{})

	final := e.Run(context.Background(), e.NewState("job-4", "", "use_cases"))

	assert.Equal(t, PhaseAbort, final.CurrentPhase)
	assert.Contains(t, final.LastError, "no topics")
}

func TestEngineRunRetriesThenPausesOnPersistentFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("service down")}
	e := newTestEngine(gen, &fakePipeline{})

	final := e.Run(context.Background(), e.NewState("job-5", testDocument, "use_cases"))

	// Three full restarts, then escalation to a paused human review.
	assert.True(t, final.Paused())
	assert.Equal(t, PhaseHumanReview, final.CurrentPhase)
	assert.Equal(t, maxRetries, final.RetryCount)
	assert.Equal(t, maxRetries+1, final.ErrorCount())
	assert.Equal(t, maxRetries+1, gen.calls)
	for _, rec := range final.ErrorHistory {
		assert.Equal(t, PhaseKnowledgeExtraction, rec.Phase)
		assert.Contains(t, rec.Error, "service down")
	}
}

func TestEngineRunAbortsAtErrorBudget(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("still down")}
	e := newTestEngine(gen, &fakePipeline{})

	state := e.NewState("job-6", testDocument, "use_cases")
	state.ErrorHistory = make([]ErrorRecord, maxErrors-1)
	state.RetryCount = 1

	final := e.Run(context.Background(), state)

	assert.Equal(t, PhaseAbort, final.CurrentPhase)
	assert.Equal(t, maxErrors, final.ErrorCount())
}

func TestEngineRunLowQualityRestartsPipeline(t *testing.T) {
	gen := &fakeGenerator{}
	pipe := &fakePipeline{}
	e := newTestEngine(gen, pipe, WithExpectations(strictExpectations))

	final := e.Run(context.Background(), e.NewState("job-7", testDocument, "use_cases"))

	// Every run scores 50, below the recovery threshold, until retries run
	// out and the job pauses for review.
	assert.True(t, final.Paused())
	assert.Equal(t, maxRetries, final.RetryCount)
	assert.Equal(t, maxRetries+1, pipe.calls)
	for _, rec := range final.ErrorHistory {
		assert.Contains(t, rec.Error, "quality below threshold")
	}
}

func TestEngineRunMidQualityPausesForReview(t *testing.T) {
	gen := &fakeGenerator{}
	pipe := &fakePipeline{}
	// One issue: score 75, inside [60,80).
	e := newTestEngine(gen, pipe, WithExpectations(func(string) quality.Expectations {
		return quality.Expectations{MinLength: 100_000}
	}), WithReviewTimeout(time.Hour))

	final := e.Run(context.Background(), e.NewState("job-8", testDocument, "use_cases"))

	assert.True(t, final.Paused())
	assert.Equal(t, ApprovalPending, final.Approval)
	assert.False(t, final.ReviewDeadline.IsZero())
	assert.Equal(t, 75, final.Reports["use_cases"].Score)
}

func TestEngineRunSettlesExactlyOnce(t *testing.T) {
	// Whatever the failure mix, a run ends terminal or paused, never both.
	cases := []struct {
		name string
		gen  *fakeGenerator
		pipe *fakePipeline
		exp  func(string) quality.Expectations
	}{
		{"all good", &fakeGenerator{}, &fakePipeline{}, lenientExpectations},
		{"generator down", &fakeGenerator{err: errors.New("x")}, &fakePipeline{}, lenientExpectations},
		{"pipeline down", &fakeGenerator{}, &fakePipeline{err: errors.New("y")}, lenientExpectations},
		{"low quality", &fakeGenerator{}, &fakePipeline{}, strictExpectations},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(tc.gen, tc.pipe, WithExpectations(tc.exp))
			final := e.Run(context.Background(), e.NewState("job", testDocument, "use_cases"))
			assert.NotEqual(t, final.Terminal(), final.Paused(),
				"job must settle in exactly one of terminal or paused, got phase %s", final.CurrentPhase)
		})
	}
}

func TestRecordErrorIsMonotonic(t *testing.T) {
	s := State{}
	now := time.Now()
	s = s.recordError("one", PhaseScenarioDesign, now)
	s = s.recordError("two", PhaseQualityCheck, now)

	require.Equal(t, 2, s.ErrorCount())
	assert.Equal(t, "two", s.LastError)
	assert.Equal(t, PhaseScenarioDesign, s.ErrorHistory[0].Phase)
}

func TestSummarize(t *testing.T) {
	s := State{
		JobID:        "job-9",
		ContentType:  "quiz",
		CurrentPhase: PhaseHumanReview,
		PhaseStatus:  StatusAwaitingReview,
		RetryCount:   2,
		ErrorHistory: make([]ErrorRecord, 3),
		Reports:      map[string]quality.Report{"quiz": {Score: 70}},
	}

	sum := s.Summarize()
	assert.Equal(t, "job-9", sum.JobID)
	assert.True(t, sum.Paused)
	assert.False(t, sum.Terminal)
	assert.Equal(t, 3, sum.ErrorCount)
	assert.Equal(t, 70, sum.Scores["quiz"])
}

package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/contentfactory/llm"
)

// Generator is the client surface the pipeline needs. *llm.Client satisfies
// it.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// PassSpec describes one pass for the prompt builder.
type PassSpec struct {
	// Index is the zero-based pass number.
	Index int

	// Topics assigned to this pass.
	Topics []string

	// Start and End are the global unit numbers this pass must cover.
	Start, End int

	// First marks the opening pass, which establishes the scenario that
	// later passes continue.
	First bool

	// Context holds the entities established by earlier passes.
	Context PassContext

	// Preamble is the rendered continuation instruction block derived
	// from Context. Empty on the first pass.
	Preamble string
}

// Job describes one multi-pass generation run.
type Job struct {
	// ContentType is forwarded to the generation client for validation
	// and metrics ("use_cases", "quiz", "trainer_script").
	ContentType string

	Topics     []string
	Complexity float64
	MaxTokens  int

	// Prompt renders the prompt for one pass.
	Prompt func(PassSpec) string

	// Review optionally renders a final single-call prompt over the
	// concatenated result, typically a consistency checklist. Nil skips
	// the review pass.
	Review func(full string) string
}

// Pipeline runs adaptive multi-pass generation: it plans the batches, threads
// stable entities between passes, and normalizes numbering so the
// concatenated result reads as one document.
type Pipeline struct {
	client     Generator
	extractor  EntityExtractor
	normalizer *Normalizer
	logger     *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithExtractor replaces the default regex entity extractor.
func WithExtractor(e EntityExtractor) PipelineOption {
	return func(p *Pipeline) { p.extractor = e }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *Normalizer) PipelineOption {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline returns a Pipeline backed by the given generation client.
func NewPipeline(client Generator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		client:     client,
		extractor:  RegexExtractor{},
		normalizer: NewNormalizer(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the job and returns the concatenated, normalized result. An
// empty topic list yields an empty result without calling the service.
func (p *Pipeline) Run(ctx context.Context, job Job) (string, error) {
	plan := PlanBatches(len(job.Topics), job.Complexity)
	if len(plan) == 0 {
		return "", nil
	}

	p.logger.Info("starting multi-pass generation",
		"content_type", job.ContentType,
		"topics", len(job.Topics),
		"complexity", job.Complexity,
		"passes", len(plan),
	)

	var (
		parts   []string
		passCtx PassContext
		offset  int
	)
	for i, size := range plan {
		spec := PassSpec{
			Index:   i,
			Topics:  job.Topics[offset : offset+size],
			Start:   offset + 1,
			End:     offset + size,
			First:   i == 0,
			Context: passCtx,
		}
		if !spec.First {
			spec.Preamble = passCtx.Preamble()
		}

		out, err := p.client.Generate(ctx, llm.Request{
			ContentType: job.ContentType,
			Prompt:      job.Prompt(spec),
			MaxTokens:   job.MaxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("pass %d/%d: %w", i+1, len(plan), err)
		}

		passCtx = passCtx.Merge(p.extractor.Extract(out))
		parts = append(parts, p.normalizer.Normalize(out, spec.Start, spec.End))
		offset += size

		p.logger.Debug("pass complete",
			"content_type", job.ContentType,
			"pass", i+1,
			"units", fmt.Sprintf("%d-%d", spec.Start, spec.End),
			"chars", len(out),
		)
	}

	full := strings.Join(parts, "\n\n")
	if job.Review == nil {
		return full, nil
	}

	reviewed, err := p.client.Generate(ctx, llm.Request{
		ContentType: job.ContentType,
		Prompt:      job.Review(full),
		MaxTokens:   job.MaxTokens,
	})
	if err != nil {
		// The concatenated result is already usable; the review pass is
		// an improvement, not a requirement.
		p.logger.Warn("review pass failed, keeping concatenated result",
			"content_type", job.ContentType, "error", err)
		return full, nil
	}
	return p.normalizer.StripForbidden(reviewed), nil
}

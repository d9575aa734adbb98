// Package llm provides the retried, validated client for the external
// text-generation service, together with the shared sliding-window rate
// limiter that paces all calls.
package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/contentfactory/metrics"
)

// Request defines one generation request.
type Request struct {
	// ContentType selects the content-specific validation keywords and is
	// carried through logs and metrics ("use_cases", "quiz", ...).
	ContentType string

	// Prompt is the full prompt sent to the generation service.
	Prompt string

	// Timeout is the per-attempt deadline. 0 uses the client default.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// 0 uses the client default; a negative value disables retries.
	MaxRetries int

	// MaxTokens limits response length. 0 uses the endpoint default.
	MaxTokens int
}

// Attempt records one generation attempt for logging. Attempts are ephemeral;
// they are logged, not persisted.
type Attempt struct {
	RequestID string
	Number    int
	Class     FailureClass
	Err       error
	Duration  time.Duration
}

// Client wraps the generation service with rate limiting, class-specific
// backoff, and response validation.
type Client struct {
	service    GenerationService
	limiter    *RateLimiter
	validation ValidationConfig
	logger     *slog.Logger

	defaultTimeout time.Duration
	defaultRetries int

	// sleep is injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithValidation sets the response validation heuristics.
func WithValidation(cfg ValidationConfig) ClientOption {
	return func(c *Client) {
		c.validation = cfg
	}
}

// WithDefaults sets the default per-attempt timeout and retry count used when
// a request leaves them zero.
func WithDefaults(timeout time.Duration, retries int) ClientOption {
	return func(c *Client) {
		c.defaultTimeout = timeout
		c.defaultRetries = retries
	}
}

// NewClient creates a generation client. The limiter is shared across all
// jobs; pass the same instance to every client.
func NewClient(service GenerationService, limiter *RateLimiter, opts ...ClientOption) *Client {
	c := &Client{
		service:        service,
		limiter:        limiter,
		validation:     DefaultValidationConfig(),
		logger:         slog.Default(),
		defaultTimeout: 120 * time.Second,
		defaultRetries: 3,
		sleep:          sleepCtx,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Generate performs one retried, validated generation call. On success it
// returns the generated text. Once retries are exhausted it returns a
// terminal *GenerationError carrying the last failure class and reason.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	retries := req.MaxRetries
	switch {
	case retries == 0:
		retries = c.defaultRetries
	case retries < 0:
		retries = 0
	}

	requestID := uuid.New().String()
	maxAttempts := retries + 1

	var lastErr error
	lastClass := FailureOther

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return "", err
		}

		started := time.Now()
		content, err := c.service.Generate(ctx, req.Prompt, Limits{
			Timeout:   timeout,
			MaxTokens: req.MaxTokens,
		})
		elapsed := time.Since(started)

		if err == nil {
			if verr := c.validation.Validate(content, req.ContentType); verr != nil {
				err = verr
			}
		}

		if err == nil {
			c.logger.Info("Generation succeeded",
				"request_id", requestID,
				"content_type", req.ContentType,
				"attempt", attempt,
				"chars", len(content),
				"duration", elapsed)
			metrics.GenerationCalls.WithLabelValues(req.ContentType, "success").Inc()
			metrics.GenerationDuration.WithLabelValues(req.ContentType).Observe(elapsed.Seconds())
			return content, nil
		}

		if IsFatal(err) {
			c.logger.Warn("Generation failed with fatal error",
				"request_id", requestID,
				"content_type", req.ContentType,
				"attempt", attempt,
				"error", err)
			metrics.GenerationCalls.WithLabelValues(req.ContentType, "fatal").Inc()
			return "", err
		}

		lastErr = err
		if IsValidation(err) {
			lastClass = FailureOther
		} else {
			lastClass = ClassOf(err)
		}
		metrics.GenerationCalls.WithLabelValues(req.ContentType, string(lastClass)).Inc()

		if attempt < maxAttempts {
			wait := backoffFor(lastClass, attempt)
			c.logger.Warn("Generation attempt failed, backing off",
				"request_id", requestID,
				"content_type", req.ContentType,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"class", lastClass,
				"backoff", wait,
				"error", err)
			metrics.GenerationRetries.WithLabelValues(string(lastClass)).Inc()

			if serr := c.sleep(ctx, wait); serr != nil {
				return "", serr
			}
		}
	}

	c.logger.Error("Generation exhausted retries",
		"request_id", requestID,
		"content_type", req.ContentType,
		"attempts", maxAttempts,
		"last_class", lastClass,
		"error", lastErr)

	return "", &GenerationError{
		Attempts:  maxAttempts,
		LastClass: lastClass,
		err:       lastErr,
	}
}

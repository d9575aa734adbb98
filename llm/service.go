package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxResponseSize limits the generation response body to prevent memory
// exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Limits bounds a single generation call.
type Limits struct {
	// Timeout is the per-call deadline.
	Timeout time.Duration
	// MaxTokens limits response length. 0 uses the endpoint default.
	MaxTokens int
}

// GenerationService is one call to the external text-generation service.
// Implementations return the generated text or a classified *ServiceError
// (or *FatalError for non-retryable conditions).
type GenerationService interface {
	Generate(ctx context.Context, prompt string, limits Limits) (string, error)
}

// HTTPService is the default GenerationService over an OpenAI-style
// chat-completions endpoint.
type HTTPService struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPServiceOption configures an HTTPService.
type HTTPServiceOption func(*HTTPService)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPServiceOption {
	return func(s *HTTPService) {
		s.httpClient = c
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) HTTPServiceOption {
	return func(s *HTTPService) {
		s.logger = logger
	}
}

// NewHTTPService creates a generation service client for the given endpoint.
func NewHTTPService(url, apiKey, model string, opts ...HTTPServiceOption) *HTTPService {
	s := &HTTPService{
		url:    url,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 300 * time.Second, // Allow time for long generations
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate executes a single HTTP request to the generation endpoint.
func (s *HTTPService) Generate(ctx context.Context, prompt string, limits Limits) (string, error) {
	if limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model:     s.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: limits.MaxTokens,
	})
	if err != nil {
		return "", NewFatalError(fmt.Errorf("build request body: %w", err))
	}

	s.logger.Debug("Sending generation request",
		"model", s.model,
		"prompt_chars", len(prompt),
		"timeout", limits.Timeout)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", NewServiceError(FailureTimeout, err)
		}
		// Remaining network errors are transient
		return "", NewServiceError(FailureOther, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return "", NewServiceError(FailureOther, fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(httpResp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewServiceError(FailureOther, fmt.Errorf("parse response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", NewServiceError(FailureOther, fmt.Errorf("response contained no choices"))
	}

	return parsed.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// classifyHTTPError maps an HTTP status to a failure class.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("generation API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewServiceError(FailureRateLimited, err)
	case statusCode == http.StatusServiceUnavailable,
		strings.Contains(strings.ToLower(bodyStr), "overloaded"):
		return NewServiceError(FailureOverloaded, err)
	case statusCode == http.StatusGatewayTimeout:
		return NewServiceError(FailureTimeout, err)
	case statusCode >= 500:
		return NewServiceError(FailureOther, err)
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusBadRequest:
		return NewFatalError(err)
	default:
		return NewFatalError(err)
	}
}

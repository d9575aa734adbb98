package llm

import (
	"fmt"
	"strings"
)

// ValidationConfig holds the response quality heuristics applied after a
// successful generation call. A response that trips any heuristic is treated
// as a retryable failure.
type ValidationConfig struct {
	// MinLength is the minimum accepted response length in characters.
	MinLength int `yaml:"min_length"`

	// ErrorSignals are substrings that mark a response as an error message
	// rather than content. Matched case-insensitively.
	ErrorSignals []string `yaml:"error_signals"`

	// RequiredKeywords maps a content type to keywords of which at least one
	// must appear in the response. Matched case-insensitively.
	RequiredKeywords map[string][]string `yaml:"required_keywords"`
}

// DefaultValidationConfig returns the stock response heuristics.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinLength: 100,
		ErrorSignals: []string{
			"error generating",
			"timeout exceeded",
			"model is overloaded",
			"deadline exceeded",
			"service unavailable",
		},
		RequiredKeywords: map[string][]string{
			"use_cases":      {"scenario", "task", "solution", "problem"},
			"quiz":           {"question", "answer", "correct"},
			"trainer_script": {"slide", "theory", "trainer"},
		},
	}
}

// Validate checks a generated response against the configured heuristics.
// It returns a *ValidationError describing the first violated rule.
func (c ValidationConfig) Validate(content, contentType string) error {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < c.MinLength {
		return &ValidationError{Reason: fmt.Sprintf("response too short: %d chars (minimum %d)", len(trimmed), c.MinLength)}
	}

	lower := strings.ToLower(content)
	for _, signal := range c.ErrorSignals {
		if strings.Contains(lower, strings.ToLower(signal)) {
			return &ValidationError{Reason: fmt.Sprintf("response contains error signal %q", signal)}
		}
	}

	keywords, ok := c.RequiredKeywords[contentType]
	if !ok || len(keywords) == 0 {
		return nil
	}
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return nil
		}
	}
	return &ValidationError{Reason: fmt.Sprintf("response missing required keywords for %s", contentType)}
}

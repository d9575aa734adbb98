// Package config provides configuration loading and management for the
// content factory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/contentfactory/llm"
)

// Config is the complete content factory configuration.
type Config struct {
	Generation GenerationConfig     `yaml:"generation"`
	RateLimit  RateLimitConfig      `yaml:"rate_limit"`
	NATS       NATSConfig           `yaml:"nats"`
	Source     SourceConfig         `yaml:"source"`
	Documents  DocumentsConfig      `yaml:"documents"`
	Review     ReviewConfig         `yaml:"review"`
	Validation llm.ValidationConfig `yaml:"validation"`
}

// GenerationConfig configures the text generation service.
type GenerationConfig struct {
	// Endpoint is the chat-completions URL.
	Endpoint string `yaml:"endpoint"`
	// Model is the model name sent with each request.
	Model string `yaml:"model"`
	// APIKey authenticates requests; the CONTENTFACTORY_API_KEY
	// environment variable overrides it.
	APIKey string `yaml:"api_key"`
	// Timeout is the per-attempt deadline.
	Timeout Duration `yaml:"timeout"`
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"`
	// MaxTokens caps response length. 0 uses the endpoint default.
	MaxTokens int `yaml:"max_tokens"`
}

// RateLimitConfig bounds generation calls to Calls per trailing Window.
type RateLimitConfig struct {
	Calls  int      `yaml:"calls"`
	Window Duration `yaml:"window"`
}

// NATSConfig configures state persistence. An empty URL keeps all state in
// memory.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// SourceConfig configures the watched source folder.
type SourceConfig struct {
	// Dir is the folder to watch for incoming documents.
	Dir string `yaml:"dir"`
	// Include and Exclude are doublestar globs relative to Dir.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Debounce is the settle delay before a changed file is processed.
	Debounce Duration `yaml:"debounce"`
}

// DocumentsConfig configures where generated artifacts are stored.
type DocumentsConfig struct {
	Dir string `yaml:"dir"`
}

// ReviewConfig configures the human review policy.
type ReviewConfig struct {
	// Timeout is how long a job may wait for a review decision before the
	// sweep escalates it. 0 disables the deadline.
	Timeout Duration `yaml:"timeout"`
	// SweepInterval is how often expired reviews are checked.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Endpoint:   "http://localhost:11434/v1/chat/completions",
			Model:      "qwen2.5:32b",
			Timeout:    Duration(2 * time.Minute),
			MaxRetries: 3,
		},
		RateLimit: RateLimitConfig{
			Calls:  10,
			Window: Duration(time.Minute),
		},
		Source: SourceConfig{
			Dir:      "sources",
			Debounce: Duration(500 * time.Millisecond),
		},
		Documents: DocumentsConfig{
			Dir: "artifacts",
		},
		Review: ReviewConfig{
			Timeout:       Duration(72 * time.Hour),
			SweepInterval: Duration(10 * time.Minute),
		},
		Validation: llm.DefaultValidationConfig(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Generation.Endpoint == "" {
		return fmt.Errorf("generation.endpoint is required")
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}
	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("generation.max_retries must not be negative")
	}
	if c.RateLimit.Calls <= 0 {
		return fmt.Errorf("rate_limit.calls must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if c.Source.Dir == "" {
		return fmt.Errorf("source.dir is required")
	}
	if c.Review.SweepInterval <= 0 {
		return fmt.Errorf("review.sweep_interval must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one; non-zero values in other take
// precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Generation.Endpoint != "" {
		c.Generation.Endpoint = other.Generation.Endpoint
	}
	if other.Generation.Model != "" {
		c.Generation.Model = other.Generation.Model
	}
	if other.Generation.APIKey != "" {
		c.Generation.APIKey = other.Generation.APIKey
	}
	if other.Generation.Timeout != 0 {
		c.Generation.Timeout = other.Generation.Timeout
	}
	if other.Generation.MaxRetries != 0 {
		c.Generation.MaxRetries = other.Generation.MaxRetries
	}
	if other.Generation.MaxTokens != 0 {
		c.Generation.MaxTokens = other.Generation.MaxTokens
	}

	if other.RateLimit.Calls != 0 {
		c.RateLimit.Calls = other.RateLimit.Calls
	}
	if other.RateLimit.Window != 0 {
		c.RateLimit.Window = other.RateLimit.Window
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	if other.Source.Dir != "" {
		c.Source.Dir = other.Source.Dir
	}
	if len(other.Source.Include) > 0 {
		c.Source.Include = other.Source.Include
	}
	if len(other.Source.Exclude) > 0 {
		c.Source.Exclude = other.Source.Exclude
	}
	if other.Source.Debounce != 0 {
		c.Source.Debounce = other.Source.Debounce
	}

	if other.Documents.Dir != "" {
		c.Documents.Dir = other.Documents.Dir
	}

	if other.Review.Timeout != 0 {
		c.Review.Timeout = other.Review.Timeout
	}
	if other.Review.SweepInterval != 0 {
		c.Review.SweepInterval = other.Review.SweepInterval
	}

	if other.Validation.MinLength != 0 {
		c.Validation.MinLength = other.Validation.MinLength
	}
	if len(other.Validation.ErrorSignals) > 0 {
		c.Validation.ErrorSignals = other.Validation.ErrorSignals
	}
	if len(other.Validation.RequiredKeywords) > 0 {
		c.Validation.RequiredKeywords = other.Validation.RequiredKeywords
	}
}

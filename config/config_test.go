package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Generation.Endpoint = "" }},
		{"missing model", func(c *Config) { c.Generation.Model = "" }},
		{"zero timeout", func(c *Config) { c.Generation.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.Generation.MaxRetries = -1 }},
		{"zero rate limit calls", func(c *Config) { c.RateLimit.Calls = 0 }},
		{"zero rate limit window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"missing source dir", func(c *Config) { c.Source.Dir = "" }},
		{"zero sweep interval", func(c *Config) { c.Review.SweepInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contentfactory.yaml")
	content := `
generation:
  endpoint: https://api.example.com/v1/chat/completions
  model: test-model
  timeout: 90s
rate_limit:
  calls: 5
  window: 30s
review:
  timeout: 48h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)

	c := DefaultConfig()
	c.Merge(loaded)

	assert.Equal(t, "https://api.example.com/v1/chat/completions", c.Generation.Endpoint)
	assert.Equal(t, "test-model", c.Generation.Model)
	assert.Equal(t, 90*time.Second, c.Generation.Timeout.Std())
	assert.Equal(t, 5, c.RateLimit.Calls)
	assert.Equal(t, 30*time.Second, c.RateLimit.Window.Std())
	assert.Equal(t, 48*time.Hour, c.Review.Timeout.Std())
	// Untouched sections keep their defaults.
	assert.Equal(t, "sources", c.Source.Dir)
	assert.NotZero(t, c.Validation.MinLength)
}

func TestMergePrecedence(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Generation: GenerationConfig{Model: "override", MaxTokens: 2048},
		NATS:       NATSConfig{URL: "nats://localhost:4222"},
		Source:     SourceConfig{Include: []string{"inbox/**/*.md"}},
	})

	assert.Equal(t, "override", base.Generation.Model)
	assert.Equal(t, 2048, base.Generation.MaxTokens)
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
	assert.Equal(t, []string{"inbox/**/*.md"}, base.Source.Include)
	// Zero values in the overlay never clobber defaults.
	assert.NotEmpty(t, base.Generation.Endpoint)
	assert.NotZero(t, base.RateLimit.Calls)
}

func TestDurationAcceptsNanosecondIntegers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contentfactory.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  timeout: 60000000000\n"), 0644))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, loaded.Generation.Timeout.Std())
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	original := DefaultConfig()
	original.Generation.Model = "round-trip"
	require.NoError(t, original.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "round-trip", loaded.Generation.Model)
	assert.Equal(t, original.RateLimit.Calls, loaded.RateLimit.Calls)
}

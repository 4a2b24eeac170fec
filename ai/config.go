// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for embedding providers.
type Config struct {
	// Host is the base URL of the OpenAI-compatible embedding API.
	// Example: "http://localhost:11434/v1" for a local server.
	Host string

	// Model is the embedding model identifier.
	// Example: "text-embedding-ada-002", "nomic-embed-text"
	Model string

	// APIKey authenticates against hosted providers. Local servers
	// generally ignore it; "none" is sent when empty.
	APIKey string

	// BatchSize is the maximum number of texts per embedding request.
	// Default: 100
	BatchSize int

	// BatchDelay is the pause between consecutive batch requests.
	// Default: 100ms
	BatchDelay time.Duration

	// RequestDelay is the pause between per-item fallback requests after
	// a batch fails. Default: 50ms
	RequestDelay time.Duration

	// MaxRetries is the attempt count for a failing request. Default: 3
	MaxRetries int

	// RetryBaseDelay is the initial backoff delay, doubled per attempt.
	// Default: 1s
	RetryBaseDelay time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the API key for hosted providers.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBatchSize sets the maximum number of texts per request.
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// WithBatchDelay sets the pause between batch requests.
func WithBatchDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.BatchDelay = d
	}
}

// WithRequestDelay sets the pause between per-item fallback requests.
func WithRequestDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestDelay = d
	}
}

// WithMaxRetries sets the attempt count for failing requests.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRetryBaseDelay sets the initial backoff delay.
func WithRetryBaseDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryBaseDelay = d
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Host:           "http://localhost:11434/v1",
		Model:          "text-embedding-ada-002",
		BatchSize:      100,
		BatchDelay:     100 * time.Millisecond,
		RequestDelay:   50 * time.Millisecond,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("https://api.openai.com/v1"),
//	    WithModel("text-embedding-3-small"),
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be at least 1")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	return nil
}

// modelDimensions maps well-known embedding models to their output
// dimensionality, saving a probe request.
var modelDimensions = map[string]int{
	"text-embedding-ada-002":                  1536,
	"text-embedding-3-small":                  1536,
	"text-embedding-3-large":                  3072,
	"sentence-transformers/all-MiniLM-L6-v2":  384,
	"sentence-transformers/all-mpnet-base-v2": 768,
}

// DefaultDimension is assumed when the model is unknown and the service
// cannot be probed.
const DefaultDimension = 1536

// KnownDimension returns the dimensionality of a well-known model.
func KnownDimension(model string) (int, bool) {
	dim, ok := modelDimensions[model]
	return dim, ok
}

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


package docindex

import (
	"errors"
	"os"
	"strconv"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/chunker"
	"github.com/poiesic/docindex/retriever"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "training_docs"

// Config holds the application-level configuration for a Corpus.
type Config struct {
	// DataDir is the directory holding the Badger database.
	DataDir string

	// Collection names the vector collection inside the database.
	Collection string

	// DocumentsRoot is the directory scanned during population. Empty
	// means the corpus starts without ingesting anything.
	DocumentsRoot string

	// ChunkSize and ChunkOverlap configure document chunking.
	ChunkSize    int
	ChunkOverlap int

	// TopK and Threshold are the retrieval defaults.
	TopK      int
	Threshold float64

	// EmbeddingHost, EmbeddingModel and APIKey configure the embedding
	// provider.
	EmbeddingHost  string
	EmbeddingModel string
	APIKey         string

	// MaxDocumentBytes caps the size of a single document file.
	MaxDocumentBytes int64

	// PoolSize is the number of concurrent document extraction workers.
	PoolSize int

	// SupportedExtensions overrides the default document extensions when
	// non-empty.
	SupportedExtensions []string
}

// Option configures a Config.
type Option func(*Config)

// WithDataDir sets the database directory.
func WithDataDir(dir string) Option {
	return func(c *Config) { c.DataDir = dir }
}

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(c *Config) { c.Collection = name }
}

// WithDocumentsRoot sets the directory scanned during population.
func WithDocumentsRoot(root string) Option {
	return func(c *Config) { c.DocumentsRoot = root }
}

// WithChunking sets the chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(c *Config) {
		c.ChunkSize = size
		c.ChunkOverlap = overlap
	}
}

// WithRetrieval sets the default result count and similarity threshold.
func WithRetrieval(topK int, threshold float64) Option {
	return func(c *Config) {
		c.TopK = topK
		c.Threshold = threshold
	}
}

// WithEmbedding sets the embedding service host and model.
func WithEmbedding(host, model string) Option {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.EmbeddingModel = model
	}
}

// WithAPIKey sets the embedding provider API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithMaxDocumentSize sets the per-file size limit in bytes.
func WithMaxDocumentSize(bytes int64) Option {
	return func(c *Config) { c.MaxDocumentBytes = bytes }
}

// WithPoolSize sets the number of extraction workers.
func WithPoolSize(n int) Option {
	return func(c *Config) { c.PoolSize = n }
}

// WithSupportedExtensions overrides the document extensions considered
// during directory discovery.
func WithSupportedExtensions(exts []string) Option {
	return func(c *Config) { c.SupportedExtensions = exts }
}

// DefaultConfig returns a Config with the standard defaults.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		DataDir:        "data/vectorstore",
		Collection:     DefaultCollection,
		ChunkSize:      chunker.DefaultChunkSize,
		ChunkOverlap:   chunker.DefaultChunkOverlap,
		TopK:           retriever.DefaultTopK,
		Threshold:      retriever.DefaultThreshold,
		EmbeddingHost:  aiDefaults.Host,
		EmbeddingModel: aiDefaults.Model,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// FromEnv overlays configuration from environment variables, leaving
// unset variables alone. Numeric variables that fail to parse are
// ignored. Recognized variables: EMBEDDING_API_URL, EMBEDDING_MODEL,
// LLM_API_KEY, RAG_TOP_K, RAG_SIMILARITY_THRESHOLD, CHUNK_SIZE,
// CHUNK_OVERLAP, MAX_DOCUMENT_SIZE_MB.
func (c *Config) FromEnv() {
	if v := os.Getenv("EMBEDDING_API_URL"); v != "" {
		c.EmbeddingHost = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("RAG_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TopK = n
		}
	}
	if v := os.Getenv("RAG_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		}
	}
	if v := os.Getenv("CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkSize = n
		}
	}
	if v := os.Getenv("CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkOverlap = n
		}
	}
	if v := os.Getenv("MAX_DOCUMENT_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxDocumentBytes = int64(n) << 20
		}
	}
}

// Validate checks that the configuration is complete enough to open a
// corpus.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: DataDir is required")
	}
	if c.Collection == "" {
		return errors.New("config: Collection is required")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.ChunkOverlap < 0 {
		return errors.New("config: ChunkOverlap must not be negative")
	}
	if c.TopK <= 0 {
		return errors.New("config: TopK must be positive")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.New("config: Threshold must be between 0 and 1")
	}
	return c.embeddingConfig().Validate()
}

// embeddingConfig derives the embedding provider configuration.
func (c *Config) embeddingConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.EmbeddingHost),
		ai.WithModel(c.EmbeddingModel),
		ai.WithAPIKey(c.APIKey),
	)
}

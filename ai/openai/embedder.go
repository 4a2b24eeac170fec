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


// Package openai implements ai.Embedder against OpenAI-compatible embedding
// APIs, including local servers such as Ollama, LocalAI and vLLM.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/docindex/ai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
//
// Batches are retried with exponential backoff; a batch that keeps failing
// degrades to per-item requests so one poisonous text cannot sink its
// neighbors. Items that fail even individually receive zero vectors and are
// reported to the caller.
type Embedder struct {
	embedder embeddings.Embedder
	config   *ai.Config
	logger   *slog.Logger

	mu  sync.Mutex
	dim int
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// "none" keeps local OpenAI-compatible services happy when no key is set
	token := config.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		config:   config,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ai.ErrEmptyText
	}

	e.logger.Debug("generating embedding for single text", "length", len(text))

	vec, err := e.embedSingle(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingFailed, err)
	}
	return vec, nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// The result is always parallel to texts; see ai.BatchReport for items that
// were zero-filled after the per-item fallback also failed.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, *ai.BatchReport, error) {
	report := &ai.BatchReport{Requested: len(texts)}
	if len(texts) == 0 {
		return nil, report, nil
	}

	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		if start > 0 {
			if err := sleepCtx(ctx, e.config.BatchDelay); err != nil {
				return nil, report, err
			}
		}

		end := min(start+e.config.BatchSize, len(texts))
		if err := e.embedBatch(ctx, texts, start, end, vectors, report); err != nil {
			return nil, report, err
		}
	}

	if report.Degraded() {
		e.logger.Warn("batch embedding degraded", "requested", report.Requested, "failed", len(report.Failed))
	}
	return vectors, report, nil
}

// embedBatch fills vectors[start:end], degrading to per-item requests when
// the batch as a whole keeps failing.
func (e *Embedder) embedBatch(ctx context.Context, texts []string, start, end int, vectors [][]float32, report *ai.BatchReport) error {
	batch := texts[start:end]

	var result [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		r, err := e.embedder.EmbedDocuments(ctx, batch)
		if err != nil {
			return err
		}
		if len(r) != len(batch) {
			return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(r))
		}
		result = r
		return nil
	}, e.config.MaxRetries, e.config.RetryBaseDelay)

	if err == nil {
		copy(vectors[start:], result)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	e.logger.Warn("batch embedding failed, falling back to single requests",
		"batch_start", start, "batch_size", len(batch), "err", err)

	for i, text := range batch {
		if i > 0 {
			if err := sleepCtx(ctx, e.config.RequestDelay); err != nil {
				return err
			}
		}

		vec, err := e.embedSingle(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("embedding failed for text, using zero vector",
				"index", start+i, "err", err)
			vectors[start+i] = make([]float32, e.Dimension(ctx))
			report.Failed = append(report.Failed, start+i)
			continue
		}
		vectors[start+i] = vec
	}
	return nil
}

func (e *Embedder) embedSingle(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := ai.RetryWithBackoff(ctx, func() error {
		r, err := e.embedder.EmbedDocuments(ctx, []string{text})
		if err != nil {
			return err
		}
		if len(r) == 0 || len(r[0]) == 0 {
			return fmt.Errorf("embedder returned empty result")
		}
		vec = r[0]
		return nil
	}, e.config.MaxRetries, e.config.RetryBaseDelay)
	return vec, err
}

// Dimension returns the embedding dimensionality for the configured model.
// Well-known models resolve from a static table; anything else is probed
// with a throwaway request on first call and cached. When the service is
// unreachable ai.DefaultDimension is assumed without caching, so a later
// call can still resolve the real value.
func (e *Embedder) Dimension(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dim > 0 {
		return e.dim
	}

	if dim, ok := ai.KnownDimension(e.config.Model); ok {
		e.dim = dim
		return dim
	}

	vecs, err := e.embedder.EmbedDocuments(ctx, []string{"test"})
	if err == nil && len(vecs) > 0 && len(vecs[0]) > 0 {
		e.dim = len(vecs[0])
		e.logger.Debug("probed embedding dimension", "model", e.config.Model, "dim", e.dim)
		return e.dim
	}

	e.logger.Warn("could not determine embedding dimension, assuming default",
		"model", e.config.Model, "default", ai.DefaultDimension, "err", err)
	return ai.DefaultDimension
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

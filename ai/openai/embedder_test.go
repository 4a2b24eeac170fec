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


package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docindex/ai"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// newEmbeddingServer serves an OpenAI-compatible /embeddings endpoint.
// vectorFor decides the vector per input text; returning nil fails the
// whole request with a 500.
func newEmbeddingServer(t *testing.T, vectorFor func(text string) []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type entry struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]entry, 0, len(req.Input))
		for i, text := range req.Input {
			vec := vectorFor(text)
			if vec == nil {
				http.Error(w, "embedding backend unavailable", http.StatusInternalServerError)
				return
			}
			data = append(data, entry{Object: "embedding", Index: i, Embedding: vec})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithModel("test-embed"),
		ai.WithMaxRetries(1),
		ai.WithRetryBaseDelay(time.Millisecond),
		ai.WithBatchDelay(time.Millisecond),
		ai.WithRequestDelay(time.Millisecond),
	)
}

func TestEmbedText(t *testing.T) {
	server := newEmbeddingServer(t, func(text string) []float64 {
		return []float64{float64(len(text)), 0.5, -0.5}
	})
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vec, err := embedder.EmbedText(context.Background(), "front desk")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	assert.InDelta(t, 10.0, float64(vec[0]), 1e-6)
}

func TestEmbedTextEmpty(t *testing.T) {
	server := newEmbeddingServer(t, func(string) []float64 { return []float64{1} })
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "   ")
	assert.ErrorIs(t, err, ai.ErrEmptyText)
}

func TestEmbedTextsBatch(t *testing.T) {
	server := newEmbeddingServer(t, func(text string) []float64 {
		return []float64{float64(len(text)), 1, 2}
	})
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vectors, report, err := embedder.EmbedTexts(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 2, report.Requested)
	assert.False(t, report.Degraded())
	assert.InDelta(t, 5.0, float64(vectors[0][0]), 1e-6)
	assert.InDelta(t, 4.0, float64(vectors[1][0]), 1e-6)
}

func TestEmbedTextsFallbackZeroFills(t *testing.T) {
	server := newEmbeddingServer(t, func(text string) []float64 {
		if text == "bad" {
			return nil
		}
		return []float64{1, 2, 3}
	})
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	// The batch containing "bad" fails as a whole, degrades to single
	// requests, and only the bad item ends up zero-filled.
	vectors, report, err := embedder.EmbedTexts(context.Background(), []string{"alpha", "bad", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.False(t, ai.IsZero(vectors[0]))
	assert.True(t, ai.IsZero(vectors[1]))
	assert.False(t, ai.IsZero(vectors[2]))

	assert.True(t, report.Degraded())
	assert.Equal(t, []int{1}, report.Failed)
	assert.Len(t, vectors[1], 3, "zero vector matches probed dimension")
}

func TestEmbedTextsEmpty(t *testing.T) {
	server := newEmbeddingServer(t, func(string) []float64 { return []float64{1} })
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vectors, report, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, report.Requested)
}

func TestDimension(t *testing.T) {
	server := newEmbeddingServer(t, func(string) []float64 {
		return []float64{0, 1, 2, 3}
	})
	defer server.Close()

	// Unknown model: probed from the service.
	probed, err := newEmbedder(testConfig(server.URL))
	require.NoError(t, err)
	assert.Equal(t, 4, probed.Dimension(context.Background()))

	// Well-known model: resolved statically, no request needed.
	cfg := testConfig(server.URL)
	cfg.Model = "text-embedding-ada-002"
	known, err := newEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1536, known.Dimension(context.Background()))
}

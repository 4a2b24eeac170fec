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


package retriever

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/ai/mock"
	"github.com/poiesic/docindex/chunker"
	"github.com/poiesic/docindex/processor"
	"github.com/poiesic/docindex/reader"
	"github.com/poiesic/docindex/storage"
	"github.com/poiesic/docindex/storage/badger"
)

func newMemoryStore(t *testing.T) *badger.Collection {
	t.Helper()
	store, err := badger.NewMemoryCollection("retriever_test")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newDocsProcessor() *processor.Processor {
	return processor.New(reader.New(), chunker.New(500, 50))
}

func writeDocs(t *testing.T, dir string) {
	t.Helper()
	docs := map[string]string{
		"greetings.txt": "Welcome every guest warmly. Use their name when the reservation shows it.",
		"billing.txt":   "Refunds above the nightly rate need approval. Payment disputes go to the duty manager.",
	}
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	store := newMemoryStore(t)

	_, err := New(nil, mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = New(store, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestInitPopulatesEmptyCollection(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir)

	store := newMemoryStore(t)
	embedder := mock.NewMockEmbedder()

	r, err := New(store, embedder, newDocsProcessor(), WithDocumentsRoot(dir))
	require.NoError(t, err)
	require.NoError(t, r.Init(context.Background()))

	assert.Equal(t, StateReady, r.State())
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Greater(t, count, 0)
	assert.Greater(t, embedder.CallCount(), 0)
}

func TestInitSkipsPopulatedCollection(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, storage.Document{
		Content: "existing chunk", Vector: []float32{1, 0},
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	r, err := New(store, embedder, newDocsProcessor(), WithDocumentsRoot(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, r.Init(ctx))

	assert.Equal(t, StateReady, r.State())
	assert.Zero(t, embedder.CallCount(), "populated collection must not be re-embedded")
}

func TestInitDegradedWithoutDocsRoot(t *testing.T) {
	store := newMemoryStore(t)

	r, err := New(store, mock.NewMockEmbedder(), nil)
	require.NoError(t, err)
	require.NoError(t, r.Init(context.Background()))

	assert.Equal(t, StateReady, r.State())
}

func TestInitSkipsFailedEmbeddings(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir)

	store := newMemoryStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, *ai.BatchReport, error) {
		vectors := make([][]float32, len(texts))
		report := &ai.BatchReport{Requested: len(texts)}
		for i := range texts {
			if i == 0 {
				vectors[i] = make([]float32, 4)
				report.Failed = append(report.Failed, i)
				continue
			}
			vectors[i] = []float32{1, 0, 0, 0}
		}
		return vectors, report, nil
	}

	r, err := New(store, embedder, newDocsProcessor(), WithDocumentsRoot(dir))
	require.NoError(t, err)
	require.NoError(t, r.Init(context.Background()))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "zero-filled chunk must not be stored")
}

func TestRetrieveEmptyQuery(t *testing.T) {
	store := newMemoryStore(t)
	embedder := mock.NewMockEmbedder()

	r, err := New(store, embedder, nil)
	require.NoError(t, err)

	assert.Empty(t, r.Retrieve(context.Background(), "   ", 5, 0))
	assert.Zero(t, embedder.CallCount(), "empty query must not reach the embedder")
}

func TestRetrieveRanksAndFilters(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx,
		storage.Document{
			ID: "close", Content: "refund policy details", Vector: []float32{1, 0},
			Metadata: map[string]any{"source": "docs/billing.txt"},
		},
		storage.Document{
			ID: "distant", Content: "pool opening hours", Vector: []float32{0, 1},
		},
	)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	r, err := New(store, embedder, nil)
	require.NoError(t, err)

	results := r.Retrieve(ctx, "how do refunds work", 5, 0.7)
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].ID)
	assert.Equal(t, "docs/billing.txt", results[0].Source)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	// Zero threshold keeps the distant record too; its source defaults.
	all := r.Retrieve(ctx, "anything", 5, 0)
	require.Len(t, all, 2)
	assert.Equal(t, "unknown", all[1].Source)
}

func TestSearchByKeywords(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, storage.Document{
		ID: "kw", Content: "luggage assistance", Vector: []float32{1, 0},
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	var captured string
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		captured = text
		return []float32{1, 0}, nil
	}

	r, err := New(store, embedder, nil)
	require.NoError(t, err)

	results := r.SearchByKeywords(ctx, []string{"luggage", "assistance"}, 3)
	require.Len(t, results, 1)
	assert.Equal(t, "luggage assistance", captured)

	assert.Empty(t, r.SearchByKeywords(ctx, nil, 3))
}

func TestAddDocument(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.5, 0.5}, nil
	}

	r, err := New(store, embedder, nil)
	require.NoError(t, err)

	err = r.AddDocument(ctx, "New parking instructions", map[string]any{
		"source":   "manual entry",
		"chunk_id": "manual_0",
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "manual_0")
	require.NoError(t, err)
	assert.Equal(t, "New parking instructions", doc.Content)
}

func TestRefresh(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir)

	store := newMemoryStore(t)
	ctx := context.Background()

	// Seed a stale record that a refresh should wipe.
	_, err := store.Add(ctx, storage.Document{ID: "stale", Content: "old", Vector: []float32{9}})
	require.NoError(t, err)

	r, err := New(store, mock.NewMockEmbedder(), newDocsProcessor(), WithDocumentsRoot(dir))
	require.NoError(t, err)
	require.NoError(t, r.Refresh(ctx))

	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestStats(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, storage.Document{ID: "s", Content: "chunk", Vector: []float32{1}})
	require.NoError(t, err)

	r, err := New(store, mock.NewMockEmbedder(), newDocsProcessor(),
		WithEmbeddingModel("text-embedding-ada-002"))
	require.NoError(t, err)

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, "retriever_test", stats.CollectionName)
	assert.Equal(t, "text-embedding-ada-002", stats.EmbeddingModel)
	assert.Equal(t, 500, stats.ChunkSize)
	assert.Equal(t, 50, stats.ChunkOverlap)
}

func TestIdentifyContentGaps(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, storage.Document{
		ID: "covered", Content: "refund handling", Vector: []float32{1, 0},
		Metadata: map[string]any{"source": "docs/billing.txt"},
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "refund questions" {
			return []float32{1, 0}, nil
		}
		return []float32{0, 1}, nil
	}

	r, err := New(store, embedder, nil)
	require.NoError(t, err)

	analysis := r.IdentifyContentGaps(ctx, []string{
		"refund questions",
		"spa treatment booking prices",
	})

	assert.Equal(t, 2, analysis.TotalQueriesAnalyzed)
	// Both queries return fewer than two results; the covered one still
	// counts as a gap but reports its best score.
	require.Equal(t, 2, analysis.GapCount)
	assert.Equal(t, "refund questions", analysis.PotentialGaps[0].Query)
	assert.Equal(t, 1, analysis.PotentialGaps[0].ResultCount)
	assert.InDelta(t, 1.0, analysis.PotentialGaps[0].BestScore, 1e-6)
	assert.Zero(t, analysis.PotentialGaps[1].ResultCount)

	require.NotEmpty(t, analysis.Recommendations)
	assert.Contains(t, analysis.Recommendations[0], "booking")
}

func TestIdentifyContentGapsNoGaps(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx,
		storage.Document{ID: "c1", Content: "refund policy", Vector: []float32{1, 0}},
		storage.Document{ID: "c2", Content: "refund timing", Vector: []float32{0.99, 0.01}},
	)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	r, err := New(store, embedder, nil)
	require.NoError(t, err)

	analysis := r.IdentifyContentGaps(ctx, []string{"refunds"})
	assert.Zero(t, analysis.GapCount)
	assert.Equal(t, []string{"No significant content gaps identified"}, analysis.Recommendations)
}

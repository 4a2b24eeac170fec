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
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/processor"
	"github.com/poiesic/docindex/storage"
)

// Construction errors
var (
	// ErrStoreRequired indicates New was called without a collection store.
	ErrStoreRequired = errors.New("collection store is required")

	// ErrEmbedderRequired indicates New was called without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
)

// State describes the retriever lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StatePopulating    State = "populating"
	StateReady         State = "ready"
)

// DefaultTopK is the default number of results per query.
const DefaultTopK = 5

// DefaultThreshold is the default minimum similarity score.
const DefaultThreshold = 0.7

// Retriever answers queries against a vector collection, populating it from
// a documents directory when empty.
type Retriever struct {
	store          storage.CollectionStore
	embedder       ai.Embedder
	processor      *processor.Processor
	docsRoot       string
	topK           int
	threshold      float64
	embeddingModel string
	progressWriter io.Writer
	logger         *slog.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithDocumentsRoot sets the directory scanned during population. Without
// it the retriever starts empty in a degraded mode.
func WithDocumentsRoot(root string) Option {
	return func(r *Retriever) {
		r.docsRoot = root
	}
}

// WithTopK sets the default result count for queries.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithThreshold sets the default minimum similarity score.
func WithThreshold(threshold float64) Option {
	return func(r *Retriever) {
		if threshold >= 0 {
			r.threshold = threshold
		}
	}
}

// WithEmbeddingModel records the model name reported by Stats.
func WithEmbeddingModel(model string) Option {
	return func(r *Retriever) {
		r.embeddingModel = model
	}
}

// WithProgressWriter enables population progress reporting, typically to
// os.Stderr.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Retriever) {
		r.progressWriter = w
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Retriever. The processor may be nil when population from a
// documents directory is not needed.
func New(store storage.CollectionStore, embedder ai.Embedder, proc *processor.Processor, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		store:     store,
		embedder:  embedder,
		processor: proc,
		topK:      DefaultTopK,
		threshold: DefaultThreshold,
		logger:    slog.Default().With("component", "retriever"),
		state:     StateUninitialized,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// State returns the current lifecycle state.
func (r *Retriever) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Retriever) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Init prepares the retriever: a collection that already holds records is
// used as-is, an empty one is populated from the documents root.
func (r *Retriever) Init(ctx context.Context) error {
	count, err := r.store.Count(ctx)
	if err != nil {
		r.logger.Warn("could not check collection status, attempting population", "err", err)
		return r.populate(ctx)
	}

	if count == 0 {
		r.logger.Info("collection is empty, populating from documents")
		return r.populate(ctx)
	}

	r.logger.Info("collection loaded", "documents", count)
	r.setState(StateReady)
	return nil
}

// populate processes the documents root, embeds every chunk and stores the
// results. Chunks whose embedding failed are skipped rather than stored
// with zero vectors; they would only pollute similarity search.
func (r *Retriever) populate(ctx context.Context) error {
	r.setState(StatePopulating)

	if r.docsRoot == "" || r.processor == nil {
		r.logger.Warn("no documents root configured, starting with empty collection")
		r.setState(StateReady)
		return nil
	}

	records, err := r.processor.ProcessAll(ctx, r.docsRoot)
	if err != nil {
		r.setState(StateUninitialized)
		return err
	}
	if len(records) == 0 {
		r.logger.Warn("no documents found for population", "root", r.docsRoot)
		r.setState(StateReady)
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Content
	}

	vectors, report, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		r.setState(StateUninitialized)
		return err
	}

	failed := make(map[int]struct{}, len(report.Failed))
	for _, idx := range report.Failed {
		failed[idx] = struct{}{}
	}

	var tracker *ProgressTracker
	if r.progressWriter != nil {
		tracker = NewProgressTracker(r.progressWriter, len(records), 100)
		tracker.Start()
	}

	stored := 0
	for i, record := range records {
		if tracker != nil {
			tracker.Increment(1)
		}
		if _, bad := failed[i]; bad {
			r.logger.Warn("skipping chunk with failed embedding", "source", record.Source, "index", i)
			continue
		}

		doc := storage.Document{
			Content:  record.Content,
			Vector:   vectors[i],
			Metadata: record.Metadata,
		}
		if id, ok := record.Metadata["chunk_id"].(string); ok {
			doc.ID = id
		}

		if _, err := r.store.Add(ctx, doc); err != nil {
			r.logger.Error("failed to store chunk", "source", record.Source, "err", err)
			continue
		}
		stored++
	}

	if tracker != nil {
		tracker.Finish()
	}

	r.logger.Info("collection populated", "chunks", stored, "skipped", len(records)-stored)
	r.setState(StateReady)
	return nil
}

// Retrieve returns the most relevant chunks for a query. Non-positive topK
// and negative threshold fall back to the configured defaults; an explicit
// zero threshold disables filtering. Failures are logged and produce an
// empty result rather than an error, keeping callers on the happy path.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, threshold float64) []core.RetrievedResult {
	if strings.TrimSpace(query) == "" {
		r.logger.Warn("empty query provided")
		return nil
	}

	if topK <= 0 {
		topK = r.topK
	}
	if threshold < 0 {
		threshold = r.threshold
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("failed to embed query", "err", err)
		return nil
	}

	hits, err := r.store.Search(ctx, vector, topK, threshold)
	if err != nil {
		r.logger.Error("similarity search failed", "err", err)
		return nil
	}

	results := make([]core.RetrievedResult, 0, len(hits))
	for _, hit := range hits {
		source := "unknown"
		if s, ok := hit.Metadata["source"].(string); ok && s != "" {
			source = s
		}
		results = append(results, core.RetrievedResult{
			ID:       hit.ID,
			Content:  hit.Content,
			Metadata: hit.Metadata,
			Score:    hit.Score,
			Source:   source,
		})
	}

	r.logger.Info("retrieved relevant documents", "query_length", len(query), "results", len(results))
	return results
}

// SearchByKeywords joins keywords into a single query and retrieves with
// the default threshold.
func (r *Retriever) SearchByKeywords(ctx context.Context, keywords []string, topK int) []core.RetrievedResult {
	if len(keywords) == 0 {
		return nil
	}
	return r.Retrieve(ctx, strings.Join(keywords, " "), topK, -1)
}

// AddDocument embeds one content chunk and stores it immediately.
func (r *Retriever) AddDocument(ctx context.Context, content string, metadata map[string]any) error {
	vector, err := r.embedder.EmbedText(ctx, content)
	if err != nil {
		return err
	}

	doc := storage.Document{Content: content, Vector: vector, Metadata: metadata}
	if id, ok := metadata["chunk_id"].(string); ok {
		doc.ID = id
	}

	if _, err := r.store.Add(ctx, doc); err != nil {
		return err
	}

	source := "unknown"
	if s, ok := metadata["source"].(string); ok {
		source = s
	}
	r.logger.Info("added new document", "source", source)
	return nil
}

// Refresh clears the collection and repopulates it from the documents root.
func (r *Retriever) Refresh(ctx context.Context) error {
	r.logger.Info("refreshing collection")

	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	if r.processor != nil {
		r.processor.Reset()
	}
	return r.populate(ctx)
}

// Stats describes the retriever and its collection.
type Stats struct {
	TotalDocuments int
	CollectionName string
	EmbeddingModel string
	ChunkSize      int
	ChunkOverlap   int
	State          State
}

// Stats returns collection statistics.
func (r *Retriever) Stats(ctx context.Context) (Stats, error) {
	info, err := r.store.Info(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalDocuments: info.Count,
		CollectionName: info.Name,
		EmbeddingModel: r.embeddingModel,
		State:          r.State(),
	}
	if r.processor != nil {
		ps := r.processor.Stats()
		stats.ChunkSize = ps.ChunkSize
		stats.ChunkOverlap = ps.ChunkOverlap
	}
	return stats, nil
}

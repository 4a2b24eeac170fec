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


// Package docindex assembles the document indexing pipeline behind a
// single facade. A Corpus owns the vector store, the embedder and the
// processing chain, and exposes the retrieval operations the rest of an
// application needs.
package docindex

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/ai/openai"
	"github.com/poiesic/docindex/chunker"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/processor"
	"github.com/poiesic/docindex/reader"
	"github.com/poiesic/docindex/retriever"
	"github.com/poiesic/docindex/storage"
	"github.com/poiesic/docindex/storage/badger"
)

// Corpus wires the pipeline together: reader, chunker, processor,
// embedder, vector store and retriever.
type Corpus struct {
	store     *badger.Collection
	embedder  ai.Embedder
	processor *processor.Processor
	retriever *retriever.Retriever
	logger    *slog.Logger
}

// CorpusOption configures corpus assembly.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	embedder       ai.Embedder
	progressWriter io.Writer
	inMemory       bool
}

// WithEmbedder injects a pre-built embedder instead of constructing one
// from the configuration.
func WithEmbedder(e ai.Embedder) CorpusOption {
	return func(o *corpusOptions) { o.embedder = e }
}

// WithProgressWriter enables population progress reporting, typically
// to os.Stderr.
func WithProgressWriter(w io.Writer) CorpusOption {
	return func(o *corpusOptions) { o.progressWriter = w }
}

// WithInMemoryStore keeps the vector store in memory. Useful for tests
// and throwaway runs.
func WithInMemoryStore() CorpusOption {
	return func(o *corpusOptions) { o.inMemory = true }
}

// Open assembles a Corpus from the configuration and initializes the
// retriever, populating the collection from the documents root when it
// is empty.
func Open(ctx context.Context, cfg *Config, opts ...CorpusOption) (*Corpus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &corpusOptions{}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(cfg.DataDir, options.inMemory)
	if err != nil {
		return nil, err
	}

	store, err := badger.NewCollection(backend, cfg.Collection)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(cfg.embeddingConfig())
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	procOpts := []processor.Option{
		processor.WithMaxDocumentSize(cfg.MaxDocumentBytes),
		processor.WithPoolSize(cfg.PoolSize),
	}
	if len(cfg.SupportedExtensions) > 0 {
		procOpts = append(procOpts, processor.WithSupportedExtensions(cfg.SupportedExtensions))
	}
	proc := processor.New(reader.New(), chunker.New(cfg.ChunkSize, cfg.ChunkOverlap), procOpts...)

	retrOpts := []retriever.Option{
		retriever.WithDocumentsRoot(cfg.DocumentsRoot),
		retriever.WithTopK(cfg.TopK),
		retriever.WithThreshold(cfg.Threshold),
		retriever.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if options.progressWriter != nil {
		retrOpts = append(retrOpts, retriever.WithProgressWriter(options.progressWriter))
	}

	retr, err := retriever.New(store, embedder, proc, retrOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	if err := retr.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &Corpus{
		store:     store,
		embedder:  embedder,
		processor: proc,
		retriever: retr,
		logger:    slog.Default().With("component", "corpus"),
	}, nil
}

// Close releases the underlying storage.
func (c *Corpus) Close() error {
	if err := c.store.Close(); err != nil {
		c.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

// Retriever returns the underlying retriever.
func (c *Corpus) Retriever() *retriever.Retriever {
	return c.retriever
}

// Processor returns the underlying document processor.
func (c *Corpus) Processor() *processor.Processor {
	return c.processor
}

// Store returns the underlying collection store.
func (c *Corpus) Store() storage.CollectionStore {
	return c.store
}

// Query retrieves the most relevant chunks using the configured
// defaults.
func (c *Corpus) Query(ctx context.Context, query string) []core.RetrievedResult {
	return c.retriever.Retrieve(ctx, query, 0, -1)
}

// Refresh clears the collection and repopulates it from the documents
// root.
func (c *Corpus) Refresh(ctx context.Context) error {
	return c.retriever.Refresh(ctx)
}

// Stats returns retrieval and collection statistics.
func (c *Corpus) Stats(ctx context.Context) (retriever.Stats, error) {
	return c.retriever.Stats(ctx)
}

// Backup writes a portable JSON snapshot of the collection.
func (c *Corpus) Backup(ctx context.Context, w io.Writer) error {
	return c.store.Backup(ctx, w)
}

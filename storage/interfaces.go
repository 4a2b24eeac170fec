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


package storage

import (
	"context"
	"io"
)

// Document is the input to CollectionStore.Add. When ID is empty the store
// derives one from the content hash, so identical text maps to the same
// record.
type Document struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]any
}

// Record is the persisted form of a document: metadata values are
// string-encoded with the package codec.
type Record struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]string
}

// StoredDocument is a record read back with decoded metadata.
type StoredDocument struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// SearchHit is one similarity search result. Score is derived from the
// Euclidean distance as 1/(1+distance), so it falls in (0, 1] with 1
// meaning an exact vector match.
type SearchHit struct {
	ID       string
	Content  string
	Metadata map[string]any
	Score    float64
	Distance float64
}

// Update describes a partial record update. Nil fields are left unchanged;
// a non-nil Metadata replaces the stored metadata wholesale.
type Update struct {
	Content  *string
	Vector   []float32
	Metadata map[string]any
}

// CollectionInfo describes a collection.
type CollectionInfo struct {
	Name  string
	Count int
	Path  string
}

// CollectionStore persists one named collection of embedded documents.
// Implementations must be safe for concurrent use.
type CollectionStore interface {
	// Add upserts documents and returns their IDs in input order.
	// Documents without an ID get a content-derived one.
	Add(ctx context.Context, docs ...Document) ([]string, error)

	// Search returns up to topK records whose similarity score against
	// vector is at least minScore, ordered by score descending.
	Search(ctx context.Context, vector []float32, topK int, minScore float64) ([]SearchHit, error)

	// Get retrieves a record by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*StoredDocument, error)

	// Update applies a partial update to an existing record.
	// Returns ErrNotFound if the record does not exist.
	Update(ctx context.Context, id string, update Update) error

	// Delete removes records by ID. Returns ErrNotFound if any is absent.
	Delete(ctx context.Context, ids ...string) error

	// Clear removes every record in the collection.
	Clear(ctx context.Context) error

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// Info returns collection metadata.
	Info(ctx context.Context) (*CollectionInfo, error)

	// Backup writes a portable JSON snapshot of the collection to w.
	Backup(ctx context.Context, w io.Writer) error

	// Close releases the underlying storage resources.
	Close() error
}

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


package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

// Collection implements storage.CollectionStore on a Badger backend.
//
// Similarity search is an exhaustive prefix scan. That is deliberate for the
// corpus sizes this store targets (thousands of chunks, not millions); an
// ANN index would buy nothing at that scale.
type Collection struct {
	backend *Backend
	name    string
	logger  *slog.Logger
}

var _ storage.CollectionStore = (*Collection)(nil)

// NewCollection creates a named collection on the given backend.
func NewCollection(backend *Backend, name string) (*Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: collection name is empty", storage.ErrInvalidQuery)
	}

	return &Collection{
		backend: backend,
		name:    name,
		logger:  slog.Default().With("component", "badger-collection", "collection", name),
	}, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Add upserts documents, deriving content-hash IDs where none is given.
func (c *Collection) Add(ctx context.Context, docs ...storage.Document) ([]string, error) {
	ids := make([]string, 0, len(docs))

	err := c.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		for i, doc := range docs {
			if strings.TrimSpace(doc.Content) == "" {
				return fmt.Errorf("%w: document %d has empty content", storage.ErrInvalidQuery, i)
			}

			id := doc.ID
			if id == "" {
				id = core.HexIDFromContent(doc.Content)
			}

			encoded, err := storage.EncodeMetadata(doc.Metadata)
			if err != nil {
				return err
			}

			record := &storage.Record{
				ID:       id,
				Content:  doc.Content,
				Vector:   doc.Vector,
				Metadata: encoded,
			}

			if err := tx.Set(makeRecordKey(c.name, id), storage.MarshalRecord(record)); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("added documents", "count", len(ids))
	return ids, nil
}

// Search scans the collection and returns the topK closest records with a
// similarity score of at least minScore. Records whose vector length does
// not match the query are skipped with a warning.
func (c *Collection) Search(ctx context.Context, vector []float32, topK int, minScore float64) ([]storage.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", storage.ErrInvalidQuery)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", storage.ErrInvalidQuery)
	}

	var hits []storage.SearchHit

	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(c.name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *storage.Record
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			if len(record.Vector) == 0 {
				continue
			}
			if len(record.Vector) != len(vector) {
				c.logger.Warn("skipping record with mismatched vector dimension",
					"id", record.ID, "have", len(record.Vector), "want", len(vector))
				continue
			}

			distance := euclideanDistance(vector, record.Vector)
			score := 1.0 / (1.0 + distance)
			if score < minScore {
				continue
			}

			hits = append(hits, storage.SearchHit{
				ID:       record.ID,
				Content:  record.Content,
				Metadata: storage.DecodeMetadata(record.Metadata),
				Score:    score,
				Distance: distance,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b storage.SearchHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Get retrieves a record by ID.
func (c *Collection) Get(ctx context.Context, id string) (*storage.StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *storage.StoredDocument
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		record, err := c.readRecord(tx, id)
		if err != nil {
			return err
		}
		doc = &storage.StoredDocument{
			ID:       record.ID,
			Content:  record.Content,
			Metadata: storage.DecodeMetadata(record.Metadata),
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Update applies a partial update to an existing record.
func (c *Collection) Update(ctx context.Context, id string, update storage.Update) error {
	return c.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		record, err := c.readRecord(tx, id)
		if err != nil {
			return err
		}

		if update.Content != nil {
			record.Content = *update.Content
		}
		if update.Vector != nil {
			record.Vector = update.Vector
		}
		if update.Metadata != nil {
			encoded, err := storage.EncodeMetadata(update.Metadata)
			if err != nil {
				return err
			}
			record.Metadata = encoded
		}

		return tx.Set(makeRecordKey(c.name, id), storage.MarshalRecord(record))
	})
}

// Delete removes records by ID.
func (c *Collection) Delete(ctx context.Context, ids ...string) error {
	return c.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRecordKey(c.name, id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear removes every record in the collection.
func (c *Collection) Clear(ctx context.Context) error {
	keys, err := c.collectKeys(ctx)
	if err != nil {
		return err
	}

	err = c.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("cleared collection", "records", len(keys))
	return nil
}

// Count returns the number of records in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(c.name)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Info returns collection metadata.
func (c *Collection) Info(ctx context.Context) (*storage.CollectionInfo, error) {
	count, err := c.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &storage.CollectionInfo{
		Name:  c.name,
		Count: count,
		Path:  c.backend.Path(),
	}, nil
}

// backupSnapshot is the portable JSON layout written by Backup.
type backupSnapshot struct {
	CollectionName string           `json:"collection_name"`
	Documents      []string         `json:"documents"`
	Metadatas      []map[string]any `json:"metadatas"`
	IDs            []string         `json:"ids"`
	CreatedAt      string           `json:"created_at"`
}

// Backup writes a JSON snapshot of the collection. Vectors are not
// included; a restore re-embeds from the document text.
func (c *Collection) Backup(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := backupSnapshot{
		CollectionName: c.name,
		Documents:      []string{},
		Metadatas:      []map[string]any{},
		IDs:            []string{},
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(c.name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *storage.Record
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			snapshot.Documents = append(snapshot.Documents, record.Content)
			snapshot.Metadatas = append(snapshot.Metadatas, storage.DecodeMetadata(record.Metadata))
			snapshot.IDs = append(snapshot.IDs, record.ID)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshot)
}

// Close closes the underlying backend.
func (c *Collection) Close() error {
	return c.backend.Close()
}

func (c *Collection) readRecord(tx *badger.Txn, id string) (*storage.Record, error) {
	item, err := tx.Get(makeRecordKey(c.name, id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return nil, err
	}

	var record *storage.Record
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalRecord(val)
		return err
	})
	return record, err
}

func (c *Collection) collectKeys(ctx context.Context) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys [][]byte
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(c.name)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	return keys, err
}

// euclideanDistance computes the L2 distance between two equal-length
// vectors.
func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

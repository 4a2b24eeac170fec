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


package processor

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docindex/chunker"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/reader"
)

// DefaultMaxDocumentBytes is the default per-file size limit (10 MiB).
const DefaultMaxDocumentBytes = 10 << 20

// DefaultPoolSize is the default number of concurrent extraction workers.
const DefaultPoolSize = 4

var defaultExtensions = []string{".txt", ".md", ".pdf", ".doc", ".docx", ".xlsx", ".xls"}

// Processor turns document files into chunk records with metadata.
type Processor struct {
	reader    *reader.Reader
	chunker   *chunker.Chunker
	supported map[string]struct{}
	maxBytes  int64
	poolSize  int
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// Option configures a Processor.
type Option func(*Processor)

// WithSupportedExtensions replaces the set of extensions considered during
// directory discovery.
func WithSupportedExtensions(exts []string) Option {
	return func(p *Processor) {
		if len(exts) == 0 {
			return
		}
		p.supported = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			p.supported[ext] = struct{}{}
		}
	}
}

// WithMaxDocumentSize sets the per-file size limit in bytes. Larger files
// are skipped with a warning.
func WithMaxDocumentSize(bytes int64) Option {
	return func(p *Processor) {
		if bytes > 0 {
			p.maxBytes = bytes
		}
	}
}

// WithPoolSize sets the number of concurrent extraction workers.
func WithPoolSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.poolSize = n
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Processor using the given reader and chunker.
func New(r *reader.Reader, c *chunker.Chunker, opts ...Option) *Processor {
	p := &Processor{
		reader:   r,
		chunker:  c,
		maxBytes: DefaultMaxDocumentBytes,
		poolSize: DefaultPoolSize,
		logger:   slog.Default().With("component", "processor"),
		seen:     make(map[string]struct{}),
	}
	WithSupportedExtensions(defaultExtensions)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessAll processes every supported document under root and returns the
// chunk records in deterministic path order. Documents whose content hash
// has already been processed are skipped, as are files over the size limit.
// Per-file failures are logged, never fatal.
func (p *Processor) ProcessAll(ctx context.Context, root string) ([]core.ChunkRecord, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("document root %s: %w", root, err)
	}

	paths, err := p.findDocuments(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		p.logger.Warn("no supported documents found", "root", root)
		return nil, nil
	}

	p.logger.Info("processing documents", "root", root, "files", len(paths))

	pool, err := ants.NewPool(p.poolSize)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	results := make([][]core.ChunkRecord, len(paths))
	var (
		wg       sync.WaitGroup
		failures sync.Map
	)

	for i, path := range paths {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			records, err := p.processClaimed(path, root)
			if err != nil {
				p.logger.Error("failed to process document", "path", path, "error", err)
				failures.Store(path, err)
				return
			}
			results[i] = records
		})
		if submitErr != nil {
			wg.Done()
			p.logger.Error("failed to submit document", "path", path, "error", submitErr)
		}
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []core.ChunkRecord
	processed := 0
	for _, records := range results {
		if len(records) > 0 {
			processed++
			all = append(all, records...)
		}
	}

	errCount := 0
	failures.Range(func(_, _ any) bool {
		errCount++
		return true
	})

	p.logger.Info("document processing completed",
		"processed", processed, "errors", errCount, "chunks", len(all))
	return all, nil
}

// processClaimed claims the file's content hash before extraction so
// concurrent workers never process duplicate content, then releases the
// claim if processing produces nothing.
func (p *Processor) processClaimed(path, root string) ([]core.ChunkRecord, error) {
	hash := p.fileHash(path)

	p.mu.Lock()
	if _, dup := p.seen[hash]; dup {
		p.mu.Unlock()
		p.logger.Debug("skipping already processed document", "path", path)
		return nil, nil
	}
	p.seen[hash] = struct{}{}
	p.mu.Unlock()

	records, err := p.ProcessDocument(path, root)
	if err != nil || len(records) == 0 {
		p.mu.Lock()
		delete(p.seen, hash)
		p.mu.Unlock()
	}
	return records, err
}

// ProcessDocument extracts, analyzes and chunks a single document. The root
// is used only to derive the relative_path metadata field; pass "" when the
// document is not part of a corpus walk.
func (p *Processor) ProcessDocument(path, root string) ([]core.ChunkRecord, error) {
	content, err := p.reader.Read(path)
	if err != nil {
		return nil, err
	}

	meta, err := p.baseMetadata(path, root, content)
	if err != nil {
		return nil, err
	}

	chunks := p.chunker.Chunk(content, chunker.MethodRecursive)

	fileHash, _ := meta["file_hash"].(string)
	records := make([]core.ChunkRecord, 0, len(chunks))
	for i, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		chunkMeta := make(map[string]any, len(meta)+4)
		for k, v := range meta {
			chunkMeta[k] = v
		}
		chunkMeta["chunk_index"] = i
		chunkMeta["total_chunks"] = len(chunks)
		chunkMeta["chunk_size"] = len(chunk)
		chunkMeta["chunk_id"] = fmt.Sprintf("%s_%d", fileHash, i)

		records = append(records, core.ChunkRecord{
			Content:  chunk,
			Metadata: chunkMeta,
			Source:   path,
		})
	}

	p.logger.Debug("chunked document", "path", path, "chunks", len(records))
	return records, nil
}

// Stats describes the processor's configuration and progress.
type Stats struct {
	ProcessedFiles      int
	SupportedExtensions []string
	MaxDocumentBytes    int64
	ChunkSize           int
	ChunkOverlap        int
}

// Stats returns processing statistics.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	processed := len(p.seen)
	p.mu.Unlock()

	exts := make([]string, 0, len(p.supported))
	for ext := range p.supported {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return Stats{
		ProcessedFiles:      processed,
		SupportedExtensions: exts,
		MaxDocumentBytes:    p.maxBytes,
		ChunkSize:           p.chunker.Size(),
		ChunkOverlap:        p.chunker.Overlap(),
	}
}

// Reset forgets which document contents have been processed, allowing a
// full re-ingestion.
func (p *Processor) Reset() {
	p.mu.Lock()
	p.seen = make(map[string]struct{})
	p.mu.Unlock()
}

// findDocuments walks root collecting supported files under the size limit,
// sorted by path.
func (p *Processor) findDocuments(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			p.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := p.supported[ext]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			p.logger.Warn("could not stat file", "path", path, "error", err)
			return nil
		}
		if info.Size() > p.maxBytes {
			p.logger.Warn("skipping large file", "path", path, "size_bytes", info.Size())
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// baseMetadata builds the per-document metadata shared by all of its chunks.
func (p *Processor) baseMetadata(path, root, content string) (map[string]any, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	rel := path
	if root != "" {
		if r, err := filepath.Rel(root, path); err == nil {
			rel = r
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	meta := map[string]any{
		"source":          path,
		"filename":        filepath.Base(path),
		"file_extension":  ext,
		"file_size_bytes": stat.Size(),
		"file_hash":       p.fileHash(path),
		"content_length":  len(content),
		"modified_time":   stat.ModTime().Unix(),
		"processed_time":  time.Now().Unix(),
		"document_type":   classifyDocument(filepath.Base(path), content, ext),
		"relative_path":   rel,
	}

	for k, v := range analyzeContent(content) {
		meta[k] = v
	}
	return meta, nil
}

// fileHash hashes the file's content, falling back to hashing the path when
// the file cannot be read.
func (p *Processor) fileHash(path string) string {
	f, err := os.Open(path)
	if err != nil {
		p.logger.Warn("could not hash file content", "path", path, "error", err)
		return core.HexIDFromContent(path)
	}
	defer f.Close()

	hash, err := core.HashReader(f)
	if err != nil {
		p.logger.Warn("could not hash file content", "path", path, "error", err)
		return core.HexIDFromContent(path)
	}
	return hash
}

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


package reader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Extractor converts a single document format to plain text.
type Extractor interface {
	// Extract returns the text content of the file at path.
	Extract(path string) (string, error)
}

// FileInfo describes a document on disk before extraction.
type FileInfo struct {
	Path      string
	Name      string
	Extension string
	SizeBytes int64
	Modified  time.Time
	Supported bool
}

// Reader dispatches document files to format-specific extractors by
// extension.
type Reader struct {
	extractors map[string]Extractor
	logger     *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExtractor registers or replaces the extractor for an extension.
// The extension is normalized to lowercase with a leading dot.
func WithExtractor(ext string, e Extractor) Option {
	return func(r *Reader) {
		if e != nil {
			r.extractors[normalizeExt(ext)] = e
		}
	}
}

// New creates a Reader with the default extractor registry: plain text for
// .txt and .md, plus PDF, DOCX and Excel extractors. Legacy .doc files are
// recognized but not extractable.
func New(opts ...Option) *Reader {
	r := &Reader{
		extractors: map[string]Extractor{
			".txt":  plainTextExtractor{},
			".md":   plainTextExtractor{},
			".pdf":  pdfExtractor{},
			".docx": docxExtractor{},
			".xlsx": excelExtractor{},
			".xls":  excelExtractor{},
		},
		logger: slog.Default().With("component", "reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SupportedExtensions returns the registered extensions, unordered.
func (r *Reader) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	return exts
}

// Supports reports whether an extractor is registered for the file's
// extension.
func (r *Reader) Supports(path string) bool {
	_, ok := r.extractors[normalizeExt(filepath.Ext(path))]
	return ok
}

// Read extracts the plain text of the document at path. It fails with
// ErrFileNotFound for missing files, ErrUnsupportedFormat for unregistered
// extensions and ErrEmptyContent when the document holds no usable text.
func (r *Reader) Read(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	ext := normalizeExt(filepath.Ext(path))

	if ext == ".doc" {
		r.logger.Warn("legacy .doc format not supported, convert to .docx", "path", path)
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	extractor, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	text, err := extractor.Extract(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtractionFailed, path, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyContent, path)
	}

	return text, nil
}

// FileInfo returns metadata for the document at path without extracting it.
func (r *Reader) FileInfo(path string) (FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := normalizeExt(filepath.Ext(path))
	_, supported := r.extractors[ext]

	return FileInfo{
		Path:      path,
		Name:      filepath.Base(path),
		Extension: ext,
		SizeBytes: stat.Size(),
		Modified:  stat.ModTime(),
		Supported: supported,
	}, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docindex/chunker"
	"github.com/poiesic/docindex/reader"
)

func newTestProcessor(opts ...Option) *Processor {
	return New(reader.New(), chunker.New(200, 40), opts...)
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessDocumentMetadata(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor()

	content := "Step 1. Greet the guest warmly.\n\nStep 2. Confirm the booking and payment. Call 555-123-4567 for billing questions."
	path := writeDoc(t, dir, "checkin_guide.txt", content)

	records, err := p.ProcessDocument(path, dir)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	meta := records[0].Metadata
	assert.Equal(t, path, meta["source"])
	assert.Equal(t, "checkin_guide.txt", meta["filename"])
	assert.Equal(t, ".txt", meta["file_extension"])
	assert.Equal(t, "checkin_guide.txt", meta["relative_path"])
	assert.Equal(t, "training_material", meta["document_type"])
	assert.Equal(t, len(content), meta["content_length"])
	assert.Equal(t, 0, meta["chunk_index"])
	assert.Equal(t, len(records), meta["total_chunks"])
	assert.Equal(t, true, meta["has_procedures"])
	assert.Equal(t, true, meta["has_contact_info"])
	assert.Equal(t, "english", meta["language"])

	fileHash, ok := meta["file_hash"].(string)
	require.True(t, ok)
	assert.Equal(t, fileHash+"_0", meta["chunk_id"])

	topics, ok := meta["key_topics"].([]string)
	require.True(t, ok)
	assert.Contains(t, topics, "customer_service")
	assert.Contains(t, topics, "billing")
	assert.Contains(t, topics, "reservations")
}

func TestProcessAllOrderAndFiltering(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor()

	writeDoc(t, dir, "b_policies.txt", "House rules apply to every guest. Quiet hours begin at ten.")
	writeDoc(t, dir, "a_welcome.txt", "Welcome to the hotel. We greet every guest by name.")
	writeDoc(t, dir, "sub/c_faq.md", "Questions and answers about parking and breakfast hours.")
	writeDoc(t, dir, "ignored.json", `{"not": "a document"}`)

	records, err := p.ProcessAll(context.Background(), dir)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	var sources []string
	for _, record := range records {
		sources = append(sources, record.Source)
	}

	// Path-sorted: a_welcome before b_policies before sub/c_faq.
	assert.True(t, strings.HasSuffix(sources[0], "a_welcome.txt"))
	assert.True(t, strings.HasSuffix(sources[len(sources)-1], "c_faq.md"))
	for _, source := range sources {
		assert.False(t, strings.HasSuffix(source, ".json"))
	}
}

func TestProcessAllDeduplicates(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor()

	content := "Identical refund policy text shared by two files."
	writeDoc(t, dir, "copy1.txt", content)
	writeDoc(t, dir, "copy2.txt", content)

	records, err := p.ProcessAll(context.Background(), dir)
	require.NoError(t, err)

	sources := map[string]struct{}{}
	for _, record := range records {
		sources[record.Source] = struct{}{}
	}
	assert.Len(t, sources, 1, "identical content should be processed once")

	// A second pass over the same corpus yields nothing new.
	again, err := p.ProcessAll(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 1, p.Stats().ProcessedFiles)

	// Reset allows a full re-ingestion.
	p.Reset()
	fresh, err := p.ProcessAll(context.Background(), dir)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh)
}

func TestProcessAllSkipsOversized(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(WithMaxDocumentSize(64))

	writeDoc(t, dir, "small.txt", "Short notice for the front desk staff.")
	writeDoc(t, dir, "large.txt", strings.Repeat("Oversized training manual content. ", 50))

	records, err := p.ProcessAll(context.Background(), dir)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, record := range records {
		assert.False(t, strings.HasSuffix(record.Source, "large.txt"))
	}
}

func TestProcessAllMissingRoot(t *testing.T) {
	p := newTestProcessor()

	_, err := p.ProcessAll(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestProcessAllContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor()

	writeDoc(t, dir, "ok.txt", "Readable guidance for handling guest complaints.")
	// Valid extension, invalid content for its format.
	writeDoc(t, dir, "broken.pdf", "this is not a pdf")

	records, err := p.ProcessAll(context.Background(), dir)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.True(t, strings.HasSuffix(records[0].Source, "ok.txt"))
}

func TestClassifyDocument(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		ext      string
		want     string
	}{
		{"filename policy", "refund_policy.txt", "anything", ".txt", "policy_document"},
		{"filename training", "staff_manual.pdf", "anything", ".pdf", "training_material"},
		{"filename script", "call_script.docx", "anything", ".docx", "service_script"},
		{"filename checklist", "opening_checklist.txt", "anything", ".txt", "procedural_guide"},
		{"filename faq", "faq.md", "anything", ".md", "faq_document"},
		{"content greeting", "notes.txt", "Always say hello to arrivals", ".txt", "greeting_guide"},
		{"content recovery", "notes.txt", "When a problem arises, apologize", ".txt", "service_recovery"},
		{"content billing", "notes.txt", "Apply the refund to the card", ".txt", "billing_guidance"},
		{"extension pdf", "report.pdf", "quarterly figures", ".pdf", "pdf_document"},
		{"extension word", "report.docx", "quarterly figures", ".docx", "word_document"},
		{"extension spreadsheet", "rates.xlsx", "quarterly figures", ".xlsx", "spreadsheet"},
		{"extension text", "notes.txt", "quarterly figures", ".txt", "text_document"},
		{"fallback", "data.csv", "quarterly figures", ".csv", "general_document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDocument(tt.filename, tt.content, tt.ext))
		})
	}
}

func TestAnalyzeContent(t *testing.T) {
	content := "First paragraph about the pool and gym.\n\nSecond paragraph. Email us at desk@hotel.example.com."

	meta := analyzeContent(content)
	assert.Equal(t, 13, meta["word_count"])
	assert.Equal(t, 2, meta["paragraph_count"])
	assert.Equal(t, true, meta["has_contact_info"])

	topics := meta["key_topics"].([]string)
	assert.Contains(t, topics, "amenities")
}

func TestAnalyzeContentNoSignals(t *testing.T) {
	meta := analyzeContent("plain words only here")

	assert.Equal(t, false, meta["has_contact_info"])
	assert.Equal(t, false, meta["has_procedures"])
	assert.Empty(t, meta["key_topics"])
}

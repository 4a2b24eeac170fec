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


package ai

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedText generates an embedding for a single text.
	// Fails with ErrEmptyText for empty or whitespace-only input.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for a batch of texts. The returned
	// slice is always parallel to texts; items that could not be embedded
	// hold zero vectors and are listed in the BatchReport.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, *BatchReport, error)

	// Dimension returns the embedding dimensionality for the configured
	// model. Implementations may probe the service on first call.
	Dimension(ctx context.Context) int
}

// BatchReport records per-item degradation within a batch embedding call.
type BatchReport struct {
	// Requested is the number of texts in the batch.
	Requested int

	// Failed lists the indices whose embeddings were zero-filled because
	// the provider rejected them even after individual retries.
	Failed []int
}

// Degraded reports whether any item in the batch was zero-filled.
func (r *BatchReport) Degraded() bool {
	return r != nil && len(r.Failed) > 0
}

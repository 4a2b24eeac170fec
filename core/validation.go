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


package core

import (
	"fmt"
	"strings"
)

// ValidateChunkRecord validates a ChunkRecord according to domain rules.
//
// Validation rules:
//   - Content must not be empty after trimming
//   - Metadata must be present
//   - Source must be set
//
// NOT validated:
//   - Individual metadata values (the storage codec handles every
//     primitive and composite type the processor produces)
func ValidateChunkRecord(record *ChunkRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidChunkRecord)
	}

	if strings.TrimSpace(record.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunkRecord, ErrEmptyContent)
	}

	if record.Metadata == nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunkRecord, ErrMissingMetadata)
	}

	if record.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunkRecord, ErrMissingSource)
	}

	return nil
}

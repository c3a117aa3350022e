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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - SourceFile must not be empty
//
// NOT validated:
//   - Title and Pages (may be absent in normalized inputs)
//   - ID (derived from content, 0 only for empty input)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if doc.SourceFile == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySource)
	}

	return nil
}

// ValidateSegment validates a Segment according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Index must be >= 0
//   - DocumentId must be set
func ValidateSegment(segment *Segment) error {
	if segment == nil {
		return fmt.Errorf("%w: segment is nil", ErrInvalidSegment)
	}

	if segment.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrEmptyText)
	}

	if segment.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrNegativeIndex)
	}

	if segment.DocumentId == 0 {
		return fmt.Errorf("%w: document id is not set", ErrInvalidSegment)
	}

	return nil
}

// ValidateEpisode validates an Episode before it is handed to a graph loader.
//
// Validation rules:
//   - Name must not be empty
//   - Source must be a valid EpisodeSource
//
// Body may be empty: a segment of pure whitespace still carries its
// deterministic name so retried loads stay idempotent.
func ValidateEpisode(episode *Episode) error {
	if episode == nil {
		return fmt.Errorf("%w: episode is nil", ErrInvalidEpisode)
	}

	if episode.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, ErrEmptyEpisodeName)
	}

	if err := ValidateEpisodeSource(episode.Source); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEpisode, err)
	}

	return nil
}

// ValidateEpisodeSource validates that an EpisodeSource has a valid value.
func ValidateEpisodeSource(source EpisodeSource) error {
	if source != EpisodeSourceText && source != EpisodeSourceStructured {
		return fmt.Errorf("%w: value %d", ErrInvalidEpisodeSource, source)
	}
	return nil
}

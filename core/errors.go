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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidSegment indicates a Segment failed validation.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrInvalidEpisode indicates an Episode failed validation.
	ErrInvalidEpisode = errors.New("invalid episode")

	// ErrEmptyText indicates a text payload is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptySource indicates the source file descriptor is empty.
	ErrEmptySource = errors.New("source file cannot be empty")

	// ErrEmptyEpisodeName indicates the episode Name field is empty.
	ErrEmptyEpisodeName = errors.New("episode name cannot be empty")

	// ErrInvalidEpisodeSource indicates an invalid EpisodeSource value.
	ErrInvalidEpisodeSource = errors.New("invalid episode source")

	// ErrNegativeIndex indicates a segment index below zero.
	ErrNegativeIndex = errors.New("segment index cannot be negative")
)

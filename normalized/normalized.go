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


// Package normalized reads normalized-document JSON files, the interchange
// format produced by upstream text extraction. Each file carries document
// metadata, the full normalized text, and optionally pre-computed chunks
// that bypass the chunker.
package normalized

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/epigraph/chunker"
	"github.com/poiesic/epigraph/core"
)

// Suffix is the filename suffix of normalized-document files.
const Suffix = ".normalized.json"

// Metadata is the provenance block of a normalized document.
type Metadata struct {
	Title        string `json:"title"`
	Filename     string `json:"filename"`
	PageCount    int    `json:"page_count"`
	NormalizedAt string `json:"normalized_at"`
}

// Chunk is one pre-computed chunk carried by a normalized document.
type Chunk struct {
	Text      string `json:"text"`
	Page      int    `json:"page,omitempty"`
	BlockType string `json:"block_type,omitempty"`
}

// Document is the on-disk shape of a normalized document.
type Document struct {
	Metadata       Metadata `json:"metadata"`
	NormalizedText string   `json:"normalized_text"`
	FullText       string   `json:"full_text"` // Legacy field name
	Chunks         []Chunk  `json:"chunks,omitempty"`
}

// Text returns the document body, preferring normalized_text over the
// legacy full_text field.
func (d *Document) Text() string {
	if d.NormalizedText != "" {
		return d.NormalizedText
	}
	return d.FullText
}

// LoadFile reads and decodes one normalized-document file.
func LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read normalized document %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode normalized document %s: %w", path, err)
	}
	if strings.TrimSpace(doc.Text()) == "" {
		return nil, fmt.Errorf("normalized document %s has no text: %w", path, core.ErrEmptyText)
	}
	return &doc, nil
}

// MapDocument converts a normalized document into a core document with a
// content-derived identity. The source file defaults to the input path's
// base name when the metadata omits a filename.
func MapDocument(path string, nd *Document) *core.Document {
	sourceFile := nd.Metadata.Filename
	if sourceFile == "" {
		sourceFile = strings.TrimSuffix(filepath.Base(path), Suffix)
	}

	title := nd.Metadata.Title
	if title == "" {
		title = sourceFile
	}

	text := nd.Text()
	doc := &core.Document{
		Id:         core.DocumentID(sourceFile, text),
		Title:      title,
		Text:       text,
		SourceFile: sourceFile,
		Pages:      nd.Metadata.PageCount,
	}

	if nd.Metadata.NormalizedAt != "" {
		if ts, err := time.Parse(time.RFC3339, nd.Metadata.NormalizedAt); err == nil {
			doc.NormalizedAt = ts.UTC()
		}
	}
	return doc
}

// Segments produces the document's segments: pre-computed chunks when the
// file carries them, otherwise the splitter's output.
func Segments(doc *core.Document, nd *Document, splitter chunker.Splitter) ([]*core.Segment, error) {
	if len(nd.Chunks) == 0 {
		return chunker.SegmentDocument(doc, splitter)
	}

	segments := make([]*core.Segment, 0, len(nd.Chunks))
	index := 0
	for _, chunk := range nd.Chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		segment := core.NewSegment(doc.Id, index, chunk.Text)
		segment.Page = chunk.Page
		segment.BlockType = chunk.BlockType
		segments = append(segments, segment)
		index++
	}
	return segments, nil
}

// ListFiles returns the normalized-document files directly under dir,
// sorted by name.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/epigraph/core"
)

// DefaultPreviewChars bounds the document text preview embedded in the
// metadata episode.
const DefaultPreviewChars = 2000

// MetaEpisode builds the synthetic document-metadata episode that precedes
// segment loading.
func MetaEpisode(doc *core.Document, previewChars int, now time.Time) core.Episode {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}

	body := fmt.Sprintf(
		"DOCUMENT METADATA:\nTitle: %s\nSource File: %s\nPages: %d\n\nFull text (first %d chars):\n%s",
		doc.Title, doc.SourceFile, doc.Pages, previewChars, preview(doc.Text, previewChars))

	return core.Episode{
		Name:          core.MetaEpisodeName(doc.Id),
		Body:          body,
		Source:        core.EpisodeSourceText,
		Description:   fmt.Sprintf("document metadata %s", doc.SourceFile),
		ReferenceTime: now,
	}
}

// SegmentEpisode builds the episode for one segment. The name is
// deterministic per (document, index), making redelivery idempotent at the
// graph loader.
func SegmentEpisode(doc *core.Document, segment *core.Segment, now time.Time) core.Episode {
	return core.Episode{
		Name:          core.EpisodeName(doc.Id, segment.Index),
		Body:          segment.Text,
		Source:        core.EpisodeSourceText,
		Description:   fmt.Sprintf("%s chunk %d", doc.SourceFile, segment.Index),
		ReferenceTime: now,
	}
}

// bulkSegment is the structured wire form of a segment in a bulk episode.
type bulkSegment struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Page      int    `json:"page,omitempty"`
	BlockType string `json:"block_type,omitempty"`
}

// BulkEpisodes builds the structured episode batch for a bulk submission,
// one episode per segment.
func BulkEpisodes(doc *core.Document, segments []*core.Segment, now time.Time) ([]core.Episode, error) {
	episodes := make([]core.Episode, 0, len(segments))
	for _, segment := range segments {
		body, err := json.Marshal(bulkSegment{
			Index:     segment.Index,
			Text:      segment.Text,
			Page:      segment.Page,
			BlockType: segment.BlockType,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode segment %d: %w", segment.Index, err)
		}
		episodes = append(episodes, core.Episode{
			Name:          core.EpisodeName(doc.Id, segment.Index),
			Body:          string(body),
			Source:        core.EpisodeSourceStructured,
			Description:   fmt.Sprintf("%s chunk %d", doc.SourceFile, segment.Index),
			ReferenceTime: now,
		})
	}
	return episodes, nil
}

// preview truncates text to at most limit runes without splitting one.
func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

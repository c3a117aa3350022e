package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestDocumentID_Stable(t *testing.T) {
	a := DocumentID("circular_042.pdf", "full text")
	b := DocumentID("circular_042.pdf", "full text")
	if a != b {
		t.Errorf("DocumentID() not stable: %d vs %d", a, b)
	}

	c := DocumentID("circular_043.pdf", "full text")
	if a == c {
		t.Errorf("DocumentID() ignored the source file")
	}
}

func TestEpisodeName(t *testing.T) {
	tests := []struct {
		name  string
		docID ID
		index int
		want  string
	}{
		{
			name:  "first segment",
			docID: 42,
			index: 0,
			want:  "42_segment_0",
		},
		{
			name:  "later segment",
			docID: 42,
			index: 17,
			want:  "42_segment_17",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EpisodeName(tt.docID, tt.index)
			if got != tt.want {
				t.Errorf("EpisodeName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetaEpisodeName(t *testing.T) {
	got := MetaEpisodeName(7)
	if got != "document_meta_7" {
		t.Errorf("MetaEpisodeName() = %v, want document_meta_7", got)
	}
}

func TestNewSegment_ContentID(t *testing.T) {
	s1 := NewSegment(1, 0, "clause text")
	s2 := NewSegment(1, 0, "clause text")
	if s1.Id != s2.Id {
		t.Errorf("NewSegment() produced different IDs for identical input")
	}

	s3 := NewSegment(1, 1, "clause text")
	if s1.Id == s3.Id {
		t.Errorf("NewSegment() ignored the index")
	}
}

func TestEpisodeSource_String(t *testing.T) {
	if EpisodeSourceText.String() != "text" {
		t.Errorf("EpisodeSourceText.String() = %v", EpisodeSourceText.String())
	}
	if EpisodeSourceStructured.String() != "structured" {
		t.Errorf("EpisodeSourceStructured.String() = %v", EpisodeSourceStructured.String())
	}
	if EpisodeSource(0).String() != "unknown" {
		t.Errorf("EpisodeSource(0).String() = %v", EpisodeSource(0).String())
	}
}

func TestIngestRecordMUS_RoundTrip(t *testing.T) {
	record := IngestRecord{
		DocumentId:  IDFromContent("doc"),
		SourceFile:  "circular_042.pdf",
		Title:       "Circular 042",
		Segments:    12,
		Succeeded:   11,
		Failed:      1,
		CompletedAt: time.Date(2026, 3, 14, 9, 26, 53, 589000, time.UTC),
	}

	buf := make([]byte, IngestRecordMUS.Size(record))
	n := IngestRecordMUS.Marshal(record, buf)
	if n != len(buf) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(buf))
	}

	got, n, err := IngestRecordMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n != len(buf) {
		t.Errorf("Unmarshal consumed %d bytes, want %d", n, len(buf))
	}
	if got != record {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, record)
	}
}

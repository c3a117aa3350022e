package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Id:         1,
				Text:       "some text",
				SourceFile: "a.pdf",
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty text",
			doc: &Document{
				SourceFile: "a.pdf",
			},
			wantErr: ErrEmptyText,
		},
		{
			name: "empty source file",
			doc: &Document{
				Text: "some text",
			},
			wantErr: ErrEmptySource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment *Segment
		wantErr error
	}{
		{
			name:    "valid segment",
			segment: NewSegment(1, 0, "clause"),
			wantErr: nil,
		},
		{
			name:    "nil segment",
			segment: nil,
			wantErr: ErrInvalidSegment,
		},
		{
			name: "empty text",
			segment: &Segment{
				DocumentId: 1,
			},
			wantErr: ErrEmptyText,
		},
		{
			name: "negative index",
			segment: &Segment{
				DocumentId: 1,
				Index:      -1,
				Text:       "clause",
			},
			wantErr: ErrNegativeIndex,
		},
		{
			name: "missing document id",
			segment: &Segment{
				Text: "clause",
			},
			wantErr: ErrInvalidSegment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegment(tt.segment)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSegment() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSegment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEpisode(t *testing.T) {
	tests := []struct {
		name    string
		episode *Episode
		wantErr error
	}{
		{
			name: "valid text episode",
			episode: &Episode{
				Name:   "1_segment_0",
				Body:   "clause",
				Source: EpisodeSourceText,
			},
			wantErr: nil,
		},
		{
			name: "valid structured episode with empty body",
			episode: &Episode{
				Name:   "1_segment_1",
				Source: EpisodeSourceStructured,
			},
			wantErr: nil,
		},
		{
			name:    "nil episode",
			episode: nil,
			wantErr: ErrInvalidEpisode,
		},
		{
			name: "empty name",
			episode: &Episode{
				Body:   "clause",
				Source: EpisodeSourceText,
			},
			wantErr: ErrEmptyEpisodeName,
		},
		{
			name: "invalid source",
			episode: &Episode{
				Name:   "1_segment_2",
				Source: EpisodeSource(99),
			},
			wantErr: ErrInvalidEpisodeSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEpisode(tt.episode)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEpisode() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEpisode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

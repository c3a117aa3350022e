package storage

import (
	"fmt"

	"github.com/poiesic/epigraph/core"
)

// MarshalIngestRecord serializes a journal record to its binary form.
func MarshalIngestRecord(record *core.IngestRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot marshal nil ingest record")
	}
	bs := make([]byte, core.IngestRecordMUS.Size(*record))
	core.IngestRecordMUS.Marshal(*record, bs)
	return bs, nil
}

// UnmarshalIngestRecord deserializes a journal record from its binary form.
func UnmarshalIngestRecord(bs []byte) (*core.IngestRecord, error) {
	record, _, err := core.IngestRecordMUS.Unmarshal(bs)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingest record: %w", err)
	}
	return &record, nil
}

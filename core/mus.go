package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the types that cross the storage
// boundary. They follow the serializer-value convention (XxxMUS with
// Marshal/Unmarshal/Size) so call sites read the same as generated code.

// IDMUS serializes IDs as varint uint64.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// IngestRecordMUS serializes journal rows. Timestamps are stored as Unix
// microseconds in UTC.
var IngestRecordMUS = ingestRecordMUS{}

type ingestRecordMUS struct{}

func (s ingestRecordMUS) Marshal(r IngestRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.DocumentId, bs)
	n += ord.String.Marshal(r.SourceFile, bs[n:])
	n += ord.String.Marshal(r.Title, bs[n:])
	n += varint.Int.Marshal(r.Segments, bs[n:])
	n += varint.Int.Marshal(r.Succeeded, bs[n:])
	n += varint.Int.Marshal(r.Failed, bs[n:])
	n += varint.Int64.Marshal(r.CompletedAt.UnixMicro(), bs[n:])
	return n
}

func (s ingestRecordMUS) Unmarshal(bs []byte) (r IngestRecord, n int, err error) {
	var n1 int
	r.DocumentId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	r.SourceFile, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Segments, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Succeeded, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Failed, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micro int64
	micro, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.CompletedAt = time.UnixMicro(micro).UTC()
	return
}

func (s ingestRecordMUS) Size(r IngestRecord) (size int) {
	size = IDMUS.Size(r.DocumentId)
	size += ord.String.Size(r.SourceFile)
	size += ord.String.Size(r.Title)
	size += varint.Int.Size(r.Segments)
	size += varint.Int.Size(r.Succeeded)
	size += varint.Int.Size(r.Failed)
	size += varint.Int64.Size(r.CompletedAt.UnixMicro())
	return size
}

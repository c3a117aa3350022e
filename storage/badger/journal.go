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


// Package badger implements the storage interfaces on embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/epigraph/core"
	"github.com/poiesic/epigraph/storage"
)

// JournalRepository implements storage.JournalRepository on BadgerDB.
type JournalRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.JournalRepository = (*JournalRepository)(nil)

// NewJournalRepository creates a journal repository on the given backend.
func NewJournalRepository(backend *Backend) (*JournalRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &JournalRepository{
		backend: backend,
		logger:  slog.Default().With("component", "ingest-journal"),
	}, nil
}

// SaveIngest implements storage.JournalRepository.
func (r *JournalRepository) SaveIngest(ctx context.Context, record *core.IngestRecord) error {
	if record == nil || record.DocumentId == 0 {
		return fmt.Errorf("ingest record requires a document id")
	}

	encoded, err := storage.MarshalIngestRecord(record)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(ingestRecordKey(record.DocumentId), encoded); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetIngest implements storage.JournalRepository.
func (r *JournalRepository) GetIngest(ctx context.Context, id core.ID) (*core.IngestRecord, error) {
	var record *core.IngestRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(ingestRecordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalIngestRecord(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListIngests implements storage.JournalRepository.
func (r *JournalRepository) ListIngests(ctx context.Context) ([]*core.IngestRecord, error) {
	var records []*core.IngestRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(ingestRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalIngestRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b *core.IngestRecord) int {
		return a.CompletedAt.Compare(b.CompletedAt)
	})
	return records, nil
}

// DeleteIngest implements storage.JournalRepository.
func (r *JournalRepository) DeleteIngest(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := ingestRecordKey(id)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close implements storage.JournalRepository.
func (r *JournalRepository) Close() error {
	return r.backend.Close()
}

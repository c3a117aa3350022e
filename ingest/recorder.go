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


package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/epigraph/core"
)

// FailureSink receives loading failures. Implementations must not block the
// caller and must never let a recording problem escalate into a loading
// problem.
type FailureSink interface {
	Record(docID core.ID, segments []*core.Segment, reason string)
}

// FailedSegment is one ledger entry: the reason, a snapshot of the segment
// at failure time, and when it was recorded.
type FailedSegment struct {
	Reason     string        `json:"reason"`
	Segment    *core.Segment `json:"segment,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Ledger is the durable per-document failure record. Entries are keyed by
// segment identity and accumulate across recordings, so replay tooling sees
// every reason a segment failed.
type Ledger struct {
	DocumentId     string                     `json:"document_id"`
	FailedSegments map[string][]FailedSegment `json:"failed_segments"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// reasonIndexRe extracts the failing segment index from reasons shaped like
// "segment_3_failed: ...".
var reasonIndexRe = regexp.MustCompile(`segment_(\d+)_failed`)

// Recorder persists failures as JSON ledgers, one file per document, in a
// configured directory. Writes happen on a single background worker so the
// loading hot path never waits on disk and concurrent recordings for the
// same document cannot interleave.
type Recorder struct {
	dir    string
	pool   *ants.Pool
	logger *slog.Logger
}

var _ FailureSink = (*Recorder)(nil)

// NewRecorder creates a recorder writing ledgers under dir, creating it if
// needed.
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("failure ledger directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create failure ledger directory: %w", err)
	}

	pool, err := ants.NewPool(1, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder pool: %w", err)
	}

	return &Recorder{
		dir:    dir,
		pool:   pool,
		logger: slog.Default().With("component", "failure-recorder"),
	}, nil
}

// Record implements FailureSink. The write is queued to the background
// worker; problems are logged, never returned.
func (r *Recorder) Record(docID core.ID, segments []*core.Segment, reason string) {
	snapshot := make([]*core.Segment, len(segments))
	copy(snapshot, segments)

	err := r.pool.Submit(func() {
		if err := r.record(docID, snapshot, reason); err != nil {
			r.logger.Error("failed to record loading failure",
				"documentId", docID, "reason", reason, "error", err)
		}
	})
	if err != nil {
		// Pool is closed or saturated; fall back to a synchronous write so
		// the failure is still durable.
		if err := r.record(docID, snapshot, reason); err != nil {
			r.logger.Error("failed to record loading failure",
				"documentId", docID, "reason", reason, "error", err)
		}
	}
}

// Close drains pending ledger writes.
func (r *Recorder) Close() error {
	return r.pool.ReleaseTimeout(10 * time.Second)
}

// LedgerPath returns the ledger file path for a document.
func (r *Recorder) LedgerPath(docID core.ID) string {
	return filepath.Join(r.dir, fmt.Sprintf("%d.failed.json", docID))
}

func (r *Recorder) record(docID core.ID, segments []*core.Segment, reason string) error {
	path := r.LedgerPath(docID)
	ledger := r.loadOrReset(path, docID)

	failing := failingSegment(segments, reason)
	key := segmentKey(failing)

	ledger.FailedSegments[key] = append(ledger.FailedSegments[key], FailedSegment{
		Reason:     reason,
		Segment:    failing,
		RecordedAt: time.Now().UTC(),
	})
	ledger.UpdatedAt = time.Now().UTC()

	encoded, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	// Temp file + rename keeps readers from ever seeing a partial ledger.
	tmp, err := os.CreateTemp(r.dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create ledger temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish ledger: %w", err)
	}

	r.logger.Debug("recorded loading failure", "documentId", docID, "segmentKey", key, "path", path)
	return nil
}

// loadOrReset reads an existing ledger, starting fresh when the file is
// absent. A corrupt ledger is set aside rather than overwritten.
func (r *Recorder) loadOrReset(path string, docID core.ID) *Ledger {
	fresh := &Ledger{
		DocumentId:     strconv.FormatUint(uint64(docID), 10),
		FailedSegments: make(map[string][]FailedSegment),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fresh
	}

	var ledger Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil || ledger.FailedSegments == nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixNano())
		if renameErr := os.Rename(path, quarantine); renameErr != nil {
			r.logger.Error("failed to quarantine corrupt ledger", "path", path, "error", renameErr)
		} else {
			r.logger.Warn("quarantined corrupt ledger", "path", path, "quarantine", quarantine)
		}
		return fresh
	}

	return &ledger
}

// failingSegment picks the segment a reason refers to. Bulk and meta
// failures carry no single segment, so only a sole-segment recording or an
// index match resolves to a snapshot.
func failingSegment(segments []*core.Segment, reason string) *core.Segment {
	if len(segments) == 1 {
		return segments[0]
	}
	match := reasonIndexRe.FindStringSubmatch(reason)
	if match == nil {
		return nil
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	for _, segment := range segments {
		if segment != nil && segment.Index == index {
			return segment
		}
	}
	return nil
}

// segmentKey derives a stable ledger key for a segment: the content hash
// when present, else the positional index, else a random key so the entry
// is never lost.
func segmentKey(segment *core.Segment) string {
	if segment != nil {
		if segment.Id != 0 {
			return strconv.FormatUint(uint64(segment.Id), 10)
		}
		return fmt.Sprintf("segment_%d", segment.Index)
	}
	return uuid.NewString()
}

// LoadLedger reads and decodes a ledger file.
func LoadLedger(path string) (*Ledger, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ledger Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s: %w", path, err)
	}
	return &ledger, nil
}

// ListLedgers returns the paths of every failure ledger under dir.
func ListLedgers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".failed.json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

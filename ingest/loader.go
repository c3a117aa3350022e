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
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/epigraph/core"
	"github.com/poiesic/epigraph/graph"
)

// Config holds the loading parameters of an EpisodeLoader.
type Config struct {
	Concurrency            int           // In-flight loader calls, default 1
	MaxConsecutiveFailures int           // Breaker threshold, default 3
	Cooldown               time.Duration // Breaker pause, default 60s
	Retry                  RetryConfig   // Per-call retry policy
	Bulk                   bool          // Attempt the bulk path when the loader supports it
	PreviewChars           int           // Metadata episode preview length, default 2000
}

// DefaultConfig returns the standard loading parameters.
func DefaultConfig() Config {
	return Config{
		Concurrency:            DefaultConcurrency,
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		Cooldown:               DefaultCooldown,
		Retry:                  DefaultRetryConfig(),
		Bulk:                   false,
		PreviewChars:           DefaultPreviewChars,
	}
}

// EpisodeLoader drives one document at a time into a graph loader: a
// synthetic metadata episode first, then an optional bulk submission, then
// sequential per-segment loading with retry, admission gating, failure
// recording and circuit breaking.
type EpisodeLoader struct {
	loader graph.Loader
	bulk   graph.BulkLoader // nil when the loader lacks the capability
	ictx   *Context
	sink   FailureSink
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewEpisodeLoader creates an episode loader. The bulk capability is probed
// once here: if loader does not implement graph.BulkLoader, the bulk path
// is silently skipped regardless of configuration.
func NewEpisodeLoader(loader graph.Loader, ictx *Context, sink FailureSink, cfg Config) (*EpisodeLoader, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if ictx == nil {
		return nil, ErrContextRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = DefaultPreviewChars
	}

	bulk, _ := loader.(graph.BulkLoader)

	return &EpisodeLoader{
		loader: loader,
		bulk:   bulk,
		ictx:   ictx,
		sink:   sink,
		cfg:    cfg,
		logger: slog.Default().With("component", "episode-loader"),
		now:    time.Now,
	}, nil
}

// LoadDocument loads a document's segments as episodes. Segment failures
// are recorded and skipped, never fatal; the returned report is valid even
// when err is non-nil (cancellation mid-document).
func (l *EpisodeLoader) LoadDocument(ctx context.Context, doc *core.Document, segments []*core.Segment) (*core.LoadReport, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	ordered := make([]*core.Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	report := &core.LoadReport{
		DocumentId: doc.Id,
		Total:      len(ordered),
	}

	l.logger.Info("loading document",
		"documentId", doc.Id, "sourceFile", doc.SourceFile, "segments", len(ordered))

	l.loadMeta(ctx, doc, ordered, report)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if l.cfg.Bulk && l.bulk != nil && len(ordered) > 0 {
		if l.loadBulk(ctx, doc, ordered, report) {
			l.logSummary(doc, report)
			return report, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	for _, segment := range ordered {
		if err := ctx.Err(); err != nil {
			l.logger.Warn("document load interrupted",
				"documentId", doc.Id, "loaded", report.Succeeded, "remaining", report.Total-report.Succeeded-report.Failed)
			return report, err
		}
		l.loadSegment(ctx, doc, segment, report)
	}

	l.logSummary(doc, report)
	return report, ctx.Err()
}

// loadMeta submits the metadata episode. Its failure is recorded but does
// not count toward the segment failure tally or the breaker.
func (l *EpisodeLoader) loadMeta(ctx context.Context, doc *core.Document, segments []*core.Segment, report *core.LoadReport) {
	episode := MetaEpisode(doc, l.cfg.PreviewChars, l.now())
	if err := l.call(ctx, episode); err != nil {
		l.logger.Warn("metadata episode failed", "documentId", doc.Id, "error", err)
		l.sink.Record(doc.Id, segments, fmt.Sprintf("meta_episode_failed: %v", err))
		return
	}
	report.MetaLoaded = true
}

// loadBulk attempts the all-or-nothing bulk path. True means every segment
// was accepted; false means nothing was and the caller must fall back to
// sequential loading.
func (l *EpisodeLoader) loadBulk(ctx context.Context, doc *core.Document, segments []*core.Segment, report *core.LoadReport) bool {
	episodes, err := BulkEpisodes(doc, segments, l.now())
	if err != nil {
		l.logger.Warn("bulk episode encoding failed, falling back to sequential",
			"documentId", doc.Id, "error", err)
		return false
	}

	err = Retry(ctx, l.cfg.Retry, func() error {
		if acquireErr := l.ictx.Acquire(ctx); acquireErr != nil {
			return acquireErr
		}
		defer l.ictx.Release()
		return l.bulk.AddEpisodeBulk(ctx, episodes)
	})
	if err != nil {
		l.logger.Warn("bulk load failed, falling back to sequential",
			"documentId", doc.Id, "segments", len(segments), "error", err)
		l.sink.Record(doc.Id, segments, fmt.Sprintf("bulk_load_failed: %v", err))
		return false
	}

	report.Succeeded = len(segments)
	report.BulkLoaded = true
	l.ictx.RecordSuccess()
	return true
}

// loadSegment submits one segment episode with retry. Outcome feeds the
// report, the failure sink and the circuit breaker.
func (l *EpisodeLoader) loadSegment(ctx context.Context, doc *core.Document, segment *core.Segment, report *core.LoadReport) {
	episode := SegmentEpisode(doc, segment, l.now())
	if err := l.call(ctx, episode); err != nil {
		if ctx.Err() != nil {
			// Cancellation surfaces at the loop level, not as a failure.
			return
		}
		report.Failed++
		l.logger.Warn("segment load failed",
			"documentId", doc.Id, "segment", segment.Index, "error", err)
		l.sink.Record(doc.Id, []*core.Segment{segment}, fmt.Sprintf("segment_%d_failed: %v", segment.Index, err))
		if l.ictx.RecordFailure() {
			if pauseErr := l.ictx.Pause(ctx); pauseErr != nil {
				return
			}
		}
		return
	}
	report.Succeeded++
	l.ictx.RecordSuccess()
}

// call wraps a single-episode submission with the admission gate and the
// retry policy. The gate slot is held only for the duration of one attempt
// so backoff sleeps never starve other workers.
func (l *EpisodeLoader) call(ctx context.Context, episode core.Episode) error {
	return Retry(ctx, l.cfg.Retry, func() error {
		if err := l.ictx.Acquire(ctx); err != nil {
			return err
		}
		defer l.ictx.Release()
		return l.loader.AddEpisode(ctx, episode)
	})
}

func (l *EpisodeLoader) logSummary(doc *core.Document, report *core.LoadReport) {
	l.logger.Info("document load complete",
		"documentId", doc.Id,
		"sourceFile", doc.SourceFile,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"total", report.Total,
		"metaLoaded", report.MetaLoaded,
		"bulkLoaded", report.BulkLoaded)
}

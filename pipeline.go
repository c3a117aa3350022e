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


// Package epigraph ties the ingestion pipeline together: normalized
// documents in, chunked episodes out to a graph loader, with a durable
// journal of completed work.
package epigraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/epigraph/chunker"
	"github.com/poiesic/epigraph/core"
	"github.com/poiesic/epigraph/ingest"
	"github.com/poiesic/epigraph/normalized"
	"github.com/poiesic/epigraph/storage"
)

// ErrAlreadyIngested is returned by IngestFile when the journal shows the
// document already completed a load cycle and force mode is off.
var ErrAlreadyIngested = errors.New("document already ingested")

// Pipeline drives normalized documents through chunking and episode
// loading, journaling each completed document.
type Pipeline struct {
	loader   *ingest.EpisodeLoader
	journal  storage.JournalRepository
	splitter chunker.Splitter
	force    bool
	logger   *slog.Logger
	now      func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithForce makes the pipeline re-ingest documents the journal already
// records as complete.
func WithForce(force bool) PipelineOption {
	return func(p *Pipeline) {
		p.force = force
	}
}

// NewPipeline creates a pipeline from its collaborators.
func NewPipeline(loader *ingest.EpisodeLoader, journal storage.JournalRepository, splitter chunker.Splitter, opts ...PipelineOption) (*Pipeline, error) {
	if loader == nil {
		return nil, ingest.ErrLoaderRequired
	}
	if journal == nil {
		return nil, fmt.Errorf("journal repository is required")
	}
	if splitter == nil {
		return nil, fmt.Errorf("splitter is required")
	}

	p := &Pipeline{
		loader:   loader,
		journal:  journal,
		splitter: splitter,
		logger:   slog.Default().With("component", "pipeline"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IngestFile loads one normalized-document file end to end. Documents the
// journal already records as complete are skipped with ErrAlreadyIngested
// unless force mode is on.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*core.LoadReport, error) {
	nd, err := normalized.LoadFile(path)
	if err != nil {
		return nil, err
	}
	doc := normalized.MapDocument(path, nd)

	if !p.force {
		if prior, err := p.journal.GetIngest(ctx, doc.Id); err == nil {
			p.logger.Info("skipping ingested document",
				"documentId", doc.Id, "sourceFile", doc.SourceFile, "completedAt", prior.CompletedAt)
			return nil, ErrAlreadyIngested
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	segments, err := normalized.Segments(doc, nd, p.splitter)
	if err != nil {
		return nil, err
	}

	report, err := p.loader.LoadDocument(ctx, doc, segments)
	if err != nil {
		return report, err
	}

	record := &core.IngestRecord{
		DocumentId:  doc.Id,
		SourceFile:  doc.SourceFile,
		Title:       doc.Title,
		Segments:    report.Total,
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
		CompletedAt: p.now().UTC(),
	}
	if err := p.journal.SaveIngest(ctx, record); err != nil {
		return report, fmt.Errorf("failed to journal document %d: %w", doc.Id, err)
	}

	return report, nil
}

// RunSummary aggregates one directory run.
type RunSummary struct {
	Files     int // Files considered
	Ingested  int // Files loaded this run
	Skipped   int // Files the journal short-circuited
	Errored   int // Files that failed before loading could start
	Succeeded int // Segments loaded
	Failed    int // Segments recorded as failed
}

// Run ingests every normalized-document file under dir, one document at a
// time. File-level problems are logged and counted, not fatal; only
// cancellation stops the run early.
func (p *Pipeline) Run(ctx context.Context, dir string) (*RunSummary, error) {
	paths, err := normalized.ListFiles(dir)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{Files: len(paths)}
	for _, path := range paths {
		report, err := p.IngestFile(ctx, path)
		switch {
		case errors.Is(err, ErrAlreadyIngested):
			summary.Skipped++
			continue
		case err != nil && ctx.Err() != nil:
			return summary, err
		case err != nil && report == nil:
			summary.Errored++
			p.logger.Error("failed to ingest file", "path", path, "error", err)
			continue
		case err != nil:
			summary.Errored++
			p.logger.Error("failed to ingest file", "path", path, "error", err)
		}
		if report != nil {
			summary.Ingested++
			summary.Succeeded += report.Succeeded
			summary.Failed += report.Failed
		}
	}

	p.logger.Info("run complete",
		"files", summary.Files,
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"errored", summary.Errored,
		"segmentsSucceeded", summary.Succeeded,
		"segmentsFailed", summary.Failed)
	return summary, nil
}

// Close releases the journal.
func (p *Pipeline) Close() error {
	return p.journal.Close()
}

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


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/epigraph"
	"github.com/poiesic/epigraph/chunker"
	"github.com/poiesic/epigraph/graph"
	"github.com/poiesic/epigraph/graph/rest"
	"github.com/poiesic/epigraph/ingest"
	"github.com/poiesic/epigraph/storage/badger"
	"github.com/poiesic/epigraph/watch"
)

func main() {
	app := &cli.App{
		Name:  "epigraph",
		Usage: "Load normalized documents into a knowledge graph as episodes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"EPIGRAPH_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest normalized documents from files or directories",
				ArgsUsage: "PATH...",
				Action:    ingestCommand,
				Flags:     append(pipelineFlags(), forceFlag()),
			},
			{
				Name:      "watch",
				Usage:     "Watch a directory and ingest documents as they arrive",
				ArgsUsage: "DIR",
				Action:    watchCommand,
				Flags:     append(pipelineFlags(), forceFlag()),
			},
			{
				Name:   "history",
				Usage:  "List journaled ingest runs",
				Action: historyCommand,
				Flags: []cli.Flag{
					dbFlag(),
				},
			},
			{
				Name:   "failures",
				Usage:  "List failure ledgers awaiting replay",
				Action: failuresCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "failed-dir",
						Usage:   "Directory holding failure ledgers",
						Value:   "failed",
						EnvVars: []string{"EPIGRAPH_FAILED_DIR"},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to the ingest journal database directory",
		Value:   "epigraph.db",
		EnvVars: []string{"EPIGRAPH_DB"},
	}
}

func forceFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "force",
		Usage:   "Re-ingest documents the journal already records as complete",
		EnvVars: []string{"EPIGRAPH_FORCE"},
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "graph-url",
			Usage:    "Base URL of the graph loader service",
			Required: true,
			EnvVars:  []string{"EPIGRAPH_GRAPH_URL"},
		},
		dbFlag(),
		&cli.StringFlag{
			Name:    "failed-dir",
			Usage:   "Directory for failure ledgers",
			Value:   "failed",
			EnvVars: []string{"EPIGRAPH_FAILED_DIR"},
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Usage:   "Concurrent graph loader calls",
			Value:   ingest.DefaultConcurrency,
			EnvVars: []string{"EPIGRAPH_CONCURRENCY"},
		},
		&cli.IntFlag{
			Name:    "max-consecutive-failures",
			Usage:   "Consecutive segment failures before pausing",
			Value:   ingest.DefaultMaxConsecutiveFailures,
			EnvVars: []string{"EPIGRAPH_MAX_CONSECUTIVE_FAILURES"},
		},
		&cli.DurationFlag{
			Name:    "cooldown",
			Usage:   "Pause duration after the failure threshold trips",
			Value:   ingest.DefaultCooldown,
			EnvVars: []string{"EPIGRAPH_COOLDOWN"},
		},
		&cli.IntFlag{
			Name:    "max-attempts",
			Usage:   "Retry attempts per graph loader call",
			Value:   ingest.DefaultMaxAttempts,
			EnvVars: []string{"EPIGRAPH_MAX_ATTEMPTS"},
		},
		&cli.DurationFlag{
			Name:    "initial-delay",
			Usage:   "Base delay for exponential backoff",
			Value:   ingest.DefaultInitialDelay,
			EnvVars: []string{"EPIGRAPH_INITIAL_DELAY"},
		},
		&cli.DurationFlag{
			Name:    "max-delay",
			Usage:   "Cap for exponential backoff delays",
			Value:   ingest.DefaultMaxDelay,
			EnvVars: []string{"EPIGRAPH_MAX_DELAY"},
		},
		&cli.Float64Flag{
			Name:    "backoff-factor",
			Usage:   "Multiplicative backoff factor",
			Value:   ingest.DefaultFactor,
			EnvVars: []string{"EPIGRAPH_BACKOFF_FACTOR"},
		},
		&cli.Float64Flag{
			Name:    "jitter",
			Usage:   "Symmetric jitter fraction applied to backoff delays",
			Value:   ingest.DefaultJitter,
			EnvVars: []string{"EPIGRAPH_JITTER"},
		},
		&cli.BoolFlag{
			Name:    "bulk",
			Usage:   "Try the bulk endpoint before sequential loading",
			EnvVars: []string{"EPIGRAPH_BULK"},
		},
		&cli.IntFlag{
			Name:    "chunk-size",
			Usage:   "Chunk window size, in bytes or tokens",
			Value:   chunker.DefaultTargetSize,
			EnvVars: []string{"EPIGRAPH_CHUNK_SIZE"},
		},
		&cli.IntFlag{
			Name:    "overlap",
			Usage:   "Overlap between adjacent chunks",
			Value:   chunker.DefaultOverlap,
			EnvVars: []string{"EPIGRAPH_OVERLAP"},
		},
		&cli.IntFlag{
			Name:    "lookahead",
			Usage:   "How far past the cut point to search for a sentence end, in bytes",
			Value:   chunker.DefaultLookahead,
			EnvVars: []string{"EPIGRAPH_LOOKAHEAD"},
		},
		&cli.IntFlag{
			Name:    "lookback",
			Usage:   "How far before the cut point to search for whitespace, in bytes",
			Value:   chunker.DefaultLookback,
			EnvVars: []string{"EPIGRAPH_LOOKBACK"},
		},
		&cli.StringFlag{
			Name:    "token-encoding",
			Usage:   "Measure chunks in tokens of this tiktoken encoding instead of bytes",
			EnvVars: []string{"EPIGRAPH_TOKEN_ENCODING"},
		},
		&cli.StringFlag{
			Name:    "splitter",
			Usage:   "Chunking strategy (window, recursive)",
			Value:   "window",
			EnvVars: []string{"EPIGRAPH_SPLITTER"},
		},
		&cli.Float64Flag{
			Name:    "rate-limit",
			Usage:   "Client-side request rate limit, requests per second (0 disables)",
			EnvVars: []string{"EPIGRAPH_RATE_LIMIT"},
		},
	}
}

// buildPipeline wires a full pipeline from CLI flags. The returned cleanup
// releases the journal and failure recorder.
func buildPipeline(c *cli.Context) (*epigraph.Pipeline, func(), error) {
	var clientOpts []rest.Option
	if rps := c.Float64("rate-limit"); rps > 0 {
		clientOpts = append(clientOpts, rest.WithRateLimit(rps, 1))
	}
	client, err := rest.New(c.String("graph-url"), clientOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create graph loader client: %w", err)
	}
	var loader graph.Loader = client
	if !c.Bool("bulk") {
		loader = rest.NewWithoutBulk(client)
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	journal, err := badger.NewJournalRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create journal: %w", err)
	}

	recorder, err := ingest.NewRecorder(c.String("failed-dir"))
	if err != nil {
		journal.Close()
		return nil, nil, fmt.Errorf("failed to create failure recorder: %w", err)
	}
	cleanup := func() {
		recorder.Close()
		journal.Close()
	}

	cfg := ingest.DefaultConfig()
	cfg.Concurrency = c.Int("concurrency")
	cfg.MaxConsecutiveFailures = c.Int("max-consecutive-failures")
	cfg.Cooldown = c.Duration("cooldown")
	cfg.Bulk = c.Bool("bulk")
	cfg.Retry.MaxAttempts = c.Int("max-attempts")
	cfg.Retry.InitialDelay = c.Duration("initial-delay")
	cfg.Retry.MaxDelay = c.Duration("max-delay")
	cfg.Retry.Factor = c.Float64("backoff-factor")
	cfg.Retry.Jitter = c.Float64("jitter")

	ictx := ingest.NewContext(cfg.Concurrency,
		ingest.WithCooldown(cfg.Cooldown),
		ingest.WithMaxConsecutiveFailures(cfg.MaxConsecutiveFailures))

	episodeLoader, err := ingest.NewEpisodeLoader(loader, ictx, recorder, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	splitter, err := buildSplitter(c)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	pipeline, err := epigraph.NewPipeline(episodeLoader, journal, splitter,
		epigraph.WithForce(c.Bool("force")))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return pipeline, cleanup, nil
}

func buildSplitter(c *cli.Context) (chunker.Splitter, error) {
	size := c.Int("chunk-size")
	overlap := c.Int("overlap")

	switch c.String("splitter") {
	case "recursive":
		return chunker.NewRecursiveSplitter(size, overlap)
	case "window":
		opts := []chunker.Option{
			chunker.WithOverlap(overlap),
			chunker.WithLookahead(c.Int("lookahead")),
			chunker.WithLookback(c.Int("lookback")),
		}
		if encoding := c.String("token-encoding"); encoding != "" {
			opts = append(opts, chunker.WithMeasure(chunker.TokenCounter(encoding)))
		}
		return chunker.New(size, opts...)
	default:
		return nil, fmt.Errorf("unknown splitter %q: must be window or recursive", c.String("splitter"))
	}
}

func ingestCommand(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one file or directory argument is required")
	}

	pipeline, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total := epigraph.RunSummary{}
	for _, path := range c.Args().Slice() {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			summary, err := pipeline.Run(ctx, path)
			if err != nil {
				return fmt.Errorf("ingest run failed: %w", err)
			}
			total.Files += summary.Files
			total.Ingested += summary.Ingested
			total.Skipped += summary.Skipped
			total.Errored += summary.Errored
			total.Succeeded += summary.Succeeded
			total.Failed += summary.Failed
			continue
		}

		total.Files++
		report, err := pipeline.IngestFile(ctx, path)
		switch {
		case errors.Is(err, epigraph.ErrAlreadyIngested):
			total.Skipped++
		case err != nil && ctx.Err() != nil:
			return err
		case err != nil:
			total.Errored++
			slog.Error("failed to ingest file", "path", path, "error", err)
		default:
			total.Ingested++
			total.Succeeded += report.Succeeded
			total.Failed += report.Failed
		}
	}

	fmt.Fprintf(os.Stderr, "Files: %d ingested, %d skipped, %d errored\n",
		total.Ingested, total.Skipped, total.Errored)
	fmt.Fprintf(os.Stderr, "Segments: %d loaded, %d failed\n",
		total.Succeeded, total.Failed)
	return nil
}

func watchCommand(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("directory argument is required")
	}

	pipeline, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	watcher, err := watch.New(dir)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catch up on files already present before following new arrivals.
	if _, err := pipeline.Run(ctx, dir); err != nil {
		return fmt.Errorf("initial sweep failed: %w", err)
	}

	paths := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, paths)
	}()

	for path := range paths {
		if _, err := pipeline.IngestFile(ctx, path); err != nil {
			if ctx.Err() != nil {
				break
			}
			if !errors.Is(err, epigraph.ErrAlreadyIngested) {
				slog.Error("failed to ingest file", "path", path, "error", err)
			}
		}
	}

	if err := <-done; err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func historyCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}
	journal, err := badger.NewJournalRepository(backend)
	if err != nil {
		backend.Close()
		return err
	}
	defer journal.Close()

	records, err := journal.ListIngests(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No ingest runs recorded.")
		return nil
	}

	for _, record := range records {
		fmt.Printf("%s  %-40s  %d segments (%d ok, %d failed)\n",
			record.CompletedAt.Format(time.RFC3339),
			record.SourceFile,
			record.Segments,
			record.Succeeded,
			record.Failed)
	}
	return nil
}

func failuresCommand(c *cli.Context) error {
	dir := c.String("failed-dir")
	paths, err := ingest.ListLedgers(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No failure ledgers.")
			return nil
		}
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No failure ledgers.")
		return nil
	}

	for _, path := range paths {
		ledger, err := ingest.LoadLedger(path)
		if err != nil {
			slog.Error("failed to read ledger", "path", path, "error", err)
			continue
		}
		fmt.Printf("%s  document %s  %d failed segments (updated %s)\n",
			path, ledger.DocumentId, len(ledger.FailedSegments),
			ledger.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

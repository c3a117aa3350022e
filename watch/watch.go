// Package watch emits normalized-document files as they appear in a
// directory, for continuous ingestion.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Suffix matches the files the watcher reports.
const Suffix = ".normalized.json"

// Watcher reports newly written normalized-document files in a directory.
type Watcher struct {
	dir    string
	fs     *fsnotify.Watcher
	logger *slog.Logger
}

// New creates a watcher over dir.
func New(dir string) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:    dir,
		fs:     fs,
		logger: slog.Default().With("component", "watcher", "dir", dir),
	}, nil
}

// Watch sends the path of each normalized-document file as it finishes
// being written, until ctx is done. The channel is closed on return.
func (w *Watcher) Watch(ctx context.Context, paths chan<- string) error {
	defer close(paths)

	w.logger.Info("watching for normalized documents")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			// Writers create then write; act on the final rename/close
			// signals fsnotify gives us: Create for atomic renames, Write
			// for direct writes.
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, Suffix) {
				continue
			}
			w.logger.Debug("normalized document detected", "path", event.Name)
			select {
			case paths <- event.Name:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

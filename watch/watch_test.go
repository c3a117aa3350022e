package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsNormalizedFiles(t *testing.T) {
	dir := t.TempDir()
	watcher, err := New(dir)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, paths)
	}()

	// Give the watch loop a moment to start.
	time.Sleep(20 * time.Millisecond)

	target := filepath.Join(dir, "circular_042.normalized.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case got := <-paths:
		assert.Equal(t, target, got)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the file")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RequiresDirectory(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

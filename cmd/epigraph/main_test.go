package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/epigraph/chunker"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		ok    bool
	}{
		{"debug", true},
		{"info", true},
		{"WARN", true},
		{"error", true},
		{"verbose", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			set := flag.NewFlagSet("test", 0)
			set.String("log-level", tt.level, "")
			ctx := cli.NewContext(&cli.App{}, set, nil)

			err := setupLogger(ctx)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestBuildSplitter(t *testing.T) {
	build := func(splitter string, size, overlap int) (flagErr error) {
		set := flag.NewFlagSet("test", 0)
		set.String("splitter", splitter, "")
		set.Int("chunk-size", size, "")
		set.Int("overlap", overlap, "")
		set.Int("lookahead", chunker.DefaultLookahead, "")
		set.Int("lookback", chunker.DefaultLookback, "")
		set.String("token-encoding", "", "")
		ctx := cli.NewContext(&cli.App{}, set, nil)

		_, err := buildSplitter(ctx)
		return err
	}

	assert.NoError(t, build("window", 3000, 300))
	assert.NoError(t, build("recursive", 3000, 300))
	assert.Error(t, build("magic", 3000, 300))
	assert.Error(t, build("window", 0, 0))
}

func TestIngestCommand_RequiresDirectory(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags:  append(pipelineFlags(), forceFlag()),
			},
		},
	}

	err := app.Run([]string{"epigraph", "ingest", "--graph-url", "http://localhost:8000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

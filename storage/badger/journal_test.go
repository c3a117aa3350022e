package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/epigraph/core"
	"github.com/poiesic/epigraph/storage"
)

func newTestJournal(t *testing.T) *JournalRepository {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	repo, err := NewJournalRepository(backend)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRecord(id core.ID, completedAt time.Time) *core.IngestRecord {
	return &core.IngestRecord{
		DocumentId:  id,
		SourceFile:  "circular_042.pdf",
		Title:       "Circular 42",
		Segments:    10,
		Succeeded:   9,
		Failed:      1,
		CompletedAt: completedAt,
	}
}

func TestJournal_SaveAndGet(t *testing.T) {
	repo := newTestJournal(t)
	ctx := context.Background()

	record := testRecord(42, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SaveIngest(ctx, record))

	got, err := repo.GetIngest(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestJournal_GetMissing(t *testing.T) {
	repo := newTestJournal(t)

	_, err := repo.GetIngest(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJournal_SaveOverwrites(t *testing.T) {
	repo := newTestJournal(t)
	ctx := context.Background()

	first := testRecord(7, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SaveIngest(ctx, first))

	second := testRecord(7, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	second.Failed = 0
	second.Succeeded = 10
	require.NoError(t, repo.SaveIngest(ctx, second))

	got, err := repo.GetIngest(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Failed)
	assert.Equal(t, second.CompletedAt, got.CompletedAt)
}

func TestJournal_ListOrderedByCompletion(t *testing.T) {
	repo := newTestJournal(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveIngest(ctx, testRecord(3, base.Add(2*time.Hour))))
	require.NoError(t, repo.SaveIngest(ctx, testRecord(1, base)))
	require.NoError(t, repo.SaveIngest(ctx, testRecord(2, base.Add(time.Hour))))

	records, err := repo.ListIngests(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, core.ID(1), records[0].DocumentId)
	assert.Equal(t, core.ID(2), records[1].DocumentId)
	assert.Equal(t, core.ID(3), records[2].DocumentId)
}

func TestJournal_Delete(t *testing.T) {
	repo := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveIngest(ctx, testRecord(5, time.Now().UTC())))
	require.NoError(t, repo.DeleteIngest(ctx, 5))

	_, err := repo.GetIngest(ctx, 5)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteIngest(ctx, 5), storage.ErrNotFound)
}

func TestJournal_RejectsZeroDocumentId(t *testing.T) {
	repo := newTestJournal(t)
	assert.Error(t, repo.SaveIngest(context.Background(), &core.IngestRecord{}))
	assert.Error(t, repo.SaveIngest(context.Background(), nil))
}

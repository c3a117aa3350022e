package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/epigraph/core"
	"github.com/poiesic/epigraph/graph"
)

func testEpisode(index int) core.Episode {
	return core.Episode{
		Name:          core.EpisodeName(42, index),
		Body:          "clause body",
		Source:        core.EpisodeSourceText,
		Description:   "circular_042.pdf chunk 0",
		ReferenceTime: time.Now().UTC(),
	}
}

func TestClient_AddEpisode(t *testing.T) {
	var got episodePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, episodePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	require.NoError(t, client.AddEpisode(context.Background(), testEpisode(0)))
	assert.Equal(t, "42_segment_0", got.Name)
	assert.Equal(t, "clause body", got.Content)
	assert.Equal(t, "text", got.Source)
	assert.NotEmpty(t, got.ReferenceTime)
}

func TestClient_AddEpisodeBulk(t *testing.T) {
	var got []episodePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, bulkPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	episodes := []core.Episode{testEpisode(0), testEpisode(1), testEpisode(2)}
	require.NoError(t, client.AddEpisodeBulk(context.Background(), episodes))
	require.Len(t, got, 3)
	assert.Equal(t, "42_segment_2", got[2].Name)
}

func TestClient_AddEpisodeBulk_Empty(t *testing.T) {
	client, err := New("http://localhost:1") // never dialed
	require.NoError(t, err)
	assert.NoError(t, client.AddEpisodeBulk(context.Background(), nil))
}

func TestClient_RateLimitResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	err = client.AddEpisode(context.Background(), testEpisode(0))
	require.Error(t, err)

	var apiErr *graph.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "rate limit exceeded")
	assert.True(t, graph.IsRateLimit(err))
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "schema mismatch", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	err = client.AddEpisode(context.Background(), testEpisode(0))
	require.Error(t, err)

	var apiErr *graph.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, graph.IsRateLimit(err))
	assert.False(t, errors.Is(err, graph.ErrRateLimited))
}

func TestClient_InvalidEpisode(t *testing.T) {
	client, err := New("http://localhost:1")
	require.NoError(t, err)

	err = client.AddEpisode(context.Background(), core.Episode{Source: core.EpisodeSourceText})
	assert.ErrorIs(t, err, core.ErrInvalidEpisode)
}

func TestClient_RequiresBaseURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestWithoutBulk_HidesCapability(t *testing.T) {
	client, err := New("http://localhost:1")
	require.NoError(t, err)

	var loader graph.Loader = NewWithoutBulk(client)
	_, ok := loader.(graph.BulkLoader)
	assert.False(t, ok)
}

func TestAPIError_Retryable(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadRequest, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		err := &graph.APIError{StatusCode: tt.status, Message: "x"}
		assert.Equal(t, tt.retryable, err.Retryable(), "status %d", tt.status)
	}
}

// Package rest implements a graph.Loader over the HTTP API of a graph
// loader service.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/epigraph/core"
	"github.com/poiesic/epigraph/graph"
)

const (
	episodePath = "/episodes"
	bulkPath    = "/episodes/bulk"

	defaultTimeout = 60 * time.Second
)

// Client talks to a graph loader service over HTTP.
// It implements graph.BulkLoader; wrap it with WithoutBulk if the target
// service does not expose the bulk endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ graph.BulkLoader = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRateLimit adds a client-side request rate limit, in requests per
// second. Zero or negative disables it.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// New creates a client for the graph loader service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("graph loader base URL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default().With("component", "graph-rest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// episodePayload is the wire form of an episode.
type episodePayload struct {
	Name          string `json:"name"`
	Content       string `json:"content"`
	Source        string `json:"source"`
	Description   string `json:"source_description"`
	ReferenceTime string `json:"reference_time"`
}

func toPayload(episode core.Episode) episodePayload {
	return episodePayload{
		Name:          episode.Name,
		Content:       episode.Body,
		Source:        episode.Source.String(),
		Description:   episode.Description,
		ReferenceTime: episode.ReferenceTime.UTC().Format(time.RFC3339Nano),
	}
}

// AddEpisode implements graph.Loader.
func (c *Client) AddEpisode(ctx context.Context, episode core.Episode) error {
	if err := core.ValidateEpisode(&episode); err != nil {
		return err
	}
	c.logger.Debug("submitting episode", "name", episode.Name, "bytes", len(episode.Body))
	return c.post(ctx, episodePath, toPayload(episode))
}

// AddEpisodeBulk implements graph.BulkLoader.
func (c *Client) AddEpisodeBulk(ctx context.Context, episodes []core.Episode) error {
	if len(episodes) == 0 {
		return nil
	}
	payloads := make([]episodePayload, len(episodes))
	for i, episode := range episodes {
		if err := core.ValidateEpisode(&episode); err != nil {
			return err
		}
		payloads[i] = toPayload(episode)
	}
	c.logger.Debug("submitting episode batch", "count", len(payloads))
	return c.post(ctx, bulkPath, payloads)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	message := readErrorMessage(resp.Body)
	apiErr := &graph.APIError{StatusCode: resp.StatusCode, Message: message}
	c.logger.Debug("graph loader call failed", "status", resp.StatusCode, "message", message)
	return apiErr
}

// readErrorMessage extracts a service error message from a failed response,
// falling back to the raw body.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

// WithoutBulk narrows a client to the single-episode capability, for graph
// loader deployments that lack the bulk endpoint.
type WithoutBulk struct {
	client *Client
}

var _ graph.Loader = WithoutBulk{}

// NewWithoutBulk wraps a client so only graph.Loader is visible.
func NewWithoutBulk(client *Client) WithoutBulk {
	return WithoutBulk{client: client}
}

// AddEpisode implements graph.Loader.
func (w WithoutBulk) AddEpisode(ctx context.Context, episode core.Episode) error {
	return w.client.AddEpisode(ctx, episode)
}

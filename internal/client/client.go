// Package client is a typed HTTP client for the provenance API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

const (
	// DefaultBaseURL is where a locally running server serves the API.
	DefaultBaseURL = "http://localhost:5000/api"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Response is the envelope every endpoint answers with.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// Client calls the API rooted at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New returns a client for baseURL, or DefaultBaseURL when it is blank.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func get[T any](ctx context.Context, c *Client, endpoint string) (*Response[T], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var out Response[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return &out, nil
}

// GetGraph fetches every node and relationship.
func (c *Client) GetGraph(ctx context.Context) (*Response[models.ProvenanceGraph], error) {
	return get[models.ProvenanceGraph](ctx, c, "/provenance/graph")
}

// GetEntityProvenance fetches the neighbourhood of one entity.
func (c *Client) GetEntityProvenance(ctx context.Context, entityID string) (*Response[models.EntityProvenance], error) {
	return get[models.EntityProvenance](ctx, c, "/provenance/entity/"+url.PathEscape(entityID))
}

// GetActivityProvenance fetches the neighbourhood of one activity.
func (c *Client) GetActivityProvenance(ctx context.Context, activityID string) (*Response[models.ActivityProvenance], error) {
	return get[models.ActivityProvenance](ctx, c, "/provenance/activity/"+url.PathEscape(activityID))
}

// Search looks up nodes by name. kind is sent only when not blank.
func (c *Client) Search(ctx context.Context, query, kind string) (*Response[models.SearchResult], error) {
	params := url.Values{"q": {query}}
	if kind != "" {
		params.Set("type", kind)
	}
	return get[models.SearchResult](ctx, c, "/provenance/search?"+params.Encode())
}

// GetTimeline fetches the dated events in time order.
func (c *Client) GetTimeline(ctx context.Context) (*Response[models.Timeline], error) {
	return get[models.Timeline](ctx, c, "/provenance/timeline")
}

// GetEntityLineage fetches the upstream DAG of an entity.
func (c *Client) GetEntityLineage(ctx context.Context, entityID string) (*Response[models.Lineage], error) {
	return get[models.Lineage](ctx, c, "/provenance/graph/"+url.PathEscape(entityID))
}

// GetActivityLineage fetches the upstream workflow DAG of an activity.
func (c *Client) GetActivityLineage(ctx context.Context, activityID string) (*Response[models.Lineage], error) {
	return get[models.Lineage](ctx, c, "/provenance/activity-graph/"+url.PathEscape(activityID))
}

// GetSummary fetches node and relationship statistics.
func (c *Client) GetSummary(ctx context.Context) (*Response[models.GraphSummary], error) {
	return get[models.GraphSummary](ctx, c, "/provenance/graph-summary")
}

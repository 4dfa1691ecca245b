// Package client provides an HTTP client for the clipping dashboard API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arafta/clipdash/internal/buildinfo"
	"github.com/arafta/clipdash/internal/config"
	"github.com/arafta/clipdash/internal/review"
	"github.com/arafta/clipdash/internal/settings"
)

// Client is an HTTP client for the clipping dashboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func(ctx context.Context) (string, error)
	trace      bool
	traceOut   io.Writer
}

// RequestTrace contains metadata about an HTTP request/response for debugging.
type RequestTrace struct {
	Method       string
	URL          string
	StatusCode   int
	Duration     time.Duration
	RequestSize  int
	ResponseSize int
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithTrace enables request/response tracing.
func WithTrace(w io.Writer) Option {
	return func(c *Client) {
		c.trace = true
		c.traceOut = w
	}
}

// WithToken supplies a bearer token per request.
func WithToken(token func(ctx context.Context) (string, error)) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a new dashboard API client.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(cfg.APIBase, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response; Body carries the server's raw error text.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, body)
}

// IsAPIError reports whether err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	apiErr, ok := err.(*APIError)
	return apiErr, ok
}

// doRequest performs an HTTP request with common handling.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, []byte, error) {
	u := c.baseURL + path

	var reqBody io.Reader
	var reqSize int
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
		reqSize = len(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf("clipdash/%s", buildinfo.Version))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve bearer token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.trace && c.traceOut != nil {
		c.printTrace(RequestTrace{
			Method:       method,
			URL:          u,
			StatusCode:   resp.StatusCode,
			Duration:     duration,
			RequestSize:  reqSize,
			ResponseSize: len(respBody),
		})
	}

	return resp, respBody, nil
}

func (c *Client) printTrace(t RequestTrace) {
	fmt.Fprintf(c.traceOut, "\n[TRACE] %s %s\n", t.Method, t.URL)
	fmt.Fprintf(c.traceOut, "[TRACE] Status: %d | Duration: %s | Request: %d bytes | Response: %d bytes\n",
		t.StatusCode, t.Duration.Round(time.Millisecond), t.RequestSize, t.ResponseSize)
}

// HealthResponse represents the response from /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Tenants int    `json:"tenants,omitempty"`
}

// Ping checks the server health.
func (c *Client) Ping(ctx context.Context) (*HealthResponse, error) {
	resp, body, err := c.doRequest(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		// Unparseable body but a 200 status; report healthy.
		return &HealthResponse{Status: "ok"}, nil
	}
	return &health, nil
}

// FetchSettings retrieves a tenant's settings document, mapped onto the
// full default-filled shape. Satisfies settings.API.
func (c *Client) FetchSettings(ctx context.Context, clientID string) (settings.Document, error) {
	path := "/settings?clientId=" + url.QueryEscape(clientID)
	resp, body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return settings.Document{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return settings.Document{}, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return settings.FromWire(body, clientID), nil
}

// SaveSettings writes the complete settings document. Satisfies settings.API.
func (c *Client) SaveSettings(ctx context.Context, doc settings.Document) error {
	resp, body, err := c.doRequest(ctx, http.MethodPost, "/settings", doc)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

type queueResponse struct {
	Rows   []review.Item `json:"rows"`
	Counts review.Counts `json:"counts"`
}

// FetchQueue retrieves a tenant's content review queue. Satisfies review.API.
func (c *Client) FetchQueue(ctx context.Context, clientID string) ([]review.Item, review.Counts, error) {
	path := "/content-review-queue?client_id=" + url.QueryEscape(clientID)
	resp, body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, review.Counts{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, review.Counts{}, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var qr queueResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, review.Counts{}, fmt.Errorf("failed to parse queue response: %w", err)
	}
	return qr.Rows, qr.Counts, nil
}

type bulkReviewRequest struct {
	Items []review.Update `json:"items"`
}

// SubmitReviews sends a batch of review mutations. Satisfies review.API.
func (c *Client) SubmitReviews(ctx context.Context, updates []review.Update) error {
	resp, body, err := c.doRequest(ctx, http.MethodPost, "/content-reviews/bulk", bulkReviewRequest{Items: updates})
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// LocationRow is one country's share of views.
type LocationRow struct {
	Country       string  `json:"country"`
	OverallPct    float64 `json:"overall_pct"`
	WeightedViews float64 `json:"weighted_views"`
}

// LocationsResponse is the audience-location analytics payload.
type LocationsResponse struct {
	Rows       []LocationRow `json:"rows"`
	TotalViews float64       `json:"totalViews"`
}

// Locations retrieves audience-location analytics for a tenant.
func (c *Client) Locations(ctx context.Context, clientID, platform, engSpan string) (*LocationsResponse, []byte, error) {
	q := url.Values{}
	q.Set("clientId", clientID)
	if platform != "" {
		q.Set("platform", platform)
	}
	if engSpan != "" {
		q.Set("engSpan", engSpan)
	}
	resp, body, err := c.doRequest(ctx, http.MethodGet, "/analytics/locations?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, body, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var loc LocationsResponse
	if err := json.Unmarshal(body, &loc); err != nil {
		return nil, body, fmt.Errorf("failed to parse locations response: %w", err)
	}
	return &loc, body, nil
}

// DashboardRow is one clipper's monthly output.
type DashboardRow struct {
	ClipperID      string `json:"clipper_id"`
	ClipperName    string `json:"clipper_name"`
	Month          string `json:"month"`
	VideosPosted   int    `json:"videos_posted"`
	ViewsGenerated int64  `json:"views_generated"`
}

// Dashboard retrieves the clipper leaderboard rows.
func (c *Client) Dashboard(ctx context.Context) ([]DashboardRow, []byte, error) {
	resp, body, err := c.doRequest(ctx, http.MethodGet, "/dashboard-v2", nil)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, body, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var rows []DashboardRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, body, fmt.Errorf("failed to parse dashboard response: %w", err)
	}
	return rows, body, nil
}

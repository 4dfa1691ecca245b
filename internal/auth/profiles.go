package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPProfileStore implements ProfileStore over the dashboard API's
// profiles endpoint.
type HTTPProfileStore struct {
	baseURL    string
	httpClient *http.Client
	token      func(ctx context.Context) (string, error)
}

// NewHTTPProfileStore creates a profile store against the given API base URL.
// The token func supplies the bearer token per request and may be nil.
func NewHTTPProfileStore(baseURL string, token func(ctx context.Context) (string, error)) (*HTTPProfileStore, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("profile store base URL is required")
	}
	return &HTTPProfileStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
	}, nil
}

// GetProfile fetches the profile for a user id.
func (s *HTTPProfileStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	endpoint := s.baseURL + "/profiles/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != nil {
		tok, err := s.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bearer token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}
	return &profile, nil
}

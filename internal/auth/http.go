package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// HTTPConfig holds configuration for the HTTP auth provider.
type HTTPConfig struct {
	// BaseURL is the auth backend base URL, e.g. https://auth.arafta.io.
	BaseURL string
	// APIKey is the publishable API key sent with every request.
	APIKey string
	// Timeout is the per-request timeout. Defaults to 15s.
	Timeout time.Duration
	// SessionFile is the path where the session is cached between
	// invocations. Empty disables caching.
	SessionFile string
}

// HTTPProvider implements Provider against a token-based auth backend
// (password grant, refresh grant, OAuth code exchange).
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *SessionFile

	mu        sync.Mutex
	session   *Session
	listeners map[int]ChangeFunc
	nextID    int
}

// NewHTTPProvider creates a provider. The base URL must be non-empty.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("auth base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	p := &HTTPProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		listeners:  make(map[int]ChangeFunc),
	}
	if cfg.SessionFile != "" {
		p.cache = NewSessionFile(cfg.SessionFile)
	}
	return p, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

type authErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// GetSession returns the cached session, refreshing it if expired.
// Returns (nil, nil) when no identity is signed in.
func (p *HTTPProvider) GetSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()

	if sess == nil && p.cache != nil {
		loaded, err := p.cache.Load()
		if err != nil {
			return nil, err
		}
		sess = loaded
	}
	if sess == nil {
		return nil, nil
	}

	if !sess.Expired() {
		p.setSession(sess)
		return sess, nil
	}

	if sess.RefreshToken == "" {
		p.clearSession()
		return nil, nil
	}
	refreshed, err := p.refresh(ctx, sess.RefreshToken)
	if err != nil {
		// A refresh failure means the identity is effectively signed out.
		p.clearSession()
		return nil, nil
	}
	p.storeSession(refreshed)
	p.notify(EventTokenRefreshed, refreshed)
	return refreshed, nil
}

// SignInWithPassword exchanges credentials for a session.
func (p *HTTPProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	sess, err := p.tokenRequest(ctx, "password", body)
	if err != nil {
		return nil, err
	}
	p.storeSession(sess)
	p.notify(EventSignedIn, sess)
	return sess, nil
}

// ExchangeCodeForSession exchanges an OAuth authorization code for a session.
func (p *HTTPProvider) ExchangeCodeForSession(ctx context.Context, code string) (*Session, error) {
	body := map[string]string{"auth_code": code}
	sess, err := p.tokenRequest(ctx, "authorization_code", body)
	if err != nil {
		return nil, err
	}
	p.storeSession(sess)
	p.notify(EventSignedIn, sess)
	return sess, nil
}

// SignOut revokes the current session on the backend and clears the cache.
// The local session is cleared even if the revoke call fails.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()

	var revokeErr error
	if sess != nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/logout", nil)
		if err == nil {
			p.setHeaders(req, sess.AccessToken)
			resp, err := p.httpClient.Do(req)
			if err != nil {
				revokeErr = err
			} else {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}
	}

	p.clearSession()
	p.notify(EventSignedOut, nil)
	return revokeErr
}

// UpdateUser updates attributes of the signed-in user.
func (p *HTTPProvider) UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error) {
	sess, err := p.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("not signed in")
	}

	payload, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user attributes: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.baseURL+"/auth/user", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	p.setHeaders(req, sess.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth server returned status %d: %s", resp.StatusCode, authErrorText(respBody))
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	p.mu.Lock()
	if p.session != nil {
		p.session.User = user
	}
	sess = p.session
	p.mu.Unlock()
	if p.cache != nil && sess != nil {
		p.cache.Save(sess)
	}
	p.notify(EventUserUpdated, sess)
	return &user, nil
}

// OnAuthStateChange registers a listener and returns an unsubscribe function.
func (p *HTTPProvider) OnAuthStateChange(fn ChangeFunc) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *HTTPProvider) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return p.tokenRequest(ctx, "refresh_token", body)
}

func (p *HTTPProvider) tokenRequest(ctx context.Context, grantType string, body map[string]string) (*Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	endpoint := p.baseURL + "/auth/token?grant_type=" + url.QueryEscape(grantType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	p.setHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth server returned status %d: %s", resp.StatusCode, authErrorText(respBody))
	}

	var tok tokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("auth server returned no access token")
	}

	return &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		User:         tok.User,
	}, nil
}

func (p *HTTPProvider) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

func (p *HTTPProvider) setSession(sess *Session) {
	p.mu.Lock()
	p.session = sess
	p.mu.Unlock()
}

func (p *HTTPProvider) storeSession(sess *Session) {
	p.setSession(sess)
	if p.cache != nil {
		p.cache.Save(sess)
	}
}

func (p *HTTPProvider) clearSession() {
	p.setSession(nil)
	if p.cache != nil {
		p.cache.Clear()
	}
}

func (p *HTTPProvider) notify(event Event, sess *Session) {
	p.mu.Lock()
	fns := make([]ChangeFunc, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(event, sess)
	}
}

func authErrorText(body []byte) string {
	var e authErrorResponse
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.ErrorDescription != "":
			return e.ErrorDescription
		case e.Message != "":
			return e.Message
		case e.Error != "":
			return e.Error
		}
	}
	return string(body)
}

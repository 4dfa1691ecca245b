// Package server implements the local development API server: the full
// dashboard HTTP surface backed by an in-memory, seeded store.
package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arafta/clipdash/internal/auth"
	"github.com/arafta/clipdash/internal/review"
	"github.com/arafta/clipdash/internal/settings"
)

// DevUser is a seeded account for local sign-in.
type DevUser struct {
	ID       string
	Email    string
	Password string
	Profile  auth.Profile
}

type session struct {
	userID       string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// Store holds all dev-server state in memory.
type Store struct {
	mu        sync.Mutex
	settings  map[string]settings.Document
	queues    map[string][]review.Item
	locations map[string][]LocationRow
	dashboard []DashboardRow

	users     map[string]*DevUser // by email
	usersByID map[string]*DevUser
	sessions  map[string]*session // by access token
	refresh   map[string]*session // by refresh token
}

// LocationRow is one country's share of views for a tenant.
type LocationRow struct {
	Country       string  `json:"country"`
	OverallPct    float64 `json:"overall_pct"`
	WeightedViews float64 `json:"weighted_views"`
}

// DashboardRow is one clipper's monthly output.
type DashboardRow struct {
	ClipperID      string `json:"clipper_id"`
	ClipperName    string `json:"clipper_name"`
	Month          string `json:"month"`
	VideosPosted   int    `json:"videos_posted"`
	ViewsGenerated int64  `json:"views_generated"`
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		settings:  make(map[string]settings.Document),
		queues:    make(map[string][]review.Item),
		locations: make(map[string][]LocationRow),
		users:     make(map[string]*DevUser),
		usersByID: make(map[string]*DevUser),
		sessions:  make(map[string]*session),
		refresh:   make(map[string]*session),
	}
}

// NewStoreWithDefaults creates a store pre-populated with sample tenants,
// queue rows, analytics, and sign-in accounts for local development.
func NewStoreWithDefaults() *Store {
	s := NewStore()

	heading := "Arafta Clipping Program"
	deadline := "2026-10-31"
	s.settings["arafta"] = settings.Normalize(settings.Document{
		ClientID:      "arafta",
		HeadingText:   heading,
		WatermarkText: "@arafta",
		CampaignName:  "Q4 Growth Push",
		Platforms:     []string{"instagram", "tiktok"},
		BudgetUsd:     25000,
		Deadline:      &deadline,
		Requirements:  []string{"Watermark every clip", "No reposts across accounts"},
		PayoutsInstagram: settings.PayoutConfig{
			ViewsPerDollar: 1200,
			MaxPayEnabled:  true,
			MaxPayUsd:      250,
		},
		PayoutsYoutube: settings.DefaultPayout(),
		PayoutsTiktok: settings.PayoutConfig{
			ViewsPerDollar:  900,
			MinViewsEnabled: true,
			MinViews:        10000,
		},
	})

	s.seedQueue("arafta", []seedRow{
		{"tiktok", "clips.daily", review.BucketThisWeek, 48211, "Morning routine cut"},
		{"tiktok", "clips.daily", review.BucketOverdue, 19877, "Podcast highlight #3"},
		{"instagram", "arafta.moments", review.BucketThisWeek, 90214, "Launch teaser"},
		{"instagram", "arafta.moments", review.BucketOverdue, 6050, "Behind the scenes"},
	})
	s.seedQueue("bongino", []seedRow{
		{"youtube", "bongino.shorts", review.BucketThisWeek, 120031, "Monologue clip"},
		{"tiktok", "bongino.cuts", review.BucketOverdue, 5400, "Interview moment"},
	})

	s.locations["arafta"] = []LocationRow{
		{Country: "US", OverallPct: 52.4, WeightedViews: 1_204_000},
		{Country: "GB", OverallPct: 14.1, WeightedViews: 324_000},
		{Country: "CA", OverallPct: 9.8, WeightedViews: 225_000},
	}
	s.locations["bongino"] = []LocationRow{
		{Country: "US", OverallPct: 81.3, WeightedViews: 2_410_000},
		{Country: "AU", OverallPct: 6.2, WeightedViews: 183_000},
	}

	s.dashboard = []DashboardRow{
		{ClipperID: uuid.NewString(), ClipperName: "Maya R.", Month: "2026-08", VideosPosted: 41, ViewsGenerated: 2_380_000},
		{ClipperID: uuid.NewString(), ClipperName: "Deniz K.", Month: "2026-08", VideosPosted: 33, ViewsGenerated: 1_950_000},
		{ClipperID: uuid.NewString(), ClipperName: "Jon P.", Month: "2026-08", VideosPosted: 27, ViewsGenerated: 1_120_000},
	}

	s.AddUser(&DevUser{
		ID:       uuid.NewString(),
		Email:    "manager@arafta.io",
		Password: "manager-dev-password",
		Profile:  auth.Profile{Role: "manager", ClientID: "arafta", Email: "manager@arafta.io"},
	})
	s.AddUser(&DevUser{
		ID:       uuid.NewString(),
		Email:    "client@bongino.tv",
		Password: "client-dev-password",
		Profile:  auth.Profile{Role: "client", ClientID: "bongino", Email: "client@bongino.tv"},
	})

	return s
}

type seedRow struct {
	platform string
	account  string
	bucket   review.Bucket
	views    int64
	title    string
}

func (s *Store) seedQueue(clientID string, rows []seedRow) {
	items := make([]review.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, review.Item{
			Key: review.Key{
				ClientID:   clientID,
				Platform:   r.platform,
				AccountKey: r.account,
				VideoID:    uuid.NewString(),
			},
			Status:   review.StatusPending,
			Bucket:   r.bucket,
			Title:    r.title,
			Views:    r.views,
			PostedAt: time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02"),
			DueAt:    time.Now().UTC().AddDate(0, 0, 4).Format("2006-01-02"),
		})
	}
	s.queues[clientID] = items
}

// AddUser registers a sign-in account.
func (s *Store) AddUser(u *DevUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(u.Email)] = u
	s.usersByID[u.ID] = u
}

// TenantCount reports how many tenants have any stored data.
func (s *Store) TenantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenants := make(map[string]struct{}, len(s.settings)+len(s.queues))
	for id := range s.settings {
		tenants[id] = struct{}{}
	}
	for id := range s.queues {
		tenants[id] = struct{}{}
	}
	return len(tenants)
}

// GetSettings returns a tenant's settings document. Unknown tenants resolve
// to the default-filled document rather than an error.
func (s *Store) GetSettings(clientID string) settings.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.settings[clientID]; ok {
		return doc
	}
	return settings.DefaultDocument(clientID)
}

// PutSettings stores a tenant's settings document, normalized.
func (s *Store) PutSettings(doc settings.Document) {
	normalized := settings.Normalize(doc)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[normalized.ClientID] = normalized
}

// Queue returns a tenant's review rows and per-bucket counts.
func (s *Store) Queue(clientID string) ([]review.Item, review.Counts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.queues[clientID]
	out := make([]review.Item, len(rows))
	copy(out, rows)

	var counts review.Counts
	for _, row := range rows {
		counts.All++
		switch row.Bucket {
		case review.BucketThisWeek:
			counts.ThisWeek++
		case review.BucketOverdue:
			counts.Overdue++
		case review.BucketDone:
			counts.Done++
		}
	}
	return out, counts
}

// ApplyReviews applies a batch of review mutations atomically: every item
// is validated before any row is mutated.
func (s *Store) ApplyReviews(updates []review.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type target struct {
		clientID string
		index    int
		update   review.Update
	}
	targets := make([]target, 0, len(updates))
	for _, u := range updates {
		if u.Status == review.StatusRejected && strings.TrimSpace(u.Feedback) == "" {
			return fmt.Errorf("rejection of %s requires feedback_text", u.Key)
		}
		idx := -1
		for i, row := range s.queues[u.ClientID] {
			if row.Key == u.Key {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("unknown review row: %s", u.Key)
		}
		targets = append(targets, target{clientID: u.ClientID, index: idx, update: u})
	}

	for _, t := range targets {
		row := &s.queues[t.clientID][t.index]
		row.Status = t.update.Status
		row.Feedback = t.update.Feedback
		if t.update.Status != review.StatusPending {
			row.Bucket = review.BucketDone
		}
	}
	return nil
}

// Locations returns a tenant's audience-location rows, optionally narrowed
// to one platform (the seed data is not platform-split, so the filter only
// affects totals when rows carry no platform).
func (s *Store) Locations(clientID string) []LocationRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.locations[clientID]
	out := make([]LocationRow, len(rows))
	copy(out, rows)
	return out
}

// Dashboard returns the leaderboard rows.
func (s *Store) Dashboard() []DashboardRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DashboardRow, len(s.dashboard))
	copy(out, s.dashboard)
	return out
}

// SignIn validates credentials and mints a session.
func (s *Store) SignIn(email, password string) (*DevUser, string, string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.Password != password {
		return nil, "", "", time.Time{}, fmt.Errorf("invalid login credentials")
	}
	return s.mintLocked(u)
}

// Exchange accepts any seeded user's id as a dev authorization code.
func (s *Store) Exchange(code string) (*DevUser, string, string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[code]
	if !ok {
		return nil, "", "", time.Time{}, fmt.Errorf("invalid authorization code")
	}
	return s.mintLocked(u)
}

// Refresh rotates a refresh token into a new session.
func (s *Store) Refresh(refreshToken string) (*DevUser, string, string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.refresh[refreshToken]
	if !ok {
		return nil, "", "", time.Time{}, fmt.Errorf("invalid refresh token")
	}
	delete(s.refresh, refreshToken)
	delete(s.sessions, sess.accessToken)
	u := s.usersByID[sess.userID]
	if u == nil {
		return nil, "", "", time.Time{}, fmt.Errorf("unknown user")
	}
	return s.mintLocked(u)
}

func (s *Store) mintLocked(u *DevUser) (*DevUser, string, string, time.Time, error) {
	sess := &session{
		userID:       u.ID,
		accessToken:  uuid.NewString(),
		refreshToken: uuid.NewString(),
		expiresAt:    time.Now().Add(time.Hour),
	}
	s.sessions[sess.accessToken] = sess
	s.refresh[sess.refreshToken] = sess
	return u, sess.accessToken, sess.refreshToken, sess.expiresAt, nil
}

// UserForToken resolves an access token to its user.
func (s *Store) UserForToken(accessToken string) *DevUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[accessToken]
	if !ok || time.Now().After(sess.expiresAt) {
		return nil
	}
	return s.usersByID[sess.userID]
}

// RevokeToken terminates the session for an access token.
func (s *Store) RevokeToken(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[accessToken]; ok {
		delete(s.refresh, sess.refreshToken)
		delete(s.sessions, accessToken)
	}
}

// UpdateUser applies attribute changes to a user. An email change re-keys
// the email index so the new address signs in and the old one stops working.
func (s *Store) UpdateUser(userID, email, password string) (DevUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[userID]
	if !ok {
		return DevUser{}, fmt.Errorf("unknown user")
	}
	if password != "" {
		u.Password = password
	}
	if email != "" {
		newKey := strings.ToLower(strings.TrimSpace(email))
		oldKey := strings.ToLower(u.Email)
		if newKey != oldKey {
			if _, taken := s.users[newKey]; taken {
				return DevUser{}, fmt.Errorf("email already in use")
			}
			delete(s.users, oldKey)
			s.users[newKey] = u
		}
		u.Email = email
		u.Profile.Email = email
	}
	return *u, nil
}

// Profile returns the stored profile for a user id.
func (s *Store) Profile(userID string) (auth.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[userID]
	if !ok {
		return auth.Profile{}, false
	}
	return u.Profile, true
}

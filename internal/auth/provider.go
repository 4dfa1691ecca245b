// Package auth provides access to the managed authentication backend and
// the user-profile store. Both are consumed as black boxes behind interfaces
// so the rest of the codebase never depends on a concrete auth vendor.
package auth

import (
	"context"
	"time"
)

// User is the authenticated identity as reported by the auth backend.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the tokens and user for a signed-in identity.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the session's access token has expired.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Event describes an auth state transition.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// ChangeFunc is invoked on every auth state change. The session is nil when
// the identity signed out.
type ChangeFunc func(event Event, session *Session)

// UserAttributes are the mutable attributes of the signed-in user.
type UserAttributes struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Provider is the managed auth backend.
type Provider interface {
	// GetSession returns the current session, or (nil, nil) when signed out.
	GetSession(ctx context.Context) (*Session, error)

	// SignInWithPassword exchanges email/password credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignOut terminates the current session.
	SignOut(ctx context.Context) error

	// ExchangeCodeForSession exchanges an OAuth authorization code for a session.
	ExchangeCodeForSession(ctx context.Context, code string) (*Session, error)

	// UpdateUser updates attributes of the signed-in user.
	UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error)

	// OnAuthStateChange registers a listener for auth state transitions and
	// returns an unsubscribe function.
	OnAuthStateChange(fn ChangeFunc) (unsubscribe func())
}

// Profile is the stored role/tenant record for a user, one per user id.
type Profile struct {
	Role     string `json:"role"`
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
}

// ProfileStore looks up profiles by user id.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

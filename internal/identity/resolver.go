// Package identity resolves the role and effective tenant for the current
// signed-in identity. Absence of identity, and any profile lookup failure,
// resolves to the least-privilege client role.
package identity

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/arafta/clipdash/internal/auth"
)

// Role is the access level of an identity.
type Role string

const (
	RoleManager Role = "manager"
	RoleClient  Role = "client"
)

const (
	// DefaultManagerTenant is the tenant a manager operates against until
	// a preference has been stored.
	DefaultManagerTenant = "arafta"

	// DefaultClientTenant is the tenant assigned when no identity or no
	// profile tenant is available.
	DefaultClientTenant = "default"
)

// Identity is the resolved role and tenant assignment for a session.
type Identity struct {
	Role     Role
	ClientID string
	Email    string
}

// IsManager reports whether this identity may switch tenants.
func (id Identity) IsManager() bool {
	return id.Role == RoleManager
}

func failClosed() Identity {
	return Identity{Role: RoleClient, ClientID: DefaultClientTenant}
}

// Resolve maps a session to an identity. A nil session or a failed profile
// lookup yields the client role with the "default" tenant; lookup failures
// are logged, never surfaced, so the caller stays usable in degraded mode.
func Resolve(ctx context.Context, session *auth.Session, profiles auth.ProfileStore, log *zap.Logger) Identity {
	if log == nil {
		log = zap.NewNop()
	}
	if session == nil {
		return failClosed()
	}
	profile, err := profiles.GetProfile(ctx, session.User.ID)
	if err != nil || profile == nil {
		log.Warn("profile lookup failed, using least-privilege defaults",
			zap.String("user_id", session.User.ID),
			zap.Error(err),
		)
		return failClosed()
	}
	return Identity{
		Role:     Role(profile.Role),
		ClientID: profile.ClientID,
		Email:    profile.Email,
	}
}

// Tracker keeps the resolved identity current across auth state changes.
// Every session change re-triggers resolution; a lookup still in flight when
// the user id changes again discards its result on arrival.
type Tracker struct {
	profiles auth.ProfileStore
	log      *zap.Logger

	mu       sync.Mutex
	gen      uint64
	resolved bool
	userID   string
	current  Identity
	unsub    func()
}

// NewTracker creates a tracker. It does not subscribe to anything by itself;
// use Watch to follow a provider, or drive it directly with Apply.
func NewTracker(profiles auth.ProfileStore, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{profiles: profiles, log: log}
}

// Watch subscribes the tracker to a provider's auth state changes and
// resolves the provider's current session immediately.
func (t *Tracker) Watch(ctx context.Context, provider auth.Provider) error {
	t.unsub = provider.OnAuthStateChange(func(_ auth.Event, session *auth.Session) {
		t.Apply(ctx, session)
	})
	session, err := provider.GetSession(ctx)
	if err != nil {
		t.log.Warn("session retrieval failed, using least-privilege defaults", zap.Error(err))
		session = nil
	}
	t.Apply(ctx, session)
	return nil
}

// Apply re-resolves the identity for the given session. A nil session
// resolves immediately without a lookup. Concurrent Apply calls race on the
// profile lookup; only the most recently initiated one commits its result.
func (t *Tracker) Apply(ctx context.Context, session *auth.Session) Identity {
	if session == nil {
		t.mu.Lock()
		t.gen++
		t.userID = ""
		t.current = failClosed()
		t.resolved = true
		t.mu.Unlock()
		return failClosed()
	}

	t.mu.Lock()
	if t.resolved && t.userID == session.User.ID {
		// Same user, nothing to re-derive.
		id := t.current
		t.mu.Unlock()
		return id
	}
	t.gen++
	gen := t.gen
	t.userID = session.User.ID
	t.resolved = false
	t.mu.Unlock()

	id := Resolve(ctx, session, t.profiles, t.log)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		// Superseded by a newer session change; drop this result.
		return id
	}
	t.current = id
	t.resolved = true
	return id
}

// Current returns the resolved identity. The second return is false while
// resolution is pending; role-gated decisions must defer until it is true.
func (t *Tracker) Current() (Identity, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.resolved
}

// Close unsubscribes from the watched provider, if any.
func (t *Tracker) Close() {
	if t.unsub != nil {
		t.unsub()
		t.unsub = nil
	}
}

package identity

import (
	"fmt"
	"strings"
)

// PrefKeyManagerTenant is the durable storage key holding the manager's
// last-selected tenant. Client-role identities never read or write it.
const PrefKeyManagerTenant = "manager.client_id"

// PrefStore is durable key/value storage for user preferences. Reads must be
// defensive: a missing or corrupt value reports ok=false.
type PrefStore interface {
	Get(key string) (value string, ok bool)
	Set(key, value string) error
}

// Source supplies the resolved identity; Current returns false while role
// resolution is still pending.
type Source interface {
	Current() (Identity, bool)
}

// NormalizeTenant canonicalizes a tenant id for comparison and storage.
func NormalizeTenant(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Environment computes the effective tenant id for the current identity.
// Managers resolve to their stored preference; clients are locked to their
// profile-assigned tenant.
type Environment struct {
	source Source
	prefs  PrefStore
}

// NewEnvironment creates an environment resolver. Both dependencies are
// required; passing nil is a programming error and fails immediately.
func NewEnvironment(source Source, prefs PrefStore) (*Environment, error) {
	if source == nil {
		return nil, fmt.Errorf("identity: environment requires an identity source")
	}
	if prefs == nil {
		return nil, fmt.Errorf("identity: environment requires a preference store")
	}
	return &Environment{source: source, prefs: prefs}, nil
}

// ClientID returns the effective tenant id. ok is false while role
// resolution is pending; callers must not treat that as a valid tenant.
func (e *Environment) ClientID() (clientID string, ok bool) {
	id, resolved := e.source.Current()
	if !resolved {
		return "", false
	}
	if id.IsManager() {
		if stored, present := e.prefs.Get(PrefKeyManagerTenant); present {
			if normalized := NormalizeTenant(stored); normalized != "" {
				return normalized, true
			}
		}
		return DefaultManagerTenant, true
	}
	if normalized := NormalizeTenant(id.ClientID); normalized != "" {
		return normalized, true
	}
	return DefaultClientTenant, true
}

// SetClientID updates the manager's tenant preference. For any non-manager
// identity, including an unresolved one, the call is silently ignored.
func (e *Environment) SetClientID(next string) error {
	id, resolved := e.source.Current()
	if !resolved || !id.IsManager() {
		return nil
	}
	return e.prefs.Set(PrefKeyManagerTenant, NormalizeTenant(next))
}

// IsManager reports whether the resolved identity may switch tenants.
// Returns false while resolution is pending.
func (e *Environment) IsManager() bool {
	id, resolved := e.source.Current()
	return resolved && id.IsManager()
}

// Package session holds the per-session authentication state and keeps it
// synchronized with the hosted identity provider.
//
// The Store is the single holder of "who is logged in" for one render
// lifetime: seeded by the server-side route guard, reconciled afterwards by
// the Resyncer. Consumers only ever read snapshots; the authenticated flag
// is derived from the user pointer and can never disagree with it.
package session

import (
	"sync"

	"crm/internal/domain/entity"
)

// Snapshot is a read-only view of the auth state at one point in time.
type Snapshot struct {
	User *entity.AuthUser
	// IsAuthenticated always equals User != nil; it is materialized here so
	// serialized snapshots carry the flag without recomputation.
	IsAuthenticated bool
}

// Store is a per-session mutable holder of the authenticated user.
//
// A Store must never be shared across sessions: the guard creates one per
// request and hands it down through the request context. Writes come from
// exactly one logical owner at a time (the guard at seed time, the Resyncer
// afterwards); reads are safe from any goroutine.
type Store struct {
	mu   sync.RWMutex
	user *entity.AuthUser
	// lastApplied is the sequence token of the newest reconciliation that
	// has been written. Older in-flight verifications are discarded.
	lastApplied uint64
}

// NewStore creates a store seeded with the guard's verified user, which may
// be nil for anonymous sessions.
func NewStore(seed *entity.AuthUser) *Store {
	return &Store{user: seed}
}

// Snapshot returns the current auth state. The returned user pointer is the
// cached advisory copy; access decisions must re-verify with the provider.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{User: s.user, IsAuthenticated: s.user != nil}
}

// User returns the cached user, nil when signed out.
func (s *Store) User() *entity.AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user
}

// IsAuthenticated reports whether a user is present. It is a projection of
// User, never independent state.
func (s *Store) IsAuthenticated() bool {
	return s.User() != nil
}

// Apply writes a reconciliation result tagged with its sequence token.
// It returns false and leaves the store untouched when a newer result has
// already been applied, which is how out-of-order verification completions
// are discarded.
func (s *Store) Apply(seq uint64, user *entity.AuthUser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastApplied {
		return false
	}

	s.lastApplied = seq
	s.user = user

	return true
}

// Clear unconditionally signs the store out. Used by logout, which must
// succeed locally even when the remote sign-out fails.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
}

// Package revocation keeps revoked access tokens (by jti) until they expire.
package revocation

import (
	"context"
	"sync"
	"time"
)

// List is a token revocation list keyed by JWT ID
type List interface {
	// Revoke marks jti as revoked for ttl. Empty jti or non-positive ttl is a no-op.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether jti was revoked and has not expired yet
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Memory is an in-process List. Suitable for a single server instance.
type Memory struct {
	now     func() time.Time
	revoked map[string]time.Time
	mu      sync.RWMutex
}

var _ List = (*Memory)(nil)

// NewMemory creates an empty in-memory revocation list
func NewMemory() *Memory {
	return &Memory{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke adds jti to the list until now+ttl
func (m *Memory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = m.now().Add(ttl)
	return nil
}

// IsRevoked reports whether jti is in the list
func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	m.mu.RLock()
	until, ok := m.revoked[jti]
	m.mu.RUnlock()

	return ok && m.now().Before(until), nil
}

// Purge removes expired entries and returns how many were removed
func (m *Memory) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for jti, until := range m.revoked {
		if !now.Before(until) {
			delete(m.revoked, jti)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.revoked)
}

// Package otp stores hashed one-time login codes with an expiry.
package otp

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStoreFull is returned when the memory store has no room for another code.
var ErrStoreFull = errors.New("otp: store full")

// MemoryStore keeps codes in process memory. It suits single instance deployments and
// tests; codes are lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	maxEntries int
	entries    map[string]memoryEntry
}

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

// NewMemoryStore constructs a store holding at most maxEntries codes.
func NewMemoryStore(maxEntries int, now func() time.Time) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:        now,
		maxEntries: maxEntries,
		entries:    make(map[string]memoryEntry),
	}
}

// SaveCode replaces any pending code for the email.
func (s *MemoryStore) SaveCode(_ context.Context, email, hash string, ttl time.Duration) error {
	expiry := s.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[email]; !exists && len(s.entries) >= s.maxEntries {
		s.purgeLocked()
		if len(s.entries) >= s.maxEntries {
			return ErrStoreFull
		}
	}
	s.entries[email] = memoryEntry{hash: hash, expiresAt: expiry}
	return nil
}

// LoadCode returns the pending hash for the email, if any.
func (s *MemoryStore) LoadCode(_ context.Context, email string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[email]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		if current, still := s.entries[email]; still && current == entry {
			delete(s.entries, email)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.hash, true, nil
}

// DeleteCode removes the pending code and reports whether one was present.
func (s *MemoryStore) DeleteCode(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok {
		return false, nil
	}
	delete(s.entries, email)
	return s.now().Before(entry.expiresAt), nil
}

// Purge drops expired codes and returns how many were removed.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeLocked()
}

// Len returns the number of stored codes, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) purgeLocked() int {
	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

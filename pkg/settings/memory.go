package settings

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
// This is primarily useful for testing and for devices without storage.
type MemoryStore struct {
	mu       sync.RWMutex
	ints     map[string]int
	profiles []Profile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ints: make(map[string]int)}
}

// GetInt returns the integer stored under key.
func (s *MemoryStore) GetInt(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ints[key], nil
}

// SetInt stores an integer under key.
func (s *MemoryStore) SetInt(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints[key] = value
	return nil
}

// AddProfile appends or replaces a profile.
func (s *MemoryStore) AddProfile(p Profile) error {
	if err := validate(p); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = promote(s.profiles, p)
	return nil
}

// Profiles returns a copy of the stored profiles, most recent first.
func (s *MemoryStore) Profiles() ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Profile, len(s.profiles))
	copy(out, s.profiles)
	return out, nil
}

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)

// Package cache holds the last known activity interval per (user, goal).
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry records the most recently observed activity tail for one goal of one
// user. The backing store stays authoritative; the cache only avoids a store
// round-trip for back-to-back events extending the same interval.
type Entry struct {
	StartTime time.Time
	EndTime   time.Time
	Zone      *time.Location
}

// LastActivityCache is the capability interface injected into the engine.
// Implementations may be in-process or distributed; reads must observe the
// most recent update made under the same per-user lock.
type LastActivityCache interface {
	Fetch(userAnonymizedID, goalID uuid.UUID) (Entry, bool)
	Update(userAnonymizedID, goalID uuid.UUID, entry Entry)
}

type key struct {
	user uuid.UUID
	goal uuid.UUID
}

// Memory is the in-process LastActivityCache implementation.
type Memory struct {
	mu      sync.RWMutex
	entries map[key]Entry
}

// NewMemory constructs an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[key]Entry)}
}

// Fetch implements LastActivityCache.
func (m *Memory) Fetch(userAnonymizedID, goalID uuid.UUID) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key{user: userAnonymizedID, goal: goalID}]
	return entry, ok
}

// Update implements LastActivityCache.
func (m *Memory) Update(userAnonymizedID, goalID uuid.UUID, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key{user: userAnonymizedID, goal: goalID}] = entry
}

// Package lockpool serializes work per anonymized user id.
package lockpool

import (
	"sync"

	"github.com/google/uuid"
)

// Pool hands out one mutex per id. Locks for different ids are independent.
// Entries are reference counted and removed once the last holder releases,
// so the pool does not grow with the number of distinct ids seen.
type Pool struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewPool constructs an empty Pool.
func NewPool() *Pool {
	return &Pool{locks: make(map[uuid.UUID]*entry)}
}

// Lock acquires the exclusive lock for id and returns the release function.
// Callers must invoke the release on every exit path.
func (p *Pool) Lock(id uuid.UUID) func() {
	p.mu.Lock()
	e, ok := p.locks[id]
	if !ok {
		e = &entry{}
		p.locks[id] = e
	}
	e.refs++
	p.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			p.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(p.locks, id)
			}
			p.mu.Unlock()
		})
	}
}

// With runs fn while holding the lock for id.
func (p *Pool) With(id uuid.UUID, fn func()) {
	unlock := p.Lock(id)
	defer unlock()
	fn()
}

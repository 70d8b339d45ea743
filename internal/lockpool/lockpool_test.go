package lockpool

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLockSerializesSameID(t *testing.T) {
	pool := NewPool()
	id := uuid.New()

	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.With(id, func() {
				value := counter
				time.Sleep(time.Microsecond)
				counter = value + 1
			})
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)
}

func TestLocksForDifferentIDsDoNotBlock(t *testing.T) {
	pool := NewPool()
	first := uuid.New()
	second := uuid.New()

	unlockFirst := pool.Lock(first)
	defer unlockFirst()

	done := make(chan struct{})
	go func() {
		pool.With(second, func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock for an independent id blocked")
	}
}

func TestPoolShrinksAfterRelease(t *testing.T) {
	pool := NewPool()
	id := uuid.New()

	unlock := pool.Lock(id)
	unlock()
	// Releasing twice is harmless.
	unlock()

	pool.mu.Lock()
	defer pool.mu.Unlock()
	require.Empty(t, pool.locks)
}

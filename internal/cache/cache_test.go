package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFetchMissesForUnknownPair(t *testing.T) {
	memory := NewMemory()

	_, ok := memory.Fetch(uuid.New(), uuid.New())
	require.False(t, ok)
}

func TestUpdateThenFetch(t *testing.T) {
	memory := NewMemory()
	user := uuid.New()
	goal := uuid.New()

	entry := Entry{
		StartTime: time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, time.May, 5, 9, 30, 0, 0, time.UTC),
		Zone:      time.UTC,
	}
	memory.Update(user, goal, entry)

	got, ok := memory.Fetch(user, goal)
	require.True(t, ok)
	require.Equal(t, entry, got)

	// A different goal of the same user is an independent slot.
	_, ok = memory.Fetch(user, uuid.New())
	require.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	memory := NewMemory()
	user := uuid.New()
	goal := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			memory.Update(user, goal, Entry{EndTime: time.Unix(int64(n), 0), Zone: time.UTC})
		}(i)
		go func() {
			defer wg.Done()
			memory.Fetch(user, goal)
		}()
	}
	wg.Wait()

	_, ok := memory.Fetch(user, goal)
	require.True(t, ok)
}

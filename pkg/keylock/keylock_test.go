package keylock

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	l := New()
	counter := 0

	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			unlock := l.Lock("user1")
			defer unlock()
			counter++
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, 100, counter)
	require.Zero(t, l.Size())
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	l := New()

	unlock := l.Lock("user1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Must not block on user1.
		l.Lock("user2")()
	}()
	wg.Wait()

	require.Equal(t, 1, l.Size())
	unlock()
	require.Zero(t, l.Size())
}

func TestKeyLock_ReleasesUnusedKeys(t *testing.T) {
	l := New()

	counters := make([]int, 50)
	var g errgroup.Group
	for i := 0; i < 1000; i++ {
		index := i % len(counters)
		g.Go(func() error {
			unlock := l.Lock(fmt.Sprintf("user%d", index))
			defer unlock()
			counters[index]++
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Zero(t, l.Size())
	for _, counter := range counters {
		require.Equal(t, 20, counter)
	}
}

// Package keylock serializes work per key inside a single process.
package keylock

import (
	"sync"

	"github.com/puzpuzpuz/xsync"
)

type entry struct {
	mu sync.Mutex

	// guard protects refs and dead.
	guard sync.Mutex
	refs  int
	dead  bool
}

// KeyLock keeps an entry only while its key is held or waited for.
type KeyLock struct {
	locks *xsync.MapOf[string, *entry]
}

func New() *KeyLock {
	return &KeyLock{locks: xsync.NewMapOf[*entry]()}
}

// Lock blocks until the lock of key is held and returns the function
// releasing it. Locks of different keys never block each other.
func (l *KeyLock) Lock(key string) func() {
	for {
		e, _ := l.locks.LoadOrCompute(key, func() *entry { return &entry{} })

		e.guard.Lock()
		if e.dead {
			// Released and removed after we loaded it.
			e.guard.Unlock()
			continue
		}
		e.refs++
		e.guard.Unlock()

		e.mu.Lock()
		return func() { l.release(key, e) }
	}
}

func (l *KeyLock) release(key string, e *entry) {
	e.mu.Unlock()

	e.guard.Lock()
	defer e.guard.Unlock()

	e.refs--
	if e.refs == 0 {
		e.dead = true
		l.locks.Delete(key)
	}
}

// Size returns the number of keys currently held or waited for.
func (l *KeyLock) Size() int {
	return l.locks.Size()
}

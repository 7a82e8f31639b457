package lock

import "sync"

// KeyedMutex serializes work per string key. Used for single-writer-at-a-time
// guarantees on a project's collection and for ordered appends within one
// conversation. Mutex entries are never evicted; the key space (projects,
// live conversations) is small and bounded per process lifetime.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

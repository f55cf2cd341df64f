package core

import "sync"

// KeyedMutex is an arena of mutexes indexed by string key. It provides
// per-project and per-chat serialization without a single global lock:
// operations on different keys proceed in parallel, operations on the same
// key are mutually exclusive.
//
// Mutexes are created on first use and kept for the lifetime of the arena.
// The arena is expected to hold a bounded key population (project names,
// active chat ids), so entries are not reaped.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty mutex arena.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key. The mutex must be held.
func (k *KeyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

package application

import "sync"

// LockRegistry hands out named process-wide mutexes. Every caller asking for
// the same name gets the same mutex, so independent components can serialize
// on a shared resource (one account's settings tree) without holding a
// reference to each other.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockRegistry creates an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex registered under name, creating it on first use,
// and returns the matching unlock function.
func (r *LockRegistry) Lock(name string) func() {
	r.mu.Lock()
	m, ok := r.locks[name]
	if !ok {
		m = &sync.Mutex{}
		r.locks[name] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

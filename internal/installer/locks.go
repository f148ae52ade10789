package installer

import "sync"

// lockRegistry hands out one mutex per installation id. Installs, updates,
// backups, and restores against the same installation must not interleave;
// callers hold the lock for the whole operation. Locks are never discarded,
// the registry grows with the number of installations ever touched, which
// stays tiny.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the installation's lock is held and returns the
// release function.
func (r *lockRegistry) Acquire(installationID string) func() {
	r.mu.Lock()
	lock, ok := r.locks[installationID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[installationID] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

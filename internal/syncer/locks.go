package syncer

import "sync"

// keyedLocks serializes operations per (app, slug) pair — the unit of
// atomicity for the engine. A pull and a push for the same agent must not
// interleave; different agents and different apps may proceed concurrently.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the key and returns the unlock function.
// Locks are held for one create/update/push only, never across operations.
func (k *keyedLocks) acquire(appID, slug string) func() {
	key := appID + ":" + slug
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

package syncer

import (
	"sync"
	"testing"
)

func TestKeyedLocks_SerializesSameKey(t *testing.T) {
	k := newKeyedLocks()

	const n = 100
	counter := 0
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			unlock := k.acquire("app-1", "spot-dev")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != n {
		t.Errorf("counter = %d, want %d", counter, n)
	}
}

func TestKeyedLocks_DifferentKeysDoNotBlock(t *testing.T) {
	k := newKeyedLocks()

	unlockA := k.acquire("app-1", "alpha")
	defer unlockA()

	// Must not deadlock: a different slug uses a different mutex.
	unlockB := k.acquire("app-1", "beta")
	unlockB()

	unlockC := k.acquire("app-2", "alpha")
	unlockC()
}

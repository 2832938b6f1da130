package sync

import gosync "sync"

// KeyedMutex serializes work per string key. The engine and the
// coordinator share one instance keyed by user ID, which gives the
// single-writer-per-user guarantee: a submit and a queue drain for the
// same user never interleave, while different users proceed in
// parallel.
type KeyedMutex struct {
	mu    gosync.Mutex
	locks map[string]*gosync.Mutex
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*gosync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use. Per-key
// mutexes are never removed; the key space is bounded by the set of
// users active in this process.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &gosync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
}

// Unlock releases the mutex for key. Unlock of a never-locked key panics,
// same as sync.Mutex.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	k.mu.Unlock()

	m.Unlock()
}

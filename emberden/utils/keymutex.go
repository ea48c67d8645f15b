package utils

import "sync"

// KeyMutex hands out one mutex per string key so callers can serialize
// work on a single entity without a global lock. Mutexes are created on
// first use and kept for the life of the process; the key space here
// (trainers, monsters, bosses) is small enough that eviction is not
// worth the complexity.
type KeyMutex struct {
	locks sync.Map
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{}
}

// Lock acquires the mutex for key, creating it if needed.
func (k *KeyMutex) Lock(key string) {
	mu, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

// Unlock releases the mutex for key. Must follow a Lock on the same key.
func (k *KeyMutex) Unlock(key string) {
	if mu, ok := k.locks.Load(key); ok {
		mu.(*sync.Mutex).Unlock()
	}
}

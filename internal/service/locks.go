package service

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes operations on a single resource (one terminal's
// drawer/session, one transaction) without coordinating across resources.
// Entries are never evicted; the key space is bounded by the number of live
// terminals and in-flight transactions.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and returns the
// unlock function.
func (k *keyedMutex) Lock(key uuid.UUID) func() {
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

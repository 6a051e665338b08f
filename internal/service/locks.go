package service

import "sync"

// KeyedLocks hands out one mutex per key, giving single-writer-per-account
// discipline that holds for both ledger implementations. Transfers lock the
// account number; complaint resolution locks the disputed transaction ref
// first and the account second, and transfers never hold two account locks
// at once, so the ordering is acyclic.
type KeyedLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{m: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *KeyedLocks) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

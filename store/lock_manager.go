// Package store provides ItemStore implementations: a flock-guarded JSON
// file store for real use and an in-memory store for tests.
package store

import "sync"

// operationType distinguishes read operations, which may run concurrently,
// from write operations, which are exclusive.
type operationType int

const (
	readOperation operationType = iota
	writeOperation
)

// lockManager centralizes the store's in-process locking so every code path
// takes the appropriate lock type.
type lockManager struct {
	mu *sync.RWMutex
}

func newLockManager() *lockManager {
	return &lockManager{mu: &sync.RWMutex{}}
}

func (lm *lockManager) execute(opType operationType, fn func() error) error {
	switch opType {
	case readOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case writeOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

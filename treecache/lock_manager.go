// Package treecache holds precomputed hierarchy subtree snapshots keyed by
// view and path prefix, with TTL expiry and invalidation driven by the code
// mutations the hierarchy engine emits.
package treecache

import "sync"

// operationType defines whether an operation is read or write, so the
// lockManager can use read locks for concurrent reads and exclusive locks
// for writes.
type operationType int

const (
	readOperation operationType = iota
	writeOperation
)

// lockManager centralizes the cache's locking strategy. Keeping every map
// access behind execute prevents lock/unlock/relock patterns and ensures
// each operation takes the appropriate lock type.
type lockManager struct {
	mu *sync.RWMutex
}

func newLockManager() *lockManager {
	return &lockManager{mu: &sync.RWMutex{}}
}

// execute runs fn under the lock matching the operation type. The lock is
// released via defer, so it is cleaned up even if fn panics.
func (lm *lockManager) execute(opType operationType, fn func()) {
	switch opType {
	case readOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case writeOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	fn()
}

package treecache

import (
	"sync"
	"time"

	"github.com/codetree-io/codetree/types"
)

// Collector batches code mutations so that many changes within one logical
// operation trigger a single invalidation pass. Mutations accumulate
// synchronously; the first mutation of an otherwise-empty batch schedules
// one deferred flush. Flush is public and idempotent, so callers needing
// synchronous consistency can force the pass themselves instead of waiting
// out the coalescing window.
type Collector struct {
	mu        sync.Mutex
	cache     *Cache
	pending   []types.CodeMutation
	delay     time.Duration
	autoFlush bool
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithFlushDelay sets the coalescing window for the deferred auto-flush.
// The default of zero flushes on the next scheduler tick.
func WithFlushDelay(d time.Duration) CollectorOption {
	return func(c *Collector) { c.delay = d }
}

// WithManualFlush disables the scheduler-driven auto-flush entirely; the
// caller owns when Flush runs.
func WithManualFlush() CollectorOption {
	return func(c *Collector) { c.autoFlush = false }
}

// NewCollector creates a collector that invalidates through the given cache.
func NewCollector(cache *Cache, opts ...CollectorOption) *Collector {
	c := &Collector{cache: cache, autoFlush: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add accumulates one mutation, scheduling a deferred flush if the batch
// was empty.
func (c *Collector) Add(m types.CodeMutation) {
	c.mu.Lock()
	wasEmpty := len(c.pending) == 0
	c.pending = append(c.pending, m)
	c.mu.Unlock()

	if wasEmpty && c.autoFlush {
		time.AfterFunc(c.delay, c.Flush)
	}
}

// ObserveMutations accumulates a batch of mutations. It satisfies the
// hierarchy engine's mutation observer contract.
func (c *Collector) ObserveMutations(mutations []types.CodeMutation) {
	for _, m := range mutations {
		c.Add(m)
	}
}

// Flush invalidates every accumulated mutation in one pass and clears the
// batch. Flushing an empty collector is a no-op, and re-invalidating an
// already-invalidated path is harmless, so concurrent flushes are safe.
func (c *Collector) Flush() {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	c.cache.InvalidateForMutations(batch)
}

// Pending reports how many mutations await the next flush.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

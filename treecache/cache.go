package treecache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codetree-io/codetree/types"
)

// RootPath is the sentinel path key for whole-view tree snapshots.
const RootPath = "root"

// DefaultTTL is the default snapshot lifetime.
const DefaultTTL = 10 * time.Minute

// entry is one cached subtree snapshot.
type entry struct {
	data      interface{}
	createdAt time.Time
	expiresAt time.Time
}

// Cache is an explicit cache service holding one keyspace per hierarchy
// view. The per-view maps are the only shared mutable state and are touched
// exclusively through the methods below.
type Cache struct {
	locks    *lockManager
	views    map[types.View]map[string]entry
	ttl      time.Duration
	timeFunc func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default snapshot TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithTimeFunc overrides the clock, for deterministic tests.
func WithTimeFunc(fn func() time.Time) Option {
	return func(c *Cache) { c.timeFunc = fn }
}

// New creates an empty cache with a keyspace for each view.
func New(opts ...Option) *Cache {
	c := &Cache{
		locks:    newLockManager(),
		views:    make(map[types.View]map[string]entry, 2),
		ttl:      DefaultTTL,
		timeFunc: time.Now,
	}
	for _, view := range types.Views() {
		c.views[view] = make(map[string]entry)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTree returns the cached subtree at (view, path). Expired entries are
// evicted and treated as a miss.
func (c *Cache) GetTree(view types.View, path string) (interface{}, bool) {
	var data interface{}
	var ok bool
	c.locks.execute(writeOperation, func() {
		keyspace, exists := c.views[view]
		if !exists {
			return
		}
		e, exists := keyspace[path]
		if !exists {
			return
		}
		if !c.timeFunc().Before(e.expiresAt) {
			delete(keyspace, path)
			return
		}
		data, ok = e.data, true
	})
	return data, ok
}

// SetTree stores a subtree snapshot at (view, path) with the default TTL.
func (c *Cache) SetTree(view types.View, tree interface{}, path string) {
	c.SetTreeTTL(view, tree, path, c.ttl)
}

// SetTreeTTL stores a subtree snapshot with an explicit TTL.
func (c *Cache) SetTreeTTL(view types.View, tree interface{}, path string, ttl time.Duration) {
	c.locks.execute(writeOperation, func() {
		keyspace, exists := c.views[view]
		if !exists {
			return
		}
		now := c.timeFunc()
		keyspace[path] = entry{
			data:      tree,
			createdAt: now,
			expiresAt: now.Add(ttl),
		}
	})
}

// InvalidatePath removes the entry at path, every ancestor path down to
// root, and every descendant entry whose key starts with path plus a dot.
func (c *Cache) InvalidatePath(view types.View, path string) {
	c.locks.execute(writeOperation, func() {
		c.invalidatePathLocked(view, path)
	})
}

func (c *Cache) invalidatePathLocked(view types.View, path string) {
	keyspace, exists := c.views[view]
	if !exists {
		return
	}
	for _, p := range ancestorPaths(path) {
		delete(keyspace, p)
	}
	prefix := path + "."
	for key := range keyspace {
		if strings.HasPrefix(key, prefix) {
			delete(keyspace, key)
		}
	}
}

// ancestorPaths returns the path itself, each prefix produced by dropping
// the trailing dot-segment, and finally the root sentinel.
func ancestorPaths(path string) []string {
	paths := []string{path}
	current := path
	for current != "" && current != RootPath {
		idx := strings.LastIndex(current, ".")
		if idx < 0 {
			break
		}
		current = current[:idx]
		paths = append(paths, current)
	}
	if path != RootPath {
		paths = append(paths, RootPath)
	}
	return paths
}

// InvalidateForMutations applies ancestor-and-descendant invalidation for
// the union of ancestor paths of every non-empty old and new code in the
// mutation list, across both views. Classification changes can ripple into
// either hierarchy, so a mutation's own view does not limit which keyspace
// is touched; over-invalidating is the safe direction.
func (c *Cache) InvalidateForMutations(mutations []types.CodeMutation) {
	affected := make(map[string]bool)
	for _, m := range mutations {
		for _, code := range []string{m.OldCode, m.NewCode} {
			if code == "" {
				continue
			}
			for _, p := range ancestorPaths(code) {
				affected[p] = true
			}
		}
	}
	if len(affected) == 0 {
		return
	}
	c.locks.execute(writeOperation, func() {
		for path := range affected {
			for _, view := range types.Views() {
				c.invalidatePathLocked(view, path)
			}
		}
	})
}

// PathRef names one (view, path) pair for batch invalidation.
type PathRef struct {
	View types.View
	Path string
}

// BatchInvalidatePaths invalidates a set of exact paths, de-duplicating
// (view, path) pairs first, for callers that already know what they touched.
func (c *Cache) BatchInvalidatePaths(entries []PathRef) {
	seen := make(map[PathRef]bool, len(entries))
	c.locks.execute(writeOperation, func() {
		for _, ref := range entries {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			c.invalidatePathLocked(ref.View, ref.Path)
		}
	})
}

// InvalidateView drops every entry in one view's keyspace.
func (c *Cache) InvalidateView(view types.View) {
	c.locks.execute(writeOperation, func() {
		if _, exists := c.views[view]; exists {
			c.views[view] = make(map[string]entry)
		}
	})
}

// ClearAll drops every entry in every view.
func (c *Cache) ClearAll() {
	c.locks.execute(writeOperation, func() {
		for view := range c.views {
			c.views[view] = make(map[string]entry)
		}
	})
}

// Cleanup sweeps expired entries and returns how many were removed. It is
// maintenance only: GetTree already treats expired entries as misses.
func (c *Cache) Cleanup() int {
	removed := 0
	c.locks.execute(writeOperation, func() {
		now := c.timeFunc()
		for _, keyspace := range c.views {
			for key, e := range keyspace {
				if !now.Before(e.expiresAt) {
					delete(keyspace, key)
					removed++
				}
			}
		}
	})
	return removed
}

// WarmupCache populates paths through the fetcher. Individual fetch
// failures skip that path; the joined error reports them without aborting
// the rest of the warmup.
func (c *Cache) WarmupCache(view types.View, paths []string, fetcher func(path string) (interface{}, error)) error {
	var failed []string
	for _, path := range paths {
		tree, err := fetcher(path)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		c.SetTree(view, tree, path)
	}
	if len(failed) > 0 {
		return fmt.Errorf("warmup skipped %d path(s): %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}

// ViewStats reports one view's cache occupancy.
type ViewStats struct {
	Size int
	Keys []string
}

// Stats returns per-view size and sorted key list.
func (c *Cache) Stats() map[types.View]ViewStats {
	stats := make(map[types.View]ViewStats, len(c.views))
	c.locks.execute(readOperation, func() {
		for view, keyspace := range c.views {
			keys := make([]string, 0, len(keyspace))
			for key := range keyspace {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			stats[view] = ViewStats{Size: len(keyspace), Keys: keys}
		}
	})
	return stats
}

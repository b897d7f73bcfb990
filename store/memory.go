package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codetree-io/codetree/types"
)

// MemoryStore is an in-memory ItemStore for tests and ephemeral use. It
// mirrors the JSON store's semantics, including atomic batch code writes.
type MemoryStore struct {
	mu       sync.RWMutex
	items    []types.Item
	timeFunc func() time.Time

	// failWrite, when set, makes the next WriteHierarchyCodes fail with
	// this error without mutating anything. Used to exercise the
	// persistence-failure path.
	failWrite error
}

// NewMemory creates a memory store pre-populated with the given items.
func NewMemory(items ...types.Item) *MemoryStore {
	s := &MemoryStore{timeFunc: time.Now}
	s.items = append(s.items, items...)
	return s
}

// SetTimeFunc sets a custom clock, for deterministic tests.
func (s *MemoryStore) SetTimeFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeFunc = fn
}

// FailNextWrite arms a one-shot write failure.
func (s *MemoryStore) FailNextWrite(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = err
}

// Add creates a new item, minting an id when none is set.
func (s *MemoryStore) Add(item types.Item) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	for _, existing := range s.items {
		if existing.ID == item.ID {
			return "", fmt.Errorf("item already exists: %s", item.ID)
		}
	}
	now := s.timeFunc()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	s.items = append(s.items, item)
	return item.ID, nil
}

// LoadAll returns every non-deleted item in ascending creation order.
func (s *MemoryStore) LoadAll() ([]types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []types.Item
	for _, item := range s.items {
		if item.DeletedAt == nil {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// LoadOne returns the item with the given id, or (nil, nil) when absent.
func (s *MemoryStore) LoadOne(id string) (*types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id && item.DeletedAt == nil {
			copied := item
			return &copied, nil
		}
	}
	return nil, nil
}

// WriteHierarchyCodes applies a batch of code updates atomically.
func (s *MemoryStore) WriteHierarchyCodes(updates []types.CodeUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrite != nil {
		err := s.failWrite
		s.failWrite = nil
		return err
	}

	byID := make(map[string]types.CodeUpdate, len(updates))
	for _, u := range updates {
		byID[u.ItemID] = u
	}
	// Validate before mutating so a bad batch leaves no partial state.
	applied := 0
	for i := range s.items {
		if _, ok := byID[s.items[i].ID]; ok {
			applied++
		}
	}
	if applied != len(byID) {
		return fmt.Errorf("code update references %d unknown item(s)", len(byID)-applied)
	}

	now := s.timeFunc()
	for i := range s.items {
		u, ok := byID[s.items[i].ID]
		if !ok {
			continue
		}
		s.items[i].FunctionCode = u.FunctionCode
		s.items[i].OrganizationCode = u.OrganizationCode
		s.items[i].UpdatedAt = now
	}
	return nil
}

// Delete soft-deletes an item.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].DeletedAt == nil {
			now := s.timeFunc()
			s.items[i].DeletedAt = &now
			s.items[i].UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("item not found: %s", id)
}

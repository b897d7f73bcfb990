package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/codetree-io/codetree/types"
)

const (
	lockTimeout    = 3 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

// storeData is the on-disk JSON shape.
type storeData struct {
	Items    []types.Item `json:"items"`
	Metadata metadata     `json:"metadata"`
}

type metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONStore persists items in a single JSON file. In-process access is
// serialized by a lockManager; cross-process access by a flock on a
// sibling .lock file. Writes go to a temp file and are renamed into place,
// so a batch either lands whole or not at all.
type JSONStore struct {
	filePath string
	locks    *lockManager
	fileLock *flock.Flock
	data     *storeData

	// timeFunc is the clock for created/updated stamps, overridable in
	// tests.
	timeFunc func() time.Time
}

// OpenJSON opens (or initializes) a JSON item store at the given path.
func OpenJSON(filePath string) (*JSONStore, error) {
	now := time.Now()
	s := &JSONStore{
		filePath: filePath,
		locks:    newLockManager(),
		fileLock: flock.New(filePath + ".lock"),
		timeFunc: time.Now,
		data: &storeData{
			Items: []types.Item{},
			Metadata: metadata{
				Version:   "1.0",
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
	if err := s.loadWithLock(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return s, nil
}

// SetTimeFunc sets a custom clock, for deterministic tests.
func (s *JSONStore) SetTimeFunc(fn func() time.Time) {
	_ = s.locks.execute(writeOperation, func() error {
		s.timeFunc = fn
		return nil
	})
}

func (s *JSONStore) acquireLock(ctx context.Context) error {
	locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire file lock within %s", lockTimeout)
	}
	return nil
}

func (s *JSONStore) loadWithLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return s.load()
}

func (s *JSONStore) load() error {
	if _, err := os.Stat(s.filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	var data storeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	s.data = &data
	return nil
}

func (s *JSONStore) saveWithLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return s.save()
}

func (s *JSONStore) save() error {
	s.data.Metadata.UpdatedAt = s.timeFunc()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to a temp file then rename, which is atomic on most
	// filesystems.
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Add creates a new item, minting an id when none is set, and returns the
// item id.
func (s *JSONStore) Add(item types.Item) (string, error) {
	var id string
	err := s.locks.execute(writeOperation, func() error {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		for _, existing := range s.data.Items {
			if existing.ID == item.ID {
				return fmt.Errorf("item already exists: %s", item.ID)
			}
		}
		now := s.timeFunc()
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now

		s.data.Items = append(s.data.Items, item)
		if err := s.saveWithLock(); err != nil {
			s.data.Items = s.data.Items[:len(s.data.Items)-1]
			return fmt.Errorf("failed to save: %w", err)
		}
		id = item.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadAll returns every non-deleted item in ascending creation order.
func (s *JSONStore) LoadAll() ([]types.Item, error) {
	var items []types.Item
	err := s.locks.execute(readOperation, func() error {
		for _, item := range s.data.Items {
			if item.DeletedAt == nil {
				items = append(items, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// LoadOne returns the item with the given id, or (nil, nil) when it does
// not exist or is deleted.
func (s *JSONStore) LoadOne(id string) (*types.Item, error) {
	var found *types.Item
	err := s.locks.execute(readOperation, func() error {
		for _, item := range s.data.Items {
			if item.ID == id && item.DeletedAt == nil {
				copied := item
				found = &copied
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// WriteHierarchyCodes applies a batch of code updates in one save. On any
// failure the in-memory state is restored and nothing reaches disk, so a
// partial code set is never visible.
func (s *JSONStore) WriteHierarchyCodes(updates []types.CodeUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return s.locks.execute(writeOperation, func() error {
		byID := make(map[string]types.CodeUpdate, len(updates))
		for _, u := range updates {
			byID[u.ItemID] = u
		}

		previous := make([]types.Item, len(s.data.Items))
		copy(previous, s.data.Items)

		now := s.timeFunc()
		applied := 0
		for i := range s.data.Items {
			u, ok := byID[s.data.Items[i].ID]
			if !ok {
				continue
			}
			s.data.Items[i].FunctionCode = u.FunctionCode
			s.data.Items[i].OrganizationCode = u.OrganizationCode
			s.data.Items[i].UpdatedAt = now
			applied++
		}
		if applied != len(byID) {
			s.data.Items = previous
			return fmt.Errorf("code update references %d unknown item(s)", len(byID)-applied)
		}

		if err := s.saveWithLock(); err != nil {
			s.data.Items = previous
			return fmt.Errorf("failed to save: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes an item so it no longer participates in code
// generation.
func (s *JSONStore) Delete(id string) error {
	return s.locks.execute(writeOperation, func() error {
		for i := range s.data.Items {
			if s.data.Items[i].ID == id && s.data.Items[i].DeletedAt == nil {
				now := s.timeFunc()
				s.data.Items[i].DeletedAt = &now
				s.data.Items[i].UpdatedAt = now
				if err := s.saveWithLock(); err != nil {
					s.data.Items[i].DeletedAt = nil
					return fmt.Errorf("failed to save: %w", err)
				}
				return nil
			}
		}
		return fmt.Errorf("item not found: %s", id)
	})
}

// Close removes the lock file.
func (s *JSONStore) Close() error {
	return s.locks.execute(writeOperation, func() error {
		_ = os.Remove(s.filePath + ".lock")
		return nil
	})
}

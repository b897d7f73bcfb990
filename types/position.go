package types

import "strings"

// RootParent is the sentinel parent value for items with no parent in a view.
const RootParent = "root"

// PositionKey identifies the sibling bucket an item occupies within one
// hierarchy view. All items sharing a PositionKey must receive mutually
// distinct subcategory chains.
type PositionKey struct {
	// Parent is the parent item id, or RootParent for top-level items.
	Parent string

	// Base is the first code segment for the view: the segment label in
	// the function view, the resolved organization code in the
	// organization view.
	Base string

	Category    string
	ContentType string
}

// Key returns the string form used for grouping.
func (k PositionKey) Key() string {
	return strings.Join([]string{k.Parent, k.Base, k.Category, k.ContentType}, "|")
}

// PositionMap holds sibling groups keyed by PositionKey string, each group
// preserving input order.
type PositionMap map[string][]Item

// Add appends an item to its bucket.
func (pm PositionMap) Add(key PositionKey, item Item) {
	pm[key.Key()] = append(pm[key.Key()], item)
}

// Get returns the bucket for a key.
func (pm PositionMap) Get(key PositionKey) []Item {
	return pm[key.Key()]
}

// Count returns the bucket size for a key.
func (pm PositionMap) Count(key PositionKey) int {
	return len(pm[key.Key()])
}

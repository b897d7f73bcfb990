package hierarchy

import (
	"errors"
	"sort"

	"github.com/codetree-io/codetree/types"
)

// ErrEmptySelection is returned when a selector is handed an empty item
// list, which is a programming-contract violation rather than a data state.
var ErrEmptySelection = errors.New("differentiator selector requires a non-empty item list")

// Group is one partition cell: the shared attribute value and the items
// carrying it, in input order.
type Group struct {
	Value string
	Items []types.Item
}

// Partition is an ordered split of a sibling set by one discriminating
// attribute.
type Partition struct {
	Attribute string
	Groups    []Group
}

// Selector picks the most distinguishing attribute for a set of items and
// partitions them into ordered groups by that attribute's value.
//
// Implementations must be deterministic for identical input, must place
// every input item in exactly one group, and must keep group order stable
// across calls with unchanged input. How the attribute is chosen is up to
// the implementation.
type Selector interface {
	Select(items []types.Item) (Partition, error)
}

// nameAttribute is the implicit attribute backed by the item's name field,
// considered alongside the explicit attribute map.
const nameAttribute = "name"

// AttributeSelector is the default differentiator: it picks the attribute
// with the widest spread of distinct values (ties broken by lexicographic
// attribute name) and orders groups by first appearance of their value in
// the input.
type AttributeSelector struct{}

// Select implements Selector.
func (AttributeSelector) Select(items []types.Item) (Partition, error) {
	if len(items) == 0 {
		return Partition{}, ErrEmptySelection
	}

	candidates := candidateAttributes(items)
	bestAttr := ""
	bestDistinct := 0
	for _, attr := range candidates {
		distinct := countDistinct(items, attr)
		if distinct > bestDistinct {
			bestAttr = attr
			bestDistinct = distinct
		}
	}

	// Nothing splits the set: return a single group and let the chain
	// generator's depth limit take over.
	if bestDistinct < 2 {
		return Partition{Groups: []Group{{Items: items}}}, nil
	}

	var order []string
	byValue := make(map[string][]types.Item)
	for _, item := range items {
		v := attributeValue(item, bestAttr)
		if _, seen := byValue[v]; !seen {
			order = append(order, v)
		}
		byValue[v] = append(byValue[v], item)
	}

	groups := make([]Group, 0, len(order))
	for _, v := range order {
		groups = append(groups, Group{Value: v, Items: byValue[v]})
	}
	return Partition{Attribute: bestAttr, Groups: groups}, nil
}

// candidateAttributes returns the sorted union of attribute keys across the
// items, plus the implicit name attribute.
func candidateAttributes(items []types.Item) []string {
	seen := map[string]bool{nameAttribute: true}
	for _, item := range items {
		for key := range item.Attributes {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func countDistinct(items []types.Item, attr string) int {
	values := make(map[string]bool, len(items))
	for _, item := range items {
		values[attributeValue(item, attr)] = true
	}
	return len(values)
}

func attributeValue(item types.Item, attr string) string {
	if attr == nameAttribute {
		return item.Name
	}
	return item.Attributes[attr]
}

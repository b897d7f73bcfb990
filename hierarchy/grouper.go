package hierarchy

import "github.com/codetree-io/codetree/types"

// PositionKeyFor derives an item's sibling-bucket identity within a view.
// The organization view keys on the resolved org code rather than the
// segment label, because that is the first segment of its code base.
func PositionKeyFor(item types.Item, view types.View, org *OrgCodeResolver) types.PositionKey {
	parent := item.ParentID(view)
	if parent == "" {
		parent = types.RootParent
	}
	base := item.Segment
	if view == types.OrganizationView {
		base = org.Resolve(item)
	}
	return types.PositionKey{
		Parent:      parent,
		Base:        base,
		Category:    item.Category,
		ContentType: item.ContentType,
	}
}

// GroupByPosition buckets items by their position key for one view. Bucket
// order preserves input order, which is the dataset's natural ascending
// creation order and determines all downstream tie-breaks.
func GroupByPosition(items []types.Item, view types.View, org *OrgCodeResolver) types.PositionMap {
	groups := make(types.PositionMap)
	for _, item := range items {
		groups.Add(PositionKeyFor(item, view, org), item)
	}
	return groups
}

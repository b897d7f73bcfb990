package hierarchy

import (
	"fmt"
	"sort"

	"github.com/codetree-io/codetree/types"
)

// ValidateUniqueness scans current hierarchy codes and reports any value
// held by more than one item, per view. It is a read-only invariant check
// and takes no part in write paths; an empty report is the success case.
func (e *Engine) ValidateUniqueness() (types.UniquenessReport, error) {
	items, err := e.store.LoadAll()
	if err != nil {
		return types.UniquenessReport{}, fmt.Errorf("failed to load items: %w", err)
	}

	return types.UniquenessReport{
		FunctionDuplicates:     duplicates(items, types.FunctionView),
		OrganizationDuplicates: duplicates(items, types.OrganizationView),
	}, nil
}

func duplicates(items []types.Item, view types.View) []types.DuplicateCode {
	holders := make(map[string][]string)
	for _, item := range items {
		code := item.Code(view)
		if code == "" {
			continue
		}
		holders[code] = append(holders[code], item.ID)
	}

	var dupes []types.DuplicateCode
	for code, ids := range holders {
		if len(ids) > 1 {
			dupes = append(dupes, types.DuplicateCode{Code: code, ItemIDs: ids})
		}
	}
	sort.Slice(dupes, func(i, j int) bool { return dupes[i].Code < dupes[j].Code })
	return dupes
}

// CheckConflicts reports which other items share the given item's exact
// position key in one view, without regenerating anything. An unknown item
// id yields a zero-value report.
func (e *Engine) CheckConflicts(itemID string, view types.View) (types.ConflictReport, error) {
	items, err := e.store.LoadAll()
	if err != nil {
		return types.ConflictReport{}, fmt.Errorf("failed to load items: %w", err)
	}

	var target *types.Item
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return types.ConflictReport{}, nil
	}

	ids := e.siblingIDs(items, *target, view)
	return types.ConflictReport{
		HasConflict:        len(ids) > 0,
		ConflictingItemIDs: ids,
	}, nil
}

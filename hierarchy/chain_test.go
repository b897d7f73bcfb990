package hierarchy

import (
	"fmt"
	"testing"

	"github.com/codetree-io/codetree/types"
)

// valueOrderedSelector partitions by one attribute with groups ordered by
// sorted value instead of first appearance. Used to drive scenarios where
// an earlier item must land in a later group.
type valueOrderedSelector struct {
	attribute string
	order     []string
}

func (s valueOrderedSelector) Select(items []types.Item) (Partition, error) {
	byValue := make(map[string][]types.Item)
	for _, item := range items {
		v := item.Attributes[s.attribute]
		byValue[v] = append(byValue[v], item)
	}
	var groups []Group
	for _, v := range s.order {
		if bucket, ok := byValue[v]; ok {
			groups = append(groups, Group{Value: v, Items: bucket})
		}
	}
	return Partition{Attribute: s.attribute, Groups: groups}, nil
}

// stuckSelector never splits, so every group hits the depth limit.
type stuckSelector struct{}

func (stuckSelector) Select(items []types.Item) (Partition, error) {
	return Partition{Groups: []Group{{Items: items}}}, nil
}

// halvingSelector splits every group into two halves, forcing recursion.
type halvingSelector struct{}

func (halvingSelector) Select(items []types.Item) (Partition, error) {
	mid := len(items) / 2
	if mid == 0 {
		return Partition{Groups: []Group{{Items: items}}}, nil
	}
	return Partition{Groups: []Group{
		{Value: "low", Items: items[:mid]},
		{Value: "high", Items: items[mid:]},
	}}, nil
}

// lossySelector drops its last item, violating the exhaustiveness contract.
type lossySelector struct{}

func (lossySelector) Select(items []types.Item) (Partition, error) {
	return Partition{Groups: []Group{
		{Items: items[:1]},
		{Items: items[1 : len(items)-1]},
	}}, nil
}

func TestChainGenerator(t *testing.T) {
	t.Run("Singleton", func(t *testing.T) {
		g := NewChainGenerator(AttributeSelector{})
		chains, err := g.Generate([]types.Item{{ID: "only"}})
		if err != nil {
			t.Fatal(err)
		}
		assertChainEquals(t, chains["only"], []int{1})
	})

	t.Run("TwoGroupSplit", func(t *testing.T) {
		// Three siblings split 2+1: the pair recurses one more level, the
		// singleton group stops at its group number.
		items := []types.Item{
			{ID: "a", Attributes: map[string]string{"kind": "guide", "depth": "intro"}},
			{ID: "b", Attributes: map[string]string{"kind": "guide", "depth": "advanced"}},
			{ID: "c", Attributes: map[string]string{"kind": "paper", "depth": "intro"}},
		}
		selector := valueOrderedSelector{attribute: "kind", order: []string{"guide", "paper"}}
		g := NewChainGenerator(chainedSelector{selector, valueOrderedSelector{attribute: "depth", order: []string{"intro", "advanced"}}})
		chains, err := g.Generate(items)
		if err != nil {
			t.Fatal(err)
		}
		assertChainEquals(t, chains["a"], []int{1, 1})
		assertChainEquals(t, chains["b"], []int{1, 2})
		assertChainEquals(t, chains["c"], []int{2})
	})

	t.Run("DepthLimitFallback", func(t *testing.T) {
		items := []types.Item{{ID: "p"}, {ID: "q"}, {ID: "r"}}
		g := NewChainGeneratorDepth(stuckSelector{}, 3)
		chains, err := g.Generate(items)
		if err != nil {
			t.Fatal(err)
		}
		// The undivided group threads down to the limit, then numbers
		// sequentially in input order.
		assertChainEquals(t, chains["p"], []int{1, 1, 1, 1})
		assertChainEquals(t, chains["q"], []int{1, 1, 1, 2})
		assertChainEquals(t, chains["r"], []int{1, 1, 1, 3})
	})

	t.Run("NonExhaustivePartition", func(t *testing.T) {
		items := []types.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
		g := NewChainGenerator(lossySelector{})
		if _, err := g.Generate(items); err == nil {
			t.Error("expected error for a partition that drops items")
		}
	})

	t.Run("UniquenessAcrossSizes", func(t *testing.T) {
		for size := 1; size <= 50; size++ {
			items := make([]types.Item, size)
			for i := range items {
				items[i] = types.Item{ID: fmt.Sprintf("itm-%03d", i)}
			}
			g := NewChainGenerator(halvingSelector{})
			chains, err := g.Generate(items)
			if err != nil {
				t.Fatalf("size %d: %v", size, err)
			}
			if len(chains) != size {
				t.Fatalf("size %d: expected %d chains, got %d", size, size, len(chains))
			}
			seen := make(map[string]string, size)
			for id, chain := range chains {
				key := fmt.Sprint(chain)
				if other, dup := seen[key]; dup {
					t.Fatalf("size %d: chain %v assigned to both %s and %s", size, chain, other, id)
				}
				seen[key] = id
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		items := []types.Item{
			{ID: "a", Attributes: map[string]string{"format": "guide"}},
			{ID: "b", Attributes: map[string]string{"format": "reference"}},
			{ID: "c", Attributes: map[string]string{"format": "guide"}},
		}
		g := NewChainGenerator(AttributeSelector{})
		first, err := g.Generate(items)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 5; i++ {
			again, err := g.Generate(items)
			if err != nil {
				t.Fatal(err)
			}
			for id := range first {
				assertChainEquals(t, again[id], first[id])
			}
		}
	})
}

// chainedSelector tries each selector in turn until one splits the items.
type chainedSelector []Selector

func (cs chainedSelector) Select(items []types.Item) (Partition, error) {
	for _, s := range cs {
		partition, err := s.Select(items)
		if err != nil {
			return Partition{}, err
		}
		if len(partition.Groups) > 1 {
			return partition, nil
		}
	}
	return Partition{Groups: []Group{{Items: items}}}, nil
}

func assertChainEquals(t *testing.T, got, expected []int) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected chain %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected chain %v, got %v", expected, got)
		}
	}
}

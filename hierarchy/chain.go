package hierarchy

import (
	"fmt"

	"github.com/codetree-io/codetree/types"
)

// DefaultMaxDepth bounds the recursive disambiguation. Groups that still
// have not split apart at this depth fall back to sequential numbering.
const DefaultMaxDepth = 10

// ChainGenerator assigns unique subcategory chains to the items of one
// position-key group by recursively partitioning them with a Selector.
type ChainGenerator struct {
	selector Selector
	maxDepth int
}

// NewChainGenerator creates a generator with the given selector and the
// default depth limit.
func NewChainGenerator(selector Selector) *ChainGenerator {
	return &ChainGenerator{selector: selector, maxDepth: DefaultMaxDepth}
}

// NewChainGeneratorDepth creates a generator with an explicit depth limit.
func NewChainGeneratorDepth(selector Selector, maxDepth int) *ChainGenerator {
	return &ChainGenerator{selector: selector, maxDepth: maxDepth}
}

// Generate returns an item id to subcategory chain mapping for one sibling
// group. A singleton group always yields the chain [1]; every chain in the
// result is pairwise distinct.
func (g *ChainGenerator) Generate(items []types.Item) (map[string][]int, error) {
	return g.generate(items, 0)
}

func (g *ChainGenerator) generate(items []types.Item, depth int) (map[string][]int, error) {
	chains := make(map[string][]int, len(items))

	if len(items) == 1 {
		chains[items[0].ID] = []int{1}
		return chains, nil
	}

	// Depth-limit safety valve: sequential numbering in input order keeps
	// chains distinct when the selector can no longer split the group.
	if depth >= g.maxDepth {
		for i, item := range items {
			chains[item.ID] = []int{i + 1}
		}
		return chains, nil
	}

	partition, err := g.selector.Select(items)
	if err != nil {
		return nil, fmt.Errorf("differentiator selection failed at depth %d: %w", depth, err)
	}
	total := 0
	for _, group := range partition.Groups {
		total += len(group.Items)
	}
	if total != len(items) {
		return nil, fmt.Errorf("differentiator partition is not exhaustive: %d of %d items grouped", total, len(items))
	}

	for i, group := range partition.Groups {
		groupNumber := i + 1
		if len(group.Items) == 1 {
			chains[group.Items[0].ID] = []int{groupNumber}
			continue
		}
		subChains, err := g.generate(group.Items, depth+1)
		if err != nil {
			return nil, err
		}
		for id, sub := range subChains {
			chains[id] = append([]int{groupNumber}, sub...)
		}
	}
	return chains, nil
}

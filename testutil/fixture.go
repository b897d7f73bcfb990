// Package testutil provides the shared catalog fixture used across the
// codetree test suites.
package testutil

import (
	"time"

	"github.com/codetree-io/codetree/types"
)

// Universe is a small deterministic catalog exercising both hierarchy
// views: one three-way position conflict, singletons, and every
// organization-resolution precedence level (company, ORG: tag, domain).
type Universe struct {
	// Three items sharing the function position (root, A, LLM, T).
	// GuideA and GuideB also share the organization position via OpenAI.
	GuideA types.Item
	GuideB types.Item
	GuideC types.Item

	// Singletons in both views.
	SoloPrimer types.Item // company attribution
	DomainPost types.Item // domain attribution
	TaggedEval types.Item // ORG: tag attribution

	// Items in creation order, the order stores hand back.
	Items []types.Item
}

// Catalog builds the universe with deterministic ids and timestamps.
func Catalog() Universe {
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

	u := Universe{
		GuideA: types.Item{
			ID:          "itm-guide-a",
			Name:        "Prompt Engineering Guide",
			Segment:     "A",
			Category:    "LLM",
			ContentType: "T",
			Company:     "OpenAI",
			Attributes:  map[string]string{"provider": "openai", "format": "guide"},
			CreatedAt:   at(0),
			UpdatedAt:   at(0),
		},
		GuideB: types.Item{
			ID:          "itm-guide-b",
			Name:        "Prompt Patterns",
			Segment:     "A",
			Category:    "LLM",
			ContentType: "T",
			Company:     "OpenAI",
			Attributes:  map[string]string{"provider": "openai", "format": "reference"},
			CreatedAt:   at(1),
			UpdatedAt:   at(1),
		},
		GuideC: types.Item{
			ID:          "itm-guide-c",
			Name:        "Constitutional AI Paper",
			Segment:     "A",
			Category:    "LLM",
			ContentType: "T",
			Company:     "Anthropic",
			Attributes:  map[string]string{"provider": "anthropic", "format": "paper"},
			CreatedAt:   at(2),
			UpdatedAt:   at(2),
		},
		SoloPrimer: types.Item{
			ID:          "itm-solo",
			Name:        "Zero Trust Primer",
			Segment:     "B",
			Category:    "SEC",
			ContentType: "G",
			Company:     "Google",
			CreatedAt:   at(3),
			UpdatedAt:   at(3),
		},
		DomainPost: types.Item{
			ID:           "itm-domain",
			Name:         "Transformers Explained",
			Segment:      "A",
			Category:     "LLM",
			ContentType:  "V",
			SourceDomain: "blog.huggingface.co",
			CreatedAt:    at(4),
			UpdatedAt:    at(4),
		},
		TaggedEval: types.Item{
			ID:          "itm-tagged",
			Name:        "Eval Harness Walkthrough",
			Segment:     "C",
			Category:    "EVAL",
			ContentType: "T",
			Tags:        []string{"ORG:Mistral"},
			CreatedAt:   at(5),
			UpdatedAt:   at(5),
		},
	}
	u.Items = []types.Item{u.GuideA, u.GuideB, u.GuideC, u.SoloPrimer, u.DomainPost, u.TaggedEval}
	return u
}

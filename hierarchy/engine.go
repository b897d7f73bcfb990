package hierarchy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/codetree-io/codetree/types"
)

// MutationObserver receives the mutation list after a successful write,
// typically to drive cache invalidation.
type MutationObserver interface {
	ObserveMutations(mutations []types.CodeMutation)
}

// Engine orchestrates grouping, chain generation and code formatting over
// the whole item set, persists code changes atomically and emits mutations
// to the audit sink and the cache observer.
//
// Both entry points perform a read-modify-write over the entire dataset:
// codes are a function of the full sibling set, so any local-only update
// would risk silent uniqueness violations.
type Engine struct {
	store    types.ItemStore
	selector Selector
	org      *OrgCodeResolver
	audit    types.AuditSink
	observer MutationObserver
	logger   *slog.Logger
	maxDepth int
	timeFunc func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSelector overrides the default attribute-spread differentiator.
func WithSelector(s Selector) EngineOption {
	return func(e *Engine) { e.selector = s }
}

// WithOrgResolver overrides the default organization code resolver.
func WithOrgResolver(r *OrgCodeResolver) EngineOption {
	return func(e *Engine) { e.org = r }
}

// WithAuditSink wires an audit sink. Sink failures are logged, never fatal.
func WithAuditSink(sink types.AuditSink) EngineOption {
	return func(e *Engine) { e.audit = sink }
}

// WithObserver wires a mutation observer, e.g. a treecache collector.
func WithObserver(obs MutationObserver) EngineOption {
	return func(e *Engine) { e.observer = obs }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMaxDepth overrides the chain generator's recursion limit.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) { e.maxDepth = depth }
}

// WithTimeFunc overrides the clock used for audit timestamps.
func WithTimeFunc(fn func() time.Time) EngineOption {
	return func(e *Engine) { e.timeFunc = fn }
}

// NewEngine creates an engine over the given store.
func NewEngine(store types.ItemStore, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		selector: AttributeSelector{},
		org:      NewOrgCodeResolver(),
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
		timeFunc: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// codePair holds both views' freshly computed codes for one item.
type codePair struct {
	function     string
	organization string
}

// computeCodes recomputes every item's codes for both views. It is a pure,
// deterministic function of the dataset snapshot.
func (e *Engine) computeCodes(items []types.Item) (map[string]codePair, error) {
	pairs := make(map[string]codePair, len(items))
	byID := make(map[string]types.Item, len(items))
	orgCodes := make(map[string]string, len(items))
	for _, item := range items {
		byID[item.ID] = item
		orgCodes[item.ID] = e.org.Resolve(item)
	}

	generator := NewChainGeneratorDepth(e.selector, e.maxDepth)

	for _, view := range types.Views() {
		groups := GroupByPosition(items, view, e.org)
		for key, group := range groups {
			chains, err := generator.Generate(group)
			if err != nil {
				return nil, fmt.Errorf("chain generation failed for position %s: %w", key, err)
			}
			for id, chain := range chains {
				item := byID[id]
				formatted := FormatPositions(chain)
				pair := pairs[id]
				if view == types.OrganizationView {
					pair.organization = OrganizationCode(orgCodes[id], item.Category, item.ContentType, formatted)
				} else {
					pair.function = FunctionCode(item.Segment, item.Category, item.ContentType, formatted)
				}
				pairs[id] = pair
			}
		}
	}
	return pairs, nil
}

// RegenerateAll recomputes and overwrites every live item's codes in one
// atomic batch. This path does no mutation diffing; it always writes.
func (e *Engine) RegenerateAll() ([]types.RegenerationResult, error) {
	items, err := e.store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	pairs, err := e.computeCodes(items)
	if err != nil {
		return nil, err
	}

	updates := make([]types.CodeUpdate, 0, len(items))
	results := make([]types.RegenerationResult, 0, len(items))
	for _, item := range items {
		pair := pairs[item.ID]
		updates = append(updates, types.CodeUpdate{
			ItemID:           item.ID,
			FunctionCode:     pair.function,
			OrganizationCode: pair.organization,
		})
		results = append(results, types.RegenerationResult{
			ItemID:           item.ID,
			FunctionCode:     pair.function,
			OrganizationCode: pair.organization,
			Segment:          item.Segment,
			Category:         item.Category,
			ContentType:      item.ContentType,
		})
	}

	if err := e.store.WriteHierarchyCodes(updates); err != nil {
		return nil, fmt.Errorf("failed to persist hierarchy codes: %w", err)
	}
	return results, nil
}

// RegenerateOne recomputes codes after a change to a single item. Because
// codes are globally interdependent, the whole dataset is reloaded and
// recomputed; only rows whose codes actually changed are written. A nil
// result with a nil error means the item does not exist.
func (e *Engine) RegenerateOne(itemID string) (*types.SingleRegenerationResult, error) {
	items, err := e.store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	var target *types.Item
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, nil
	}

	// Conflict detection happens before recomputation: a non-empty
	// sibling set in either view means this pass resolves a collision.
	siblings := make(map[string]bool)
	for _, view := range types.Views() {
		for _, id := range e.siblingIDs(items, *target, view) {
			siblings[id] = true
		}
	}

	oldCodes := make(map[string]codePair, len(items))
	for _, item := range items {
		oldCodes[item.ID] = codePair{function: item.FunctionCode, organization: item.OrganizationCode}
	}

	pairs, err := e.computeCodes(items)
	if err != nil {
		return nil, err
	}

	var mutations []types.CodeMutation
	var updates []types.CodeUpdate
	for _, item := range items {
		old := oldCodes[item.ID]
		fresh := pairs[item.ID]
		if old == fresh {
			continue
		}
		updates = append(updates, types.CodeUpdate{
			ItemID:           item.ID,
			FunctionCode:     fresh.function,
			OrganizationCode: fresh.organization,
		})
		if old.function != fresh.function {
			mutations = append(mutations, types.CodeMutation{
				ItemID: item.ID, View: types.FunctionView,
				OldCode: old.function, NewCode: fresh.function,
			})
		}
		if old.organization != fresh.organization {
			mutations = append(mutations, types.CodeMutation{
				ItemID: item.ID, View: types.OrganizationView,
				OldCode: old.organization, NewCode: fresh.organization,
			})
		}
	}

	if len(updates) > 0 {
		if err := e.store.WriteHierarchyCodes(updates); err != nil {
			return nil, fmt.Errorf("failed to persist hierarchy codes: %w", err)
		}
	}

	conflictsResolved := len(siblings) > 0
	description := e.describe(itemID, len(siblings), len(updates), conflictsResolved)
	e.emit(itemID, mutations, description)

	pair := pairs[itemID]
	return &types.SingleRegenerationResult{
		RegenerationResult: types.RegenerationResult{
			ItemID:           itemID,
			FunctionCode:     pair.function,
			OrganizationCode: pair.organization,
			Segment:          target.Segment,
			Category:         target.Category,
			ContentType:      target.ContentType,
		},
		AffectedItems:     mutations,
		ConflictsResolved: conflictsResolved,
		Description:       description,
	}, nil
}

func (e *Engine) describe(itemID string, siblingCount, changedCount int, conflicts bool) string {
	if conflicts {
		return fmt.Sprintf("regenerated codes for %s: resolved position conflict with %d sibling(s), %d item(s) recoded", itemID, siblingCount, changedCount)
	}
	return fmt.Sprintf("regenerated codes for %s: no siblings at its position, %d item(s) recoded", itemID, changedCount)
}

// emit hands the mutation list to the observer and the audit sink. The
// audit write is fire-and-forget: failures are logged and swallowed so they
// can never roll back a committed code batch.
func (e *Engine) emit(itemID string, mutations []types.CodeMutation, reason string) {
	if len(mutations) == 0 {
		return
	}
	if e.observer != nil {
		e.observer.ObserveMutations(mutations)
	}
	if e.audit == nil {
		return
	}
	now := e.timeFunc()
	for _, m := range mutations {
		rec := types.AuditRecord{
			ItemID:      m.ItemID,
			View:        m.View,
			OldCode:     m.OldCode,
			NewCode:     m.NewCode,
			ChangeType:  "regenerate",
			TriggeredBy: "regenerate_one:" + itemID,
			Reason:      reason,
			RecordedAt:  now,
		}
		if err := e.audit.Record(rec); err != nil {
			e.logger.Warn("audit record failed",
				"item_id", m.ItemID,
				"view", string(m.View),
				"error", err)
		}
	}
}

// siblingIDs returns the ids of other items sharing the target's exact
// position key in the given view.
func (e *Engine) siblingIDs(items []types.Item, target types.Item, view types.View) []string {
	key := PositionKeyFor(target, view, e.org).Key()
	var ids []string
	for _, item := range items {
		if item.ID == target.ID {
			continue
		}
		if PositionKeyFor(item, view, e.org).Key() == key {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

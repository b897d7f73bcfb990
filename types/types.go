// Package types defines the shared data types for the codetree hierarchy
// code engine: items, views, position keys, mutation records and the
// interfaces that external collaborators (item store, audit sink) implement.
package types

import "time"

// View identifies one of the two independent classification hierarchies.
type View string

const (
	// FunctionView organizes items by function/topic. Its code base is
	// segment.category.contentType.
	FunctionView View = "function"

	// OrganizationView organizes items by owning organization. Its code
	// base is orgCode.category.contentType.
	OrganizationView View = "organization"
)

// Views lists both hierarchy views in a stable order.
func Views() []View {
	return []View{FunctionView, OrganizationView}
}

// Item is a content item as seen by the code engine. The external store
// owns the item; the engine reads the classification and parent fields and
// writes only the two hierarchy code fields.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Classification triple assigned by the extraction pipeline.
	Segment     string `json:"segment"`
	Category    string `json:"category"`
	ContentType string `json:"content_type"`

	// Organization attribution, in resolution precedence order: explicit
	// company name, then an "ORG:" prefixed tag, then the source domain.
	Company      string   `json:"company,omitempty"`
	SourceDomain string   `json:"source_domain,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	// Attributes carries the raw material the differentiator selector
	// partitions siblings by.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Parent references, one per view. Empty means root.
	FunctionParentID     string `json:"function_parent_id,omitempty"`
	OrganizationParentID string `json:"organization_parent_id,omitempty"`

	// Hierarchy codes, one per view. Empty until computed.
	FunctionCode     string `json:"function_code,omitempty"`
	OrganizationCode string `json:"organization_code,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Code returns the item's stored hierarchy code for the given view.
func (it Item) Code(view View) string {
	if view == OrganizationView {
		return it.OrganizationCode
	}
	return it.FunctionCode
}

// ParentID returns the item's parent reference for the given view.
func (it Item) ParentID(view View) string {
	if view == OrganizationView {
		return it.OrganizationParentID
	}
	return it.FunctionParentID
}

// CodeMutation records one code change produced by a regeneration pass.
// It is consumed by the audit sink and the tree cache, then discarded.
type CodeMutation struct {
	ItemID  string `json:"item_id"`
	View    View   `json:"view"`
	OldCode string `json:"old_code"`
	NewCode string `json:"new_code"`
}

// CodeUpdate is one row of an atomic hierarchy-code batch write.
type CodeUpdate struct {
	ItemID           string
	FunctionCode     string
	OrganizationCode string
}

// RegenerationResult is the per-item outcome of a full regeneration.
type RegenerationResult struct {
	ItemID           string `json:"item_id"`
	FunctionCode     string `json:"function_code"`
	OrganizationCode string `json:"organization_code"`
	Segment          string `json:"segment"`
	Category         string `json:"category"`
	ContentType      string `json:"content_type"`
}

// SingleRegenerationResult is the outcome of regenerating one item's
// neighborhood, including every code that changed as a side effect.
type SingleRegenerationResult struct {
	RegenerationResult

	// AffectedItems lists every mutation across both views, for cache
	// invalidation and audit logging.
	AffectedItems []CodeMutation `json:"affected_items"`

	// ConflictsResolved is true when the target shared its position key
	// with at least one sibling before recomputation.
	ConflictsResolved bool `json:"conflicts_resolved"`

	// Description is a human-readable summary of what the pass did.
	Description string `json:"description"`
}

// DuplicateCode reports a code value held by more than one item.
type DuplicateCode struct {
	Code    string   `json:"code"`
	ItemIDs []string `json:"item_ids"`
}

// UniquenessReport is the result of the standalone uniqueness validator.
// Empty duplicate lists are the success case; any non-empty list is a
// data-integrity alarm.
type UniquenessReport struct {
	FunctionDuplicates     []DuplicateCode `json:"function_duplicates"`
	OrganizationDuplicates []DuplicateCode `json:"organization_duplicates"`
}

// ConflictReport answers "who else occupies this slot" for one item.
type ConflictReport struct {
	HasConflict        bool     `json:"has_conflict"`
	ConflictingItemIDs []string `json:"conflicting_item_ids"`
}

// AuditRecord describes one code change for the append-only history store.
type AuditRecord struct {
	ItemID      string    `json:"item_id"`
	View        View      `json:"view"`
	OldCode     string    `json:"old_code"`
	NewCode     string    `json:"new_code"`
	ChangeType  string    `json:"change_type"`
	TriggeredBy string    `json:"triggered_by"`
	Reason      string    `json:"reason"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ItemStore is the persistence collaborator. Implementations must return
// items in ascending creation order from LoadAll; that order determines all
// downstream tie-breaks.
type ItemStore interface {
	// LoadAll returns every non-deleted item.
	LoadAll() ([]Item, error)

	// LoadOne returns the item with the given id, or (nil, nil) when no
	// such item exists.
	LoadOne(id string) (*Item, error)

	// WriteHierarchyCodes applies a batch of code updates atomically:
	// either every row is updated or none is.
	WriteHierarchyCodes(updates []CodeUpdate) error
}

// AuditSink receives a record of every code change. Failures here must
// never block or roll back code generation.
type AuditSink interface {
	Record(rec AuditRecord) error
}

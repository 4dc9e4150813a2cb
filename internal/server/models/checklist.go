package models

import "time"

// ChecklistItemType classifies checklist items.
type ChecklistItemType string

const (
	ItemMissingField        ChecklistItemType = "missing_field"
	ItemMissingDocument     ChecklistItemType = "missing_document"
	ItemClarificationNeeded ChecklistItemType = "clarification_needed"
	ItemCustom              ChecklistItemType = "custom"
)

// IsAuto reports whether items of this type are owned by the reconciler.
func (t ChecklistItemType) IsAuto() bool {
	return t == ItemMissingField || t == ItemMissingDocument
}

// IsManual reports whether items of this type are created by staff.
func (t ChecklistItemType) IsManual() bool {
	return t == ItemClarificationNeeded || t == ItemCustom
}

// ChecklistItem is one outstanding need tracked against an intake.
// (IntakeID, ItemType, FieldName) is unique for auto types.
type ChecklistItem struct {
	ID          string
	IntakeID    string
	ItemType    ChecklistItemType
	FieldName   *string
	Description string
	IsResolved  bool
	ResolvedAt  *time.Time
	// ResolvedBy is nil when the system resolved the item.
	ResolvedBy *string
	CreatedBy  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Key returns the natural key "{type}:{field}".
func (c *ChecklistItem) Key() string {
	field := ""
	if c.FieldName != nil {
		field = *c.FieldName
	}
	return ChecklistKey(c.ItemType, field)
}

// ChecklistKey builds the natural key used to match report items to rows.
func ChecklistKey(t ChecklistItemType, field string) string {
	return string(t) + ":" + field
}

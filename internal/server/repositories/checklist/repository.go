package checklist

import (
	"context"
	"time"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	// ListByIntake returns items of the intake in creation order. When
	// types is non-empty only those item types are returned.
	ListByIntake(ctx context.Context, intakeID string, includeResolved bool, types ...models.ChecklistItemType) ([]*models.ChecklistItem, error)
	GetByID(ctx context.Context, id string) (*models.ChecklistItem, error)
	// Upsert creates an auto item or reopens the existing one with the same
	// natural key. It reports whether a new row was inserted.
	Upsert(ctx context.Context, item *models.ChecklistItem) (bool, error)
	// Create inserts a manual item.
	Create(ctx context.Context, item *models.ChecklistItem) (*models.ChecklistItem, error)
	// MarkResolved resolves an open item. It reports false if the item was
	// already resolved.
	MarkResolved(ctx context.Context, id string, resolvedBy *string, at time.Time) (bool, error)
}

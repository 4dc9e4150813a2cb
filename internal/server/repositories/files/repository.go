package files

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	ListByIntake(ctx context.Context, intakeID string) ([]*models.File, error)
	SetNeedsReview(ctx context.Context, id string, needsReview bool) error
}

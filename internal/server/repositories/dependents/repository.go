package dependents

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Dependent) (*models.Dependent, error)
	ListByIntake(ctx context.Context, intakeID string) ([]*models.Dependent, error)
}

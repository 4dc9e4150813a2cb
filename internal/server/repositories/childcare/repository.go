package childcare

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.ChildcareProvider) (*models.ChildcareProvider, error)
	ListByIntake(ctx context.Context, intakeID string) ([]*models.ChildcareProvider, error)
}

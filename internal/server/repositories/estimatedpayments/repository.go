package estimatedpayments

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.EstimatedPayment) (*models.EstimatedPayment, error)
	ListByIntake(ctx context.Context, intakeID string) ([]*models.EstimatedPayment, error)
}

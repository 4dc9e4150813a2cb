package taxpayers

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

// Repository persists TaxpayerInfo and FilingStatus, both one-per-intake.
type Repository interface {
	GetByIntake(ctx context.Context, intakeID string) (*models.TaxpayerInfo, error)
	Save(ctx context.Context, info *models.TaxpayerInfo) error
	GetFilingStatus(ctx context.Context, intakeID string) (*models.FilingStatus, error)
	SaveFilingStatus(ctx context.Context, fs *models.FilingStatus) error
}

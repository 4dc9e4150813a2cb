package intakes

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, intake *models.Intake) (*models.Intake, error)
	GetByID(ctx context.Context, id string) (*models.Intake, error)
	Assign(ctx context.Context, id string, staffID *string) error
}

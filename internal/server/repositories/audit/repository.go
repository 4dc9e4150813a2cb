package audit

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.AuditRecord) error
	ListByResource(ctx context.Context, resource, resourceID string) ([]*models.AuditRecord, error)
}

package packets

import (
	"context"
	"time"

	"github.com/taxintake/intakeengine/internal/server/models"
)

// Repository persists PacketRequests. Status changes are conditional
// updates, so a request can never leave a terminal state even under
// concurrent writers.
type Repository interface {
	Create(ctx context.Context, req *models.PacketRequest) (*models.PacketRequest, error)
	GetByID(ctx context.Context, id string) (*models.PacketRequest, error)
	LatestByIntake(ctx context.Context, intakeID string) (*models.PacketRequest, error)
	MarkProcessing(ctx context.Context, id string, at time.Time) error
	MarkCompleted(ctx context.Context, id, summaryKey, archiveKey string, at time.Time) error
	MarkFailed(ctx context.Context, id, message string, at time.Time) error
	ListStale(ctx context.Context, startedBefore time.Time) ([]*models.PacketRequest, error)
}

package bankaccounts

import (
	"context"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, acc *models.BankAccount) (*models.BankAccount, error)
	ListByIntake(ctx context.Context, intakeID string) ([]*models.BankAccount, error)
}

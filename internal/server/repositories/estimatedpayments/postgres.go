package estimatedpayments

import (
	"context"
	"fmt"

	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.EstimatedPayment) (*models.EstimatedPayment, error) {
	if p.Quarter < 1 || p.Quarter > 4 {
		return nil, fmt.Errorf("quarter %d out of range", p.Quarter)
	}

	query :=
		`INSERT INTO estimated_payments (intake_id, quarter, amount, paid_on)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, p.IntakeID, p.Quarter, p.Amount, p.PaidOn).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// ListByIntake returns payments ordered by quarter.
func (r *PostgresRepository) ListByIntake(ctx context.Context, intakeID string) ([]*models.EstimatedPayment, error) {
	query :=
		`SELECT id, intake_id, quarter, amount, paid_on
		 FROM estimated_payments WHERE intake_id = $1 ORDER BY quarter, created_at`

	rows, err := r.db.QueryContext(ctx, query, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select estimated payments: %w", err)
	}
	defer rows.Close()

	var result []*models.EstimatedPayment
	for rows.Next() {
		var p models.EstimatedPayment
		if err := rows.Scan(&p.ID, &p.IntakeID, &p.Quarter, &p.Amount, &p.PaidOn); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

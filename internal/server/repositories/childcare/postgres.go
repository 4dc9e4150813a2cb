package childcare

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

func (r *PostgresRepository) Create(ctx context.Context, p *models.ChildcareProvider) (*models.ChildcareProvider, error) {
	query :=
		`INSERT INTO childcare_providers (intake_id, name, address, tax_id_encrypted, amount_paid)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, p.IntakeID, p.Name, p.Address,
		dbx.NullBytes(p.TaxIDEncrypted), p.AmountPaid).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByIntake(ctx context.Context, intakeID string) ([]*models.ChildcareProvider, error) {
	query :=
		`SELECT id, intake_id, name, address, tax_id_encrypted, amount_paid
		 FROM childcare_providers WHERE intake_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select childcare providers: %w", err)
	}
	defer rows.Close()

	var result []*models.ChildcareProvider
	for rows.Next() {
		var p models.ChildcareProvider
		if err := rows.Scan(&p.ID, &p.IntakeID, &p.Name, &p.Address, &p.TaxIDEncrypted, &p.AmountPaid); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package dependents

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

func (r *PostgresRepository) Create(ctx context.Context, d *models.Dependent) (*models.Dependent, error) {
	query :=
		`INSERT INTO dependents (intake_id, first_name, last_name, date_of_birth, relationship, months_in_home, ssn_encrypted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, d.IntakeID, d.FirstName, d.LastName, d.DateOfBirth,
		d.Relationship, d.MonthsInHome, dbx.NullBytes(d.SSNEncrypted)).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

// ListByIntake returns dependents in entry order. The SSN duplicate check
// depends on this order being stable.
func (r *PostgresRepository) ListByIntake(ctx context.Context, intakeID string) ([]*models.Dependent, error) {
	query :=
		`SELECT id, intake_id, first_name, last_name, date_of_birth, relationship, months_in_home, ssn_encrypted
		 FROM dependents WHERE intake_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select dependents: %w", err)
	}
	defer rows.Close()

	var result []*models.Dependent
	for rows.Next() {
		var d models.Dependent
		if err := rows.Scan(&d.ID, &d.IntakeID, &d.FirstName, &d.LastName, &d.DateOfBirth,
			&d.Relationship, &d.MonthsInHome, &d.SSNEncrypted); err != nil {
			return nil, err
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package intakes

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

func (r *PostgresRepository) Create(ctx context.Context, intake *models.Intake) (*models.Intake, error) {
	query :=
		`INSERT INTO intakes (user_id, tax_year, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`

	if intake.Status == "" {
		intake.Status = models.IntakeDraft
	}

	err := r.db.QueryRowContext(ctx, query, intake.UserID, intake.TaxYear, intake.Status).
		Scan(&intake.ID, &intake.CreatedAt, &intake.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return intake, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Intake, error) {
	query :=
		`SELECT id, user_id, tax_year, status, submitted_at, assigned_to, created_at, updated_at
		 FROM intakes WHERE id = $1`

	i := &models.Intake{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&i.ID, &i.UserID, &i.TaxYear, &i.Status, &i.SubmittedAt, &i.AssignedTo, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, dbx.NotFound(err, "intake")
	}
	return i, nil
}

// Assign sets or clears the staff member working the intake.
func (r *PostgresRepository) Assign(ctx context.Context, id string, staffID *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE intakes SET assigned_to = $2, updated_at = now() WHERE id = $1`, id, staffID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res, nil)
}

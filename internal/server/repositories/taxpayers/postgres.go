package taxpayers

import (
	"context"
	"fmt"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taxpayerColumns = `intake_id, first_name, middle_initial, last_name, date_of_birth, occupation,
	phone_home, phone_work, phone_cell, email,
	address_street, address_apt, address_city, address_state, address_zip, residency_state,
	spouse_first_name, spouse_middle_initial, spouse_last_name, spouse_date_of_birth, spouse_occupation,
	ssn_encrypted, ip_pin_encrypted, spouse_ssn_encrypted, spouse_ip_pin_encrypted`

func fields(t *models.TaxpayerInfo) []any {
	return []any{
		&t.IntakeID, &t.FirstName, &t.MiddleInitial, &t.LastName, &t.DateOfBirth, &t.Occupation,
		&t.PhoneHome, &t.PhoneWork, &t.PhoneCell, &t.Email,
		&t.AddressStreet, &t.AddressApt, &t.AddressCity, &t.AddressState, &t.AddressZip, &t.ResidencyState,
		&t.SpouseFirstName, &t.SpouseMiddleInitial, &t.SpouseLastName, &t.SpouseDateOfBirth, &t.SpouseOccupation,
		&t.SSNEncrypted, &t.IPPINEncrypted, &t.SpouseSSNEncrypted, &t.SpouseIPPINEncrypted,
	}
}

// GetByIntake returns common.ErrorNotFound when no taxpayer row exists yet.
func (r *PostgresRepository) GetByIntake(ctx context.Context, intakeID string) (*models.TaxpayerInfo, error) {
	query := `SELECT ` + taxpayerColumns + ` FROM taxpayer_info WHERE intake_id = $1`

	t := &models.TaxpayerInfo{}
	if err := r.db.QueryRowContext(ctx, query, intakeID).Scan(fields(t)...); err != nil {
		return nil, dbx.NotFound(err, "taxpayer info")
	}
	return t, nil
}

// Save inserts or fully replaces the taxpayer row of an intake.
func (r *PostgresRepository) Save(ctx context.Context, t *models.TaxpayerInfo) error {
	query := `INSERT INTO taxpayer_info (` + taxpayerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25)
		ON CONFLICT (intake_id) DO UPDATE SET
			first_name = EXCLUDED.first_name, middle_initial = EXCLUDED.middle_initial,
			last_name = EXCLUDED.last_name, date_of_birth = EXCLUDED.date_of_birth,
			occupation = EXCLUDED.occupation, phone_home = EXCLUDED.phone_home,
			phone_work = EXCLUDED.phone_work, phone_cell = EXCLUDED.phone_cell, email = EXCLUDED.email,
			address_street = EXCLUDED.address_street, address_apt = EXCLUDED.address_apt,
			address_city = EXCLUDED.address_city, address_state = EXCLUDED.address_state,
			address_zip = EXCLUDED.address_zip, residency_state = EXCLUDED.residency_state,
			spouse_first_name = EXCLUDED.spouse_first_name, spouse_middle_initial = EXCLUDED.spouse_middle_initial,
			spouse_last_name = EXCLUDED.spouse_last_name, spouse_date_of_birth = EXCLUDED.spouse_date_of_birth,
			spouse_occupation = EXCLUDED.spouse_occupation,
			ssn_encrypted = EXCLUDED.ssn_encrypted, ip_pin_encrypted = EXCLUDED.ip_pin_encrypted,
			spouse_ssn_encrypted = EXCLUDED.spouse_ssn_encrypted,
			spouse_ip_pin_encrypted = EXCLUDED.spouse_ip_pin_encrypted`

	args := make([]any, 0, 25)
	for _, p := range fields(t) {
		switch v := p.(type) {
		case *string:
			args = append(args, *v)
		case *[]byte:
			args = append(args, dbx.NullBytes(*v))
		}
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("intake %s: %w", t.IntakeID, common.ErrorNotFound)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetFilingStatus(ctx context.Context, intakeID string) (*models.FilingStatus, error) {
	fs := &models.FilingStatus{}
	err := r.db.QueryRowContext(ctx,
		`SELECT intake_id, status FROM filing_status WHERE intake_id = $1`, intakeID).
		Scan(&fs.IntakeID, &fs.Status)
	if err != nil {
		return nil, dbx.NotFound(err, "filing status")
	}
	return fs, nil
}

func (r *PostgresRepository) SaveFilingStatus(ctx context.Context, fs *models.FilingStatus) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO filing_status (intake_id, status) VALUES ($1, $2)
		 ON CONFLICT (intake_id) DO UPDATE SET status = EXCLUDED.status`,
		fs.IntakeID, fs.Status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

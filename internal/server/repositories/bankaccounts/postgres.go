package bankaccounts

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

func (r *PostgresRepository) Create(ctx context.Context, acc *models.BankAccount) (*models.BankAccount, error) {
	query :=
		`INSERT INTO bank_accounts (intake_id, bank_name, account_type, routing_encrypted, account_encrypted, is_for_refund)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, acc.IntakeID, acc.BankName, acc.AccountType,
		dbx.NullBytes(acc.RoutingEncrypted), dbx.NullBytes(acc.AccountEncrypted), acc.IsForRefund).Scan(&acc.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

// ListByIntake returns accounts in creation order.
func (r *PostgresRepository) ListByIntake(ctx context.Context, intakeID string) ([]*models.BankAccount, error) {
	query :=
		`SELECT id, intake_id, bank_name, account_type, routing_encrypted, account_encrypted, is_for_refund
		 FROM bank_accounts WHERE intake_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select bank accounts: %w", err)
	}
	defer rows.Close()

	var result []*models.BankAccount
	for rows.Next() {
		var a models.BankAccount
		if err := rows.Scan(&a.ID, &a.IntakeID, &a.BankName, &a.AccountType,
			&a.RoutingEncrypted, &a.AccountEncrypted, &a.IsForRefund); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

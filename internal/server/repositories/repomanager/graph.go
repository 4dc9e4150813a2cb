package repomanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
)

// LoadGraph reads an intake and everything it owns. A missing intake is
// common.ErrorNotFound; missing taxpayer or filing status rows leave the
// corresponding field nil.
func LoadGraph(ctx context.Context, m RepositoryManager, db dbx.DBTX, intakeID string) (*models.IntakeGraph, error) {
	intake, err := m.Intakes(db).GetByID(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	g := &models.IntakeGraph{Intake: intake}

	if g.Taxpayer, err = optional(m.Taxpayers(db).GetByIntake(ctx, intakeID)); err != nil {
		return nil, fmt.Errorf("load taxpayer: %w", err)
	}
	if g.FilingStatus, err = optional(m.Taxpayers(db).GetFilingStatus(ctx, intakeID)); err != nil {
		return nil, fmt.Errorf("load filing status: %w", err)
	}
	if g.BankAccounts, err = m.BankAccounts(db).ListByIntake(ctx, intakeID); err != nil {
		return nil, fmt.Errorf("load bank accounts: %w", err)
	}
	if g.Dependents, err = m.Dependents(db).ListByIntake(ctx, intakeID); err != nil {
		return nil, fmt.Errorf("load dependents: %w", err)
	}
	if g.Childcare, err = m.Childcare(db).ListByIntake(ctx, intakeID); err != nil {
		return nil, fmt.Errorf("load childcare: %w", err)
	}
	if g.EstimatedPayments, err = m.EstimatedPayments(db).ListByIntake(ctx, intakeID); err != nil {
		return nil, fmt.Errorf("load estimated payments: %w", err)
	}
	if g.Files, err = m.Files(db).ListByIntake(ctx, intakeID); err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}
	if g.Checklist, err = m.Checklist(db).ListByIntake(ctx, intakeID, true); err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}
	return g, nil
}

func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return v, err
}

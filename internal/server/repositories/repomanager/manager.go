package repomanager

import (
	"context"
	"database/sql"

	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/repositories/audit"
	"github.com/taxintake/intakeengine/internal/server/repositories/bankaccounts"
	"github.com/taxintake/intakeengine/internal/server/repositories/checklist"
	"github.com/taxintake/intakeengine/internal/server/repositories/childcare"
	"github.com/taxintake/intakeengine/internal/server/repositories/dependents"
	"github.com/taxintake/intakeengine/internal/server/repositories/estimatedpayments"
	"github.com/taxintake/intakeengine/internal/server/repositories/files"
	"github.com/taxintake/intakeengine/internal/server/repositories/intakes"
	"github.com/taxintake/intakeengine/internal/server/repositories/packets"
	"github.com/taxintake/intakeengine/internal/server/repositories/taxpayers"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Intakes(db dbx.DBTX) intakes.Repository
	Taxpayers(db dbx.DBTX) taxpayers.Repository
	BankAccounts(db dbx.DBTX) bankaccounts.Repository
	Dependents(db dbx.DBTX) dependents.Repository
	Childcare(db dbx.DBTX) childcare.Repository
	EstimatedPayments(db dbx.DBTX) estimatedpayments.Repository
	Files(db dbx.DBTX) files.Repository
	Checklist(db dbx.DBTX) checklist.Repository
	Packets(db dbx.DBTX) packets.Repository
	Audit(db dbx.DBTX) audit.Repository
}

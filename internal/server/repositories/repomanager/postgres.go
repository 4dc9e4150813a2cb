// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/migrations"
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

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Intakes(db dbx.DBTX) intakes.Repository {
	return intakes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Taxpayers(db dbx.DBTX) taxpayers.Repository {
	return taxpayers.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) BankAccounts(db dbx.DBTX) bankaccounts.Repository {
	return bankaccounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Dependents(db dbx.DBTX) dependents.Repository {
	return dependents.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Childcare(db dbx.DBTX) childcare.Repository {
	return childcare.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) EstimatedPayments(db dbx.DBTX) estimatedpayments.Repository {
	return estimatedpayments.NewPostgresRepository(db)
}

// Files returns a files.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

// Checklist returns a checklist.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Checklist(db dbx.DBTX) checklist.Repository {
	return checklist.NewPostgresRepository(db)
}

// Packets returns a packets.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Packets(db dbx.DBTX) packets.Repository {
	return packets.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Audit(db dbx.DBTX) audit.Repository {
	return audit.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

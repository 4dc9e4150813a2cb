package taxpayers

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/server/models"
)

var taxpayerCols = []string{
	"intake_id", "first_name", "middle_initial", "last_name", "date_of_birth", "occupation",
	"phone_home", "phone_work", "phone_cell", "email",
	"address_street", "address_apt", "address_city", "address_state", "address_zip", "residency_state",
	"spouse_first_name", "spouse_middle_initial", "spouse_last_name", "spouse_date_of_birth", "spouse_occupation",
	"ssn_encrypted", "ip_pin_encrypted", "spouse_ssn_encrypted", "spouse_ip_pin_encrypted",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestGetByIntake(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^SELECT\s+intake_id,.*FROM\s+taxpayer_info\s+WHERE\s+intake_id\s*=\s*\$1$`

	vals := make([]driver.Value, len(taxpayerCols))
	for i := range vals {
		vals[i] = ""
	}
	vals[0] = "i1"
	vals[1] = "Jane"
	vals[3] = "Doe"
	vals[21] = []byte{1, 2, 3}
	vals[22] = nil
	vals[23] = nil
	vals[24] = nil

	mock.ExpectQuery(q).WithArgs("i1").WillReturnRows(sqlmock.NewRows(taxpayerCols).AddRow(vals...))

	got, err := repo.GetByIntake(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, []byte{1, 2, 3}, got.SSNEncrypted)
	assert.Nil(t, got.IPPINEncrypted)

	mock.ExpectQuery(q).WithArgs("none").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByIntake(context.Background(), "none")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSave(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^INSERT\s+INTO\s+taxpayer_info.*ON\s+CONFLICT\s*\(intake_id\)\s*DO\s+UPDATE\s+SET`

	info := &models.TaxpayerInfo{IntakeID: "i1", FirstName: "Jane", SSNEncrypted: []byte{9}}

	args := make([]driver.Value, 25)
	for i := range args {
		args[i] = ""
	}
	args[0] = "i1"
	args[1] = "Jane"
	args[21] = []byte{9}
	args[22], args[23], args[24] = nil, nil, nil

	mock.ExpectExec(q).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Save(context.Background(), info))

	mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23503"})
	err := repo.Save(context.Background(), &models.TaxpayerInfo{IntakeID: "ghost"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFilingStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+intake_id,\s*status\s+FROM\s+filing_status`).WithArgs("i1").
		WillReturnRows(sqlmock.NewRows([]string{"intake_id", "status"}).AddRow("i1", "married"))

	fs, err := repo.GetFilingStatus(context.Background(), "i1")
	require.NoError(t, err)
	assert.True(t, fs.RequiresSpouse())

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+filing_status.*ON\s+CONFLICT\s*\(intake_id\)`).
		WithArgs("i1", "single").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SaveFilingStatus(context.Background(), &models.FilingStatus{IntakeID: "i1", Status: models.FilingSingle}))

	require.NoError(t, mock.ExpectationsWereMet())
}

package childcare

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_DecimalAmount(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+childcare_providers.*RETURNING\s+id$`).
		WithArgs("i1", "Tiny Steps", "1 Main St", nil, "1250.5").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1"))

	got, err := repo.Create(context.Background(), &models.ChildcareProvider{
		IntakeID: "i1", Name: "Tiny Steps", Address: "1 Main St",
		AmountPaid: decimal.RequireFromString("1250.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByIntake(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+childcare_providers\s+WHERE\s+intake_id\s*=\s*\$1`).WithArgs("i1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "intake_id", "name", "address", "tax_id_encrypted", "amount_paid"}).
			AddRow("c1", "i1", "Tiny Steps", "", []byte{1}, "99.95"))

	got, err := repo.ListByIntake(context.Background(), "i1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, decimal.RequireFromString("99.95").Equal(got[0].AmountPaid))
}

package repomanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/repositories/files"
)

func TestLoadGraph_EmptyIntake(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	in, err := m.Intakes(nil).Create(ctx, &models.Intake{UserID: "u1", TaxYear: 2024})
	require.NoError(t, err)

	g, err := LoadGraph(ctx, m, nil, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.ID, g.Intake.ID)
	assert.Nil(t, g.Taxpayer)
	assert.Nil(t, g.FilingStatus)
	assert.Empty(t, g.Files)
}

func TestLoadGraph_Populated(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	in, _ := m.Intakes(nil).Create(ctx, &models.Intake{UserID: "u1", TaxYear: 2024})

	require.NoError(t, m.Taxpayers(nil).Save(ctx, &models.TaxpayerInfo{IntakeID: in.ID, FirstName: "Jane"}))
	require.NoError(t, m.Taxpayers(nil).SaveFilingStatus(ctx, &models.FilingStatus{IntakeID: in.ID, Status: models.FilingMarried}))
	_, err := m.Dependents(nil).Create(ctx, &models.Dependent{IntakeID: in.ID, FirstName: "A"})
	require.NoError(t, err)
	_, err = m.Dependents(nil).Create(ctx, &models.Dependent{IntakeID: in.ID, FirstName: "B"})
	require.NoError(t, err)
	_, err = m.Files(nil).Create(ctx, &models.File{IntakeID: in.ID, Category: models.CategoryW2, OriginalName: "w2.pdf"})
	require.NoError(t, err)

	other, _ := m.Intakes(nil).Create(ctx, &models.Intake{UserID: "u2", TaxYear: 2024})
	_, _ = m.Dependents(nil).Create(ctx, &models.Dependent{IntakeID: other.ID, FirstName: "X"})

	g, err := LoadGraph(ctx, m, nil, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", g.Taxpayer.FirstName)
	assert.True(t, g.FilingStatus.RequiresSpouse())
	require.Len(t, g.Dependents, 2)
	assert.Equal(t, "A", g.Dependents[0].FirstName)
	assert.True(t, g.HasFile(models.CategoryW2))
}

func TestLoadGraph_MissingIntake(t *testing.T) {
	_, err := LoadGraph(context.Background(), NewInMemoryRepositoryManager(), nil, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

type failingFiles struct {
	files.Repository
}

func (failingFiles) ListByIntake(context.Context, string) ([]*models.File, error) {
	return nil, errors.New("db down")
}

type filesFaultManager struct {
	*InMemoryRepositoryManager
}

func (filesFaultManager) Files(dbx.DBTX) files.Repository { return failingFiles{} }

func TestLoadGraph_RepositoryFault(t *testing.T) {
	ctx := context.Background()
	mem := NewInMemoryRepositoryManager()
	in, _ := mem.Intakes(nil).Create(ctx, &models.Intake{UserID: "u1", TaxYear: 2024})

	_, err := LoadGraph(ctx, filesFaultManager{mem}, nil, in.ID)
	require.ErrorContains(t, err, "load files: db down")
}

func TestInMemory_PacketTransitionsAreForwardOnly(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	in, _ := m.Intakes(nil).Create(ctx, &models.Intake{UserID: "u1", TaxYear: 2024})
	repo := m.Packets(nil)

	req, err := repo.Create(ctx, &models.PacketRequest{IntakeID: in.ID, RequestedBy: "staff"})
	require.NoError(t, err)
	now := time.Now()

	assert.ErrorIs(t, repo.MarkCompleted(ctx, req.ID, "s", "a", now), common.ErrInvalidTransition)
	require.NoError(t, repo.MarkProcessing(ctx, req.ID, now))
	require.NoError(t, repo.MarkCompleted(ctx, req.ID, "s", "a", now))
	assert.ErrorIs(t, repo.MarkFailed(ctx, req.ID, "late", now), common.ErrInvalidTransition)

	got, _ := repo.GetByID(ctx, req.ID)
	assert.Equal(t, models.PacketCompleted, got.Status)
	assert.Nil(t, got.ErrorMessage)
}

func TestInMemory_ChecklistNaturalKey(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	in, _ := m.Intakes(nil).Create(ctx, &models.Intake{UserID: "u1", TaxYear: 2024})
	repo := m.Checklist(nil)
	field := "taxpayer.ssn"

	ins, err := repo.Upsert(ctx, &models.ChecklistItem{IntakeID: in.ID, ItemType: models.ItemMissingField, FieldName: &field, Description: "a"})
	require.NoError(t, err)
	assert.True(t, ins)

	ins, err = repo.Upsert(ctx, &models.ChecklistItem{IntakeID: in.ID, ItemType: models.ItemMissingField, FieldName: &field, Description: "b"})
	require.NoError(t, err)
	assert.False(t, ins)

	items, _ := repo.ListByIntake(ctx, in.ID, true)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Description)
	assert.Equal(t, 2, m.ChecklistWrites())
}

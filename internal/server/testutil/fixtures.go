// Package testutil seeds in-memory repositories with intakes for package
// tests.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/cryptox"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
	"github.com/taxintake/intakeengine/internal/server/storage"
)

const (
	TaxpayerSSN = "123-45-6789"
	SpouseSSN   = "234-56-7890"
	RoutingOK   = "021000021"
	AccountOK   = "000123456789"
	keyHex      = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

// Codec returns a codec with a fixed test key.
func Codec(t testing.TB) *cryptox.Codec {
	t.Helper()
	key, err := cryptox.ParseKey(keyHex)
	require.NoError(t, err)
	c, err := cryptox.NewCodec(key)
	require.NoError(t, err)
	return c
}

// Seal encrypts v, failing the test on error.
func Seal(t testing.TB, c *cryptox.Codec, v string) []byte {
	t.Helper()
	b, err := c.SafeEncrypt(v)
	require.NoError(t, err)
	return b
}

// NewIntake creates an empty draft intake.
func NewIntake(t testing.TB, rm repomanager.RepositoryManager) string {
	t.Helper()
	i, err := rm.Intakes(nil).Create(context.Background(), &models.Intake{UserID: "client-1", TaxYear: 2024})
	require.NoError(t, err)
	return i.ID
}

// CompleteTaxpayer returns taxpayer data that passes every personal check.
func CompleteTaxpayer(t testing.TB, c *cryptox.Codec, intakeID string) *models.TaxpayerInfo {
	return &models.TaxpayerInfo{
		IntakeID:     intakeID,
		FirstName:    "Jane",
		LastName:     "Doe",
		DateOfBirth:  "1980-04-02",
		PhoneCell:    "555-0100",
		AddressCity:  "Springfield",
		AddressState: "IL",
		AddressZip:   "62701",
		SSNEncrypted: Seal(t, c, TaxpayerSSN),
	}
}

// AddFile uploads content to st and records it.
func AddFile(t testing.TB, rm repomanager.RepositoryManager, st storage.Storage, intakeID string, cat models.FileCategory, name string, content []byte) *models.File {
	t.Helper()
	ctx := context.Background()
	key, err := st.Store(ctx, content, name, string(cat))
	require.NoError(t, err)
	sum := sha256.Sum256(content)
	f, err := rm.Files(nil).Create(ctx, &models.File{
		IntakeID:     intakeID,
		Category:     cat,
		OriginalName: name,
		ContentType:  "application/pdf",
		SizeBytes:    int64(len(content)),
		Checksum:     hex.EncodeToString(sum[:]),
		StorageKey:   key,
		UploadedBy:   "client-1",
	})
	require.NoError(t, err)
	return f
}

// CompleteIntake seeds an intake that evaluates as valid for a single filer
// with one bank account and one dependent.
func CompleteIntake(t testing.TB, rm repomanager.RepositoryManager, c *cryptox.Codec, st storage.Storage) string {
	t.Helper()
	ctx := context.Background()
	id := NewIntake(t, rm)

	require.NoError(t, rm.Taxpayers(nil).Save(ctx, CompleteTaxpayer(t, c, id)))
	require.NoError(t, rm.Taxpayers(nil).SaveFilingStatus(ctx, &models.FilingStatus{IntakeID: id, Status: models.FilingSingle}))

	_, err := rm.BankAccounts(nil).Create(ctx, &models.BankAccount{
		IntakeID:         id,
		BankName:         "First Bank",
		AccountType:      models.AccountChecking,
		RoutingEncrypted: Seal(t, c, RoutingOK),
		AccountEncrypted: Seal(t, c, AccountOK),
		IsForRefund:      true,
	})
	require.NoError(t, err)

	_, err = rm.Dependents(nil).Create(ctx, &models.Dependent{
		IntakeID:     id,
		FirstName:    "Sam",
		LastName:     "Doe",
		DateOfBirth:  "2015-06-01",
		Relationship: "son",
		MonthsInHome: 12,
		SSNEncrypted: Seal(t, c, "345-67-8901"),
	})
	require.NoError(t, err)

	AddFile(t, rm, st, id, models.CategoryIDFrontTaxpayer, "id front.jpg", []byte("front"))
	AddFile(t, rm, st, id, models.CategoryIDBackTaxpayer, "id back.jpg", []byte("back"))
	AddFile(t, rm, st, id, models.CategoryW2, "w2.pdf", []byte("%PDF-w2"))
	return id
}

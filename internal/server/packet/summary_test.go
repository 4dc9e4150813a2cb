package packet

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/cryptox"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/render"
	"github.com/taxintake/intakeengine/internal/server/testutil"
)

func headings(s *render.Summary) []string {
	var out []string
	for _, sec := range s.Sections {
		out = append(out, sec.Heading)
	}
	return out
}

func TestBuildSummary_MasksPII(t *testing.T) {
	c := testutil.Codec(t)
	tp := testutil.CompleteTaxpayer(t, c, "i1")
	tp.SpouseFirstName = "John"
	tp.SpouseSSNEncrypted = testutil.Seal(t, c, testutil.SpouseSSN)
	paid := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	fieldName := "taxpayer.ip_pin"

	g := &models.IntakeGraph{
		Intake:       &models.Intake{ID: "i1", TaxYear: 2024, Status: models.IntakeSubmitted},
		Taxpayer:     tp,
		FilingStatus: &models.FilingStatus{Status: models.FilingMarried},
		BankAccounts: []*models.BankAccount{{
			BankName:         "First Bank",
			AccountType:      models.AccountChecking,
			RoutingEncrypted: testutil.Seal(t, c, testutil.RoutingOK),
			AccountEncrypted: testutil.Seal(t, c, testutil.AccountOK),
			IsForRefund:      true,
		}},
		Dependents: []*models.Dependent{{FirstName: "Sam", LastName: "Doe", Relationship: "son", MonthsInHome: 12, SSNEncrypted: testutil.Seal(t, c, "345-67-8901")}},
		Childcare:  []*models.ChildcareProvider{{Name: "Little Steps", TaxIDEncrypted: testutil.Seal(t, c, "12-3456789"), AmountPaid: decimal.RequireFromString("1200.5")}},
		EstimatedPayments: []*models.EstimatedPayment{{Quarter: 1, Amount: decimal.NewFromInt(500), PaidOn: &paid}},
		Checklist: []*models.ChecklistItem{
			{ItemType: models.ItemMissingField, FieldName: &fieldName, Description: "Taxpayer IP PIN must be 6 digits"},
			{ItemType: models.ItemCustom, Description: "Already handled", IsResolved: true},
		},
	}

	s, err := BuildSummary(g, c, time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Intake", "Personal information", "Spouse", "Address", "Dependents",
		"Bank accounts", "Childcare providers", "Estimated payments", "Outstanding items",
	}, headings(s))

	doc, err := render.TextRenderer{}.Render(context.Background(), s)
	require.NoError(t, err)
	text := string(doc.Data)

	assert.Contains(t, text, "SSN: ***-**-6789")
	assert.Contains(t, text, "SSN: ***-**-7890")
	assert.Contains(t, text, "SSN ***-**-8901")
	assert.Contains(t, text, "routing ****0021, account ****6789, refund deposit")
	assert.Contains(t, text, "tax ID ****6789, paid $1200.50")
	assert.Contains(t, text, "Q1: $500.00, paid 2024-04-15")
	assert.Contains(t, text, "missing_field: Taxpayer IP PIN must be 6 digits")
	assert.NotContains(t, text, "Already handled")

	for _, raw := range []string{"123-45-6789", "123456789", "345-67-8901", testutil.SpouseSSN, testutil.RoutingOK, testutil.AccountOK, "3456789"} {
		assert.False(t, strings.Contains(text, raw), "summary leaks %s", raw)
	}
}

func TestBuildSummary_EmptyIntake(t *testing.T) {
	g := &models.IntakeGraph{Intake: &models.Intake{ID: "i2", TaxYear: 2024, Status: models.IntakeDraft}}
	s, err := BuildSummary(g, testutil.Codec(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{"Intake", "Personal information", "Address", "Dependents", "Bank accounts", "Outstanding items"}, headings(s))
	assert.Equal(t, "Filing status: not provided", s.Sections[0].Lines[3].String())
	assert.Equal(t, "SSN: not provided", s.Sections[1].Lines[2].String())
}

func TestBuildSummary_IntegrityFaultIsAnError(t *testing.T) {
	c := testutil.Codec(t)
	tests := []struct {
		name   string
		field  string
		mutate func(g *models.IntakeGraph, bad []byte)
	}{
		{"spouse ssn", "spouse.ssn", func(g *models.IntakeGraph, bad []byte) { g.Taxpayer.SpouseSSNEncrypted = bad }},
		{"taxpayer ip pin", "taxpayer.ip_pin", func(g *models.IntakeGraph, bad []byte) { g.Taxpayer.IPPINEncrypted = bad }},
		{"routing number", "bank_account.b1.routing_number", func(g *models.IntakeGraph, bad []byte) {
			g.BankAccounts = []*models.BankAccount{{ID: "b1", RoutingEncrypted: bad}}
		}},
		{"childcare tax id", "childcare.p1.tax_id", func(g *models.IntakeGraph, bad []byte) {
			g.Childcare = []*models.ChildcareProvider{{ID: "p1", Name: "Little Steps", TaxIDEncrypted: bad}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := testutil.Seal(t, c, "123456")
			bad[len(bad)-1] ^= 0x01

			g := &models.IntakeGraph{
				Intake:   &models.Intake{ID: "i3", TaxYear: 2024, Status: models.IntakeSubmitted},
				Taxpayer: testutil.CompleteTaxpayer(t, c, "i3"),
			}
			tt.mutate(g, bad)

			s, err := BuildSummary(g, c, time.Now())
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, cryptox.ErrIntegrity)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

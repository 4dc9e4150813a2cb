// Package completeness decides whether an intake is ready to submit. It
// reports every gap as data; only repository faults are returned as errors.
package completeness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/taxintake/intakeengine/internal/cryptox"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
	"github.com/taxintake/intakeengine/internal/validators"
)

// Decryptor opens PII blobs. *cryptox.Codec satisfies it.
type Decryptor interface {
	DecryptOptional(blob []byte) (string, bool, error)
}

type Evaluator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       Decryptor
	log         logging.Logger
}

func NewEvaluator(db *sql.DB, rm repomanager.RepositoryManager, codec Decryptor, log logging.Logger) *Evaluator {
	return &Evaluator{db: db, repomanager: rm, codec: codec, log: log.With("module", "completeness")}
}

// Evaluate loads the intake and checks it. A missing intake is
// common.ErrorNotFound.
func (e *Evaluator) Evaluate(ctx context.Context, intakeID string) (*models.ValidationResult, error) {
	return e.EvaluateWith(ctx, e.db, intakeID)
}

// EvaluateWith is Evaluate reading through db, typically a transaction.
func (e *Evaluator) EvaluateWith(ctx context.Context, db dbx.DBTX, intakeID string) (*models.ValidationResult, error) {
	g, err := repomanager.LoadGraph(ctx, e.repomanager, db, intakeID)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", intakeID, err)
	}
	res := e.Check(g)
	e.log.Debug(ctx, "intake evaluated",
		"intake_id", intakeID,
		"valid", res.Valid,
		"missing_fields", len(res.MissingFields),
		"missing_docs", len(res.MissingDocs))
	return res, nil
}

// Check runs the rule set against a loaded graph. Items are emitted in a
// fixed order: personal fields, taxpayer SSN and IP-PIN, filing status and
// spouse, documents, bank accounts, dependents.
func (e *Evaluator) Check(g *models.IntakeGraph) *models.ValidationResult {
	r := &report{
		res:   &models.ValidationResult{MissingFields: []models.MissingItem{}, MissingDocs: []models.MissingItem{}, Warnings: []string{}},
		codec: e.codec,
	}
	tp := g.Taxpayer
	if tp == nil {
		tp = &models.TaxpayerInfo{}
	}
	requiresSpouse := g.FilingStatus.RequiresSpouse()

	r.requireText(models.SectionPersonal, "taxpayer.first_name", "Taxpayer first name", tp.FirstName)
	r.requireText(models.SectionPersonal, "taxpayer.last_name", "Taxpayer last name", tp.LastName)
	r.requireText(models.SectionPersonal, "taxpayer.date_of_birth", "Taxpayer date of birth", tp.DateOfBirth)
	if !tp.HasPhone() {
		r.field(models.SectionPersonal, "taxpayer.phone", "At least one phone number is required")
	}
	r.requireText(models.SectionPersonal, "taxpayer.address_city", "City", tp.AddressCity)
	r.requireText(models.SectionPersonal, "taxpayer.address_state", "State", tp.AddressState)
	r.requireText(models.SectionPersonal, "taxpayer.address_zip", "ZIP code", tp.AddressZip)

	taxpayerSSN := r.ssn(models.SectionPersonal, "taxpayer.ssn", "Taxpayer SSN", tp.SSNEncrypted, true)
	r.ipPIN(models.SectionPersonal, "taxpayer.ip_pin", "Taxpayer IP PIN", tp.IPPINEncrypted)

	if g.FilingStatus == nil || g.FilingStatus.Status == "" {
		r.field(models.SectionFiling, "filing_status", "Filing status is required")
	}
	var spouseSSN string
	if requiresSpouse {
		r.requireText(models.SectionSpouse, "spouse.first_name", "Spouse first name", tp.SpouseFirstName)
		r.requireText(models.SectionSpouse, "spouse.last_name", "Spouse last name", tp.SpouseLastName)
		r.requireText(models.SectionSpouse, "spouse.date_of_birth", "Spouse date of birth", tp.SpouseDateOfBirth)
		spouseSSN = r.ssn(models.SectionSpouse, "spouse.ssn", "Spouse SSN", tp.SpouseSSNEncrypted, true)
		r.ipPIN(models.SectionSpouse, "spouse.ip_pin", "Spouse IP PIN", tp.SpouseIPPINEncrypted)
	} else {
		spouseSSN = r.quietSSN(tp.SpouseSSNEncrypted)
	}

	r.requireDoc(g, models.CategoryIDFrontTaxpayer, "Taxpayer photo ID (front)")
	r.requireDoc(g, models.CategoryIDBackTaxpayer, "Taxpayer photo ID (back)")
	if requiresSpouse {
		r.requireDoc(g, models.CategoryIDFrontSpouse, "Spouse photo ID (front)")
		r.requireDoc(g, models.CategoryIDBackSpouse, "Spouse photo ID (back)")
	}
	if !hasTaxDocument(g) {
		r.doc("tax_documents", "At least one tax document (W-2, 1099, 1098 or other) is required")
	}

	for _, acc := range g.BankAccounts {
		r.bankAccount(acc)
	}

	r.dependents(g.Dependents, taxpayerSSN, spouseSSN)

	r.warnings(g)

	r.res.Valid = len(r.res.MissingFields) == 0 && len(r.res.MissingDocs) == 0
	return r.res
}

func hasTaxDocument(g *models.IntakeGraph) bool {
	for _, f := range g.Files {
		if f.Category.IsTaxDocument() {
			return true
		}
	}
	return false
}

type report struct {
	res   *models.ValidationResult
	codec Decryptor
}

func (r *report) field(section, field, desc string) {
	r.res.MissingFields = append(r.res.MissingFields, models.MissingItem{Field: field, Description: desc, Section: section})
}

func (r *report) doc(field, desc string) {
	r.res.MissingDocs = append(r.res.MissingDocs, models.MissingItem{Field: field, Description: desc, Section: models.SectionDocuments})
}

func (r *report) warn(format string, args ...any) {
	r.res.Warnings = append(r.res.Warnings, fmt.Sprintf(format, args...))
}

func (r *report) requireText(section, field, label, v string) {
	if strings.TrimSpace(v) == "" {
		r.field(section, field, label+" is required")
	}
}

func (r *report) requireDoc(g *models.IntakeGraph, c models.FileCategory, label string) {
	if !g.HasFile(c) {
		r.doc(string(c), label+" is required")
	}
}

// open decrypts blob. An integrity failure is reported against field and
// yields ok=false.
func (r *report) open(section, field, label string, blob []byte) (value string, present, ok bool) {
	v, present, err := r.codec.DecryptOptional(blob)
	if err != nil {
		desc := label + " could not be verified"
		if !errors.Is(err, cryptox.ErrIntegrity) {
			desc = label + " could not be read"
		}
		r.field(section, field, desc)
		return "", true, false
	}
	return v, present, true
}

// ssn checks an SSN blob and returns its normalized digits when valid.
func (r *report) ssn(section, field, label string, blob []byte, required bool) string {
	v, present, ok := r.open(section, field, label, blob)
	switch {
	case !ok:
		return ""
	case !present:
		if required {
			r.field(section, field, label+" is required")
		}
		return ""
	case !validators.IsValidSSN(v):
		r.field(section, field, label+" has an invalid format")
	}
	return ssnDigits(v)
}

// ssnDigits is the comparison key for cross-checks. A malformed SSN still
// compares on its digits.
func ssnDigits(v string) string {
	d, ok := validators.Digits(v)
	if !ok {
		return ""
	}
	return d
}

// quietSSN decrypts an SSN used only for cross-checks, reporting nothing.
func (r *report) quietSSN(blob []byte) string {
	v, _, err := r.codec.DecryptOptional(blob)
	if err != nil {
		return ""
	}
	return ssnDigits(v)
}

func (r *report) ipPIN(section, field, label string, blob []byte) {
	v, present, ok := r.open(section, field, label, blob)
	if ok && present && !validators.IsValidIPPIN(v) {
		r.field(section, field, label+" must be 6 digits")
	}
}

func (r *report) bankAccount(acc *models.BankAccount) {
	name := strings.TrimSpace(acc.BankName)
	if name == "" {
		name = "bank account"
	}
	prefix := "bank_account." + acc.ID

	if routing, present, ok := r.open(models.SectionBanking, prefix+".routing_number", "Routing number for "+name, acc.RoutingEncrypted); ok && present {
		if !validators.IsValidRoutingNumber(routing) {
			r.field(models.SectionBanking, prefix+".routing_number", "Routing number for "+name+" is invalid")
		}
	}
	if number, present, ok := r.open(models.SectionBanking, prefix+".account_number", "Account number for "+name, acc.AccountEncrypted); ok && present {
		if !validators.IsValidAccountNumber(number) {
			r.field(models.SectionBanking, prefix+".account_number", "Account number for "+name+" must be 4 to 17 digits")
		}
	}
}

// dependents flags SSNs that repeat the taxpayer's, the spouse's, or an
// earlier dependent's, comparing digits whether or not either side is well
// formed. The first occurrence of a duplicate is not flagged. One item per
// dependent; a match outranks a format problem.
func (r *report) dependents(deps []*models.Dependent, taxpayerSSN, spouseSSN string) {
	seen := map[string]bool{}
	for _, d := range deps {
		field := "dependent." + d.ID + ".ssn"
		label := "SSN of dependent " + dependentName(d)

		v, present, ok := r.open(models.SectionDependent, field, label, d.SSNEncrypted)
		if !ok || !present {
			continue
		}
		ssn := ssnDigits(v)
		switch {
		case ssn != "" && ssn == taxpayerSSN:
			r.field(models.SectionDependent, field, label+" matches the taxpayer's SSN")
		case ssn != "" && ssn == spouseSSN:
			r.field(models.SectionDependent, field, label+" matches the spouse's SSN")
		case ssn != "" && seen[ssn]:
			r.field(models.SectionDependent, field, label+" duplicates another dependent's SSN")
		case !validators.IsValidSSN(v):
			r.field(models.SectionDependent, field, label+" has an invalid format")
		}
		if ssn != "" {
			seen[ssn] = true
		}
	}
}

func dependentName(d *models.Dependent) string {
	if n := d.FullName(); n != "" {
		return n
	}
	return d.ID
}

func (r *report) warnings(g *models.IntakeGraph) {
	if len(g.BankAccounts) > 0 {
		refund := false
		for _, acc := range g.BankAccounts {
			refund = refund || acc.IsForRefund
		}
		if !refund {
			r.warn("No bank account is marked for refund deposit")
		}
	}
	for _, d := range g.Dependents {
		if len(d.SSNEncrypted) == 0 {
			r.warn("Dependent %s has no SSN on file", dependentName(d))
		}
		if d.MonthsInHome < 6 {
			r.warn("Dependent %s lived in the home %d months", dependentName(d), d.MonthsInHome)
		}
	}
	for _, f := range g.Files {
		if f.NeedsReview {
			r.warn("File %s is flagged for review", f.OriginalName)
		}
	}
}

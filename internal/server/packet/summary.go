package packet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taxintake/intakeengine/internal/cryptox"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/render"
)

const notProvided = "not provided"

// Decryptor opens PII blobs. *cryptox.Codec satisfies it.
type Decryptor interface {
	DecryptOptional(blob []byte) (string, bool, error)
}

// BuildSummary lays out the packet summary. PII is decrypted only to be
// masked; the summary never carries a full identifier. A blob that fails to
// decrypt is an error naming the field, wrapping cryptox.ErrIntegrity when
// authentication failed.
func BuildSummary(g *models.IntakeGraph, codec Decryptor, generated time.Time) (*render.Summary, error) {
	m := &masker{codec: codec}
	tp := g.Taxpayer
	if tp == nil {
		tp = &models.TaxpayerInfo{}
	}

	header := render.Section{Heading: "Intake"}
	header.Add("Intake ID", g.Intake.ID)
	header.Add("Tax year", strconv.Itoa(g.Intake.TaxYear))
	header.Add("Status", string(g.Intake.Status))
	filing := notProvided
	if g.FilingStatus != nil && g.FilingStatus.Status != "" {
		filing = string(g.FilingStatus.Status)
	}
	header.Add("Filing status", filing)
	header.Add("Generated", generated.UTC().Format(time.RFC3339))

	personal := render.Section{Heading: "Personal information"}
	personal.Add("Name", orNotProvided(fullName(tp.FirstName, tp.MiddleInitial, tp.LastName)))
	personal.Add("Date of birth", orNotProvided(tp.DateOfBirth))
	personal.Add("SSN", m.ssn("taxpayer.ssn", tp.SSNEncrypted))
	personal.Add("IP PIN", m.onFile("taxpayer.ip_pin", tp.IPPINEncrypted))
	personal.Add("Occupation", orNotProvided(tp.Occupation))
	personal.Add("Phone", orNotProvided(joinNonEmpty(", ", tp.PhoneCell, tp.PhoneHome, tp.PhoneWork)))
	personal.Add("Email", orNotProvided(tp.Email))

	sections := []render.Section{header, personal}

	if tp.HasSpouse() || g.FilingStatus.RequiresSpouse() {
		spouse := render.Section{Heading: "Spouse"}
		spouse.Add("Name", orNotProvided(fullName(tp.SpouseFirstName, tp.SpouseMiddleInitial, tp.SpouseLastName)))
		spouse.Add("Date of birth", orNotProvided(tp.SpouseDateOfBirth))
		spouse.Add("SSN", m.ssn("spouse.ssn", tp.SpouseSSNEncrypted))
		spouse.Add("IP PIN", m.onFile("spouse.ip_pin", tp.SpouseIPPINEncrypted))
		spouse.Add("Occupation", orNotProvided(tp.SpouseOccupation))
		sections = append(sections, spouse)
	}

	addr := render.Section{Heading: "Address"}
	addr.Add("Street", orNotProvided(joinNonEmpty(" ", tp.AddressStreet, tp.AddressApt)))
	addr.Add("City", orNotProvided(tp.AddressCity))
	addr.Add("State", orNotProvided(tp.AddressState))
	addr.Add("ZIP", orNotProvided(tp.AddressZip))
	addr.Add("Residency state", orNotProvided(tp.ResidencyState))
	sections = append(sections, addr)

	deps := render.Section{Heading: "Dependents"}
	if len(g.Dependents) == 0 {
		deps.Add("", "None")
	}
	for _, d := range g.Dependents {
		deps.Add(orNotProvided(d.FullName()), fmt.Sprintf("%s, born %s, %d months in home, SSN %s",
			orNotProvided(d.Relationship), orNotProvided(d.DateOfBirth), d.MonthsInHome, m.ssn("dependent."+d.ID+".ssn", d.SSNEncrypted)))
	}
	sections = append(sections, deps)

	banks := render.Section{Heading: "Bank accounts"}
	if len(g.BankAccounts) == 0 {
		banks.Add("", "None")
	}
	for _, a := range g.BankAccounts {
		refund := ""
		if a.IsForRefund {
			refund = ", refund deposit"
		}
		banks.Add(orNotProvided(a.BankName), fmt.Sprintf("%s, routing %s, account %s%s",
			orNotProvided(string(a.AccountType)), m.account("bank_account."+a.ID+".routing_number", a.RoutingEncrypted),
			m.account("bank_account."+a.ID+".account_number", a.AccountEncrypted), refund))
	}
	sections = append(sections, banks)

	if len(g.Childcare) > 0 {
		care := render.Section{Heading: "Childcare providers"}
		for _, p := range g.Childcare {
			care.Add(orNotProvided(p.Name), fmt.Sprintf("tax ID %s, paid $%s", m.account("childcare."+p.ID+".tax_id", p.TaxIDEncrypted), p.AmountPaid.StringFixed(2)))
		}
		sections = append(sections, care)
	}

	if len(g.EstimatedPayments) > 0 {
		est := render.Section{Heading: "Estimated payments"}
		for _, p := range g.EstimatedPayments {
			paid := "date not provided"
			if p.PaidOn != nil {
				paid = "paid " + p.PaidOn.Format("2006-01-02")
			}
			est.Add(fmt.Sprintf("Q%d", p.Quarter), fmt.Sprintf("$%s, %s", p.Amount.StringFixed(2), paid))
		}
		sections = append(sections, est)
	}

	open := render.Section{Heading: "Outstanding items"}
	items := g.OpenChecklist()
	if len(items) == 0 {
		open.Add("", "None")
	}
	for _, it := range items {
		open.Add(string(it.ItemType), it.Description)
	}
	sections = append(sections, open)

	if m.err != nil {
		return nil, m.err
	}
	return &render.Summary{
		Title:    fmt.Sprintf("Tax intake packet %d", g.Intake.TaxYear),
		Sections: sections,
	}, nil
}

// masker keeps the first decryption failure; later fields still render so
// the whole summary is walked once.
type masker struct {
	codec Decryptor
	err   error
}

func (m *masker) open(field string, blob []byte) (string, string, bool) {
	v, present, err := m.codec.DecryptOptional(blob)
	switch {
	case err != nil:
		if m.err == nil {
			m.err = fmt.Errorf("decrypt %s: %w", field, err)
		}
		return "", "", false
	case !present:
		return "", notProvided, false
	}
	return v, "", true
}

func (m *masker) ssn(field string, blob []byte) string {
	v, placeholder, ok := m.open(field, blob)
	if !ok {
		return placeholder
	}
	return cryptox.MaskSSN(v)
}

func (m *masker) account(field string, blob []byte) string {
	v, placeholder, ok := m.open(field, blob)
	if !ok {
		return placeholder
	}
	return cryptox.MaskAccount(v)
}

func (m *masker) onFile(field string, blob []byte) string {
	_, placeholder, ok := m.open(field, blob)
	if !ok {
		return placeholder
	}
	return "on file"
}

func fullName(first, middle, last string) string {
	return joinNonEmpty(" ", first, middle, last)
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

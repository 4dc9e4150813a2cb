package models

import "strings"

// IntakeGraph is an intake with every row it owns, loaded in one pass.
type IntakeGraph struct {
	Intake            *Intake
	Taxpayer          *TaxpayerInfo
	FilingStatus      *FilingStatus
	BankAccounts      []*BankAccount
	Dependents        []*Dependent
	Childcare         []*ChildcareProvider
	EstimatedPayments []*EstimatedPayment
	Files             []*File
	Checklist         []*ChecklistItem
}

// HasFile reports whether a file of category c was uploaded.
func (g *IntakeGraph) HasFile(c FileCategory) bool {
	for _, f := range g.Files {
		if f.Category == c {
			return true
		}
	}
	return false
}

// OpenChecklist returns unresolved checklist items in stored order.
func (g *IntakeGraph) OpenChecklist() []*ChecklistItem {
	var out []*ChecklistItem
	for _, it := range g.Checklist {
		if !it.IsResolved {
			out = append(out, it)
		}
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func joinName(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

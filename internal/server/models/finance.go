package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes checking from savings accounts.
type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
)

// BankAccount stores encrypted routing and account numbers.
type BankAccount struct {
	ID               string
	IntakeID         string
	BankName         string
	AccountType      AccountType
	RoutingEncrypted []byte
	AccountEncrypted []byte
	IsForRefund      bool
}

// ChildcareProvider is a care provider paid during the tax year.
type ChildcareProvider struct {
	ID             string
	IntakeID       string
	Name           string
	Address        string
	TaxIDEncrypted []byte
	AmountPaid     decimal.Decimal
}

// EstimatedPayment is one quarterly estimated tax payment.
type EstimatedPayment struct {
	ID       string
	IntakeID string
	Quarter  int
	Amount   decimal.Decimal
	PaidOn   *time.Time
}

package models

// TaxpayerInfo holds the personal data of the taxpayer and spouse. Fields
// ending in Encrypted are AEAD blobs produced by cryptox.Codec; nil means
// the value was never provided.
type TaxpayerInfo struct {
	IntakeID string

	FirstName      string
	MiddleInitial  string
	LastName       string
	DateOfBirth    string
	Occupation     string
	PhoneHome      string
	PhoneWork      string
	PhoneCell      string
	Email          string
	AddressStreet  string
	AddressApt     string
	AddressCity    string
	AddressState   string
	AddressZip     string
	ResidencyState string

	SpouseFirstName     string
	SpouseMiddleInitial string
	SpouseLastName      string
	SpouseDateOfBirth   string
	SpouseOccupation    string

	SSNEncrypted         []byte
	IPPINEncrypted       []byte
	SpouseSSNEncrypted   []byte
	SpouseIPPINEncrypted []byte
}

// HasPhone reports whether at least one phone number is filled in.
func (t *TaxpayerInfo) HasPhone() bool {
	return !blank(t.PhoneHome) || !blank(t.PhoneWork) || !blank(t.PhoneCell)
}

// HasSpouse reports whether any spouse data was entered.
func (t *TaxpayerInfo) HasSpouse() bool {
	return !blank(t.SpouseFirstName) || !blank(t.SpouseLastName) || t.SpouseSSNEncrypted != nil
}

// FilingStatusValue enumerates the supported filing statuses.
type FilingStatusValue string

const (
	FilingSingle            FilingStatusValue = "single"
	FilingMarried           FilingStatusValue = "married"
	FilingMarriedSeparately FilingStatusValue = "married_filing_separately"
	FilingHeadOfHousehold   FilingStatusValue = "head_of_household"
	FilingQualifyingWidow   FilingStatusValue = "qualifying_widow"
)

// FilingStatus is the filing status chosen for an intake.
type FilingStatus struct {
	IntakeID string
	Status   FilingStatusValue
}

// RequiresSpouse reports whether spouse data and documents are mandatory.
func (f *FilingStatus) RequiresSpouse() bool {
	if f == nil {
		return false
	}
	return f.Status == FilingMarried || f.Status == FilingMarriedSeparately
}

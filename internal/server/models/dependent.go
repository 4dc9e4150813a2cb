package models

// Dependent is a person claimed on the return. SSN uniqueness across the
// intake is checked during evaluation, not on write.
type Dependent struct {
	ID           string
	IntakeID     string
	FirstName    string
	LastName     string
	DateOfBirth  string
	Relationship string
	MonthsInHome int
	SSNEncrypted []byte
}

// FullName joins first and last name.
func (d *Dependent) FullName() string {
	return joinName(d.FirstName, d.LastName)
}

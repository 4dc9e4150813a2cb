package models

// Sections of the validation report.
const (
	SectionPersonal  = "personal"
	SectionSpouse    = "spouse"
	SectionFiling    = "filing_status"
	SectionDocuments = "documents"
	SectionBanking   = "banking"
	SectionDependent = "dependents"
)

// MissingItem is one gap found during evaluation.
type MissingItem struct {
	Field       string `json:"field"`
	Description string `json:"description"`
	Section     string `json:"section"`
}

// ValidationResult is the output of a completeness evaluation. Gaps are
// data, not errors.
type ValidationResult struct {
	Valid         bool          `json:"valid"`
	MissingFields []MissingItem `json:"missingFields"`
	MissingDocs   []MissingItem `json:"missingDocs"`
	Warnings      []string      `json:"warnings"`
}

package models

import "time"

// FileCategory tags an uploaded document.
type FileCategory string

const (
	CategoryIDFrontTaxpayer FileCategory = "id_front_taxpayer"
	CategoryIDBackTaxpayer  FileCategory = "id_back_taxpayer"
	CategoryIDFrontSpouse   FileCategory = "id_front_spouse"
	CategoryIDBackSpouse    FileCategory = "id_back_spouse"
	CategoryW2              FileCategory = "w2"
	Category1099Int         FileCategory = "1099_int"
	Category1099Div         FileCategory = "1099_div"
	Category1099Misc        FileCategory = "1099_misc"
	Category1099Nec         FileCategory = "1099_nec"
	Category1098            FileCategory = "1098"
	CategoryOther           FileCategory = "other"
)

// TaxDocumentCategories are the categories that satisfy the tax documents
// requirement.
var TaxDocumentCategories = []FileCategory{
	CategoryW2, Category1099Int, Category1099Div, Category1099Misc,
	Category1099Nec, Category1098, CategoryOther,
}

// IsTaxDocument reports whether c counts as a tax document.
func (c FileCategory) IsTaxDocument() bool {
	for _, t := range TaxDocumentCategories {
		if c == t {
			return true
		}
	}
	return false
}

// Valid reports whether c is a known category.
func (c FileCategory) Valid() bool {
	switch c {
	case CategoryIDFrontTaxpayer, CategoryIDBackTaxpayer, CategoryIDFrontSpouse, CategoryIDBackSpouse:
		return true
	}
	return c.IsTaxDocument()
}

// File is the metadata of an uploaded document. The content lives in file
// storage under StorageKey. Only NeedsReview changes after creation.
type File struct {
	ID           string
	IntakeID     string
	Category     FileCategory
	OriginalName string
	ContentType  string
	SizeBytes    int64
	// Checksum is the hex SHA-256 of the content, empty if unknown.
	Checksum    string
	StorageKey  string
	NeedsReview bool
	UploadedBy  string
	CreatedAt   time.Time
}

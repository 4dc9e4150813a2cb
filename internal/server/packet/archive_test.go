package packet

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/server/models"
)

func TestFolderFor(t *testing.T) {
	tests := []struct {
		category models.FileCategory
		want     string
	}{
		{models.CategoryIDFrontTaxpayer, "identification/taxpayer"},
		{models.CategoryIDBackSpouse, "identification/spouse"},
		{models.CategoryW2, "w2"},
		{models.Category1099Int, "1099/int"},
		{models.Category1099Div, "1099/div"},
		{models.Category1099Misc, "1099/misc"},
		{models.Category1099Nec, "1099/nec"},
		{models.Category1098, "1098"},
		{models.CategoryOther, "other"},
		{"mystery", "other"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, FolderFor(tt.category))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"W2 2024.pdf", "W2_2024.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\jane\id.jpg`, "id.jpg"},
		{"..", "file"},
		{".hidden", "hidden"},
		{"résumé.pdf", "r_sum_.pdf"},
		{"a\x00b.pdf", "a_b.pdf"},
		{"", "file"},
		{"???", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}

	long := SanitizeName(string(bytes.Repeat([]byte("a"), 300)) + ".pdf")
	assert.Len(t, long, maxEntryName)
	assert.Equal(t, ".pdf", long[len(long)-4:])
}

func TestEntryNames_Disambiguates(t *testing.T) {
	n := entryNames{}
	assert.Equal(t, "w2/form.pdf", n.claim("w2", "form.pdf"))
	assert.Equal(t, "w2/form-2.pdf", n.claim("w2", "form.pdf"))
	assert.Equal(t, "w2/form-3.pdf", n.claim("w2", "form.pdf"))
	assert.Equal(t, "other/form.pdf", n.claim("other", "form.pdf"))
	assert.Equal(t, "summary.pdf", n.claim("", "summary.pdf"))
}

func TestBuildArchive(t *testing.T) {
	files := []archiveFile{
		{file: &models.File{Category: models.CategoryW2, OriginalName: "w2.pdf"}, data: []byte("one")},
		{file: &models.File{Category: models.CategoryW2, OriginalName: "w2.pdf"}, data: []byte("two")},
		{file: &models.File{Category: models.Category1099Nec, OriginalName: "../nec form.pdf"}, data: []byte("nec")},
	}
	b, err := buildArchive("summary.txt", []byte("summary"), files, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)

	got := map[string]string{}
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		got[f.Name] = string(data)
		order = append(order, f.Name)
	}
	assert.Equal(t, []string{"summary.txt", "w2/w2.pdf", "w2/w2-2.pdf", "1099/nec/nec_form.pdf"}, order)
	assert.Equal(t, "two", got["w2/w2-2.pdf"])
	assert.Equal(t, "summary", got["summary.txt"])
}

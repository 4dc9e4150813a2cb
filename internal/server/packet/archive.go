package packet

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/taxintake/intakeengine/internal/server/models"
)

const maxEntryName = 120

var categoryFolders = map[models.FileCategory]string{
	models.CategoryIDFrontTaxpayer: "identification/taxpayer",
	models.CategoryIDBackTaxpayer:  "identification/taxpayer",
	models.CategoryIDFrontSpouse:   "identification/spouse",
	models.CategoryIDBackSpouse:    "identification/spouse",
	models.CategoryW2:              "w2",
	models.Category1099Int:         "1099/int",
	models.Category1099Div:         "1099/div",
	models.Category1099Misc:        "1099/misc",
	models.Category1099Nec:         "1099/nec",
	models.Category1098:            "1098",
	models.CategoryOther:           "other",
}

// FolderFor maps a file category to its archive folder. Unknown categories
// land in "other".
func FolderFor(c models.FileCategory) string {
	if f, ok := categoryFolders[c]; ok {
		return f
	}
	return "other"
}

// SanitizeName reduces a client-supplied file name to [A-Za-z0-9._-] so it
// cannot escape its folder or smuggle control characters into the archive.
func SanitizeName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.TrimLeft(b.String(), ".")
	if len(s) > maxEntryName {
		ext := path.Ext(s)
		if len(ext) > 16 {
			ext = ""
		}
		s = s[:maxEntryName-len(ext)] + ext
	}
	if strings.Trim(s, "_") == "" {
		return "file"
	}
	return s
}

// entryNames hands out unique archive paths, suffixing repeats with -2, -3...
type entryNames map[string]bool

func (n entryNames) claim(folder, name string) string {
	p := path.Join(folder, name)
	if !n[p] {
		n[p] = true
		return p
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		p = path.Join(folder, base+"-"+strconv.Itoa(i)+ext)
		if !n[p] {
			n[p] = true
			return p
		}
	}
}

type archiveFile struct {
	file *models.File
	data []byte
}

// buildArchive writes the summary at the root and every file under its
// category folder.
func buildArchive(summaryName string, summary []byte, files []archiveFile, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := entryNames{}

	write := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		return nil
	}

	if err := write(names.claim("", SanitizeName(summaryName)), summary); err != nil {
		return nil, err
	}
	for _, f := range files {
		name := names.claim(FolderFor(f.file.Category), SanitizeName(f.file.OriginalName))
		if err := write(name, f.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	pageHeight   = 842 // A4 portrait, points
	marginLeft   = 50
	marginTop    = 60
	lineHeight   = 16
	linesPerPage = (pageHeight - 2*marginTop) / lineHeight
	maxLineRunes = 90
)

var disableConfigDir sync.Once

// PDFRenderer lays the summary out as A4 pages of Helvetica text using
// pdfcpu's JSON page description.
type PDFRenderer struct {
	conf *model.Configuration
}

func NewPDFRenderer() *PDFRenderer {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFRenderer{conf: conf}
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfText struct {
	Value string   `json:"value"`
	Pos   [2]int   `json:"pos"`
	Font  *pdfFont `json:"font"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfDoc struct {
	Paper string             `json:"paper"`
	Pages map[string]pdfPage `json:"pages"`
}

type styledLine struct {
	text string
	bold bool
}

func (r *PDFRenderer) Render(_ context.Context, s *Summary) (*Document, error) {
	lines := []styledLine{{text: s.Title, bold: true}, {}}
	for _, sec := range s.Sections {
		lines = append(lines, styledLine{text: sec.Heading, bold: true})
		for _, l := range sec.Lines {
			for _, w := range wrap(l.String(), maxLineRunes) {
				lines = append(lines, styledLine{text: w})
			}
		}
		lines = append(lines, styledLine{})
	}

	doc := pdfDoc{Paper: "A4P", Pages: map[string]pdfPage{}}
	for i, l := range lines {
		n := i/linesPerPage + 1
		row := i % linesPerPage
		if l.text == "" {
			continue
		}
		font := &pdfFont{Name: "Helvetica", Size: 10}
		if l.bold {
			font = &pdfFont{Name: "Helvetica-Bold", Size: 12}
		}
		p := doc.Pages[strconv.Itoa(n)]
		p.Content.Text = append(p.Content.Text, pdfText{
			Value: l.text,
			Pos:   [2]int{marginLeft, pageHeight - marginTop - row*lineHeight},
			Font:  font,
		})
		doc.Pages[strconv.Itoa(n)] = p
	}

	desc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page description: %w", err)
	}

	var out bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(desc), &out, r.conf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return &Document{Name: "summary.pdf", ContentType: "application/pdf", Data: out.Bytes()}, nil
}

// wrap splits s into chunks of at most n runes, preferring spaces.
func wrap(s string, n int) []string {
	r := []rune(s)
	if len(r) <= n {
		return []string{s}
	}
	var out []string
	for len(r) > n {
		cut := n
		for i := n; i > n/2; i-- {
			if r[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, string(r[:cut]))
		r = r[cut:]
		for len(r) > 0 && r[0] == ' ' {
			r = r[1:]
		}
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

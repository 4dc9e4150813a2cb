// Package render turns a packet summary into a document byte stream.
package render

import "context"

// Summary is the structured, already-masked content of a preparer packet.
type Summary struct {
	Title    string
	Sections []Section
}

type Section struct {
	Heading string
	Lines   []Line
}

// Line is one labelled value. An empty Label renders Value on its own.
type Line struct {
	Label string
	Value string
}

func (s *Section) Add(label, value string) {
	s.Lines = append(s.Lines, Line{Label: label, Value: value})
}

// Document is a rendered summary.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

type Renderer interface {
	Render(ctx context.Context, s *Summary) (*Document, error)
}

// New returns the renderer for format ("pdf" or "text").
func New(format string) Renderer {
	if format == "text" {
		return TextRenderer{}
	}
	return NewPDFRenderer()
}

func (l Line) String() string {
	if l.Label == "" {
		return l.Value
	}
	return l.Label + ": " + l.Value
}

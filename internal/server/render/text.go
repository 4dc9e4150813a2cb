package render

import (
	"bytes"
	"context"
	"strings"
)

// TextRenderer renders a plain UTF-8 summary.
type TextRenderer struct{}

func (TextRenderer) Render(_ context.Context, s *Summary) (*Document, error) {
	var buf bytes.Buffer
	buf.WriteString(s.Title)
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat("=", len(s.Title)))
	buf.WriteByte('\n')

	for _, sec := range s.Sections {
		buf.WriteByte('\n')
		buf.WriteString(sec.Heading)
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("-", len(sec.Heading)))
		buf.WriteByte('\n')
		for _, l := range sec.Lines {
			buf.WriteString(l.String())
			buf.WriteByte('\n')
		}
	}

	return &Document{Name: "summary.txt", ContentType: "text/plain; charset=utf-8", Data: buf.Bytes()}, nil
}

// Package markdown converts tool markdown output to HTML fragments.
package markdown

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Converter renders GitHub-flavoured markdown. Raw HTML in the source is
// escaped.
type Converter struct {
	md goldmark.Markdown
}

func New() *Converter {
	return &Converter{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// ToHTML never fails: on a conversion error the source is returned escaped
// inside a pre block.
func (c *Converter) ToHTML(src string) string {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "<pre>" + html.EscapeString(src) + "</pre>"
	}
	return buf.String()
}

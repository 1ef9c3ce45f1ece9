// Package render turns the aggregated report model into one self-contained
// HTML document.
package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ParadiseToken/solhydra/internal/domain/report"
)

//go:embed assets/report.html.tmpl assets/style.css
var assets embed.FS

// External assets referenced by every document.
const (
	HighlightCSS      = "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/styles/github.min.css"
	HighlightJS       = "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/highlight.min.js"
	HighlightSolidity = "https://cdn.jsdelivr.net/npm/highlightjs-solidity@2.0.6/dist/solidity.min.js"
)

type view struct {
	report.Document
	Style             template.CSS
	HighlightCSS      string
	HighlightJS       string
	HighlightSolidity string
}

type Renderer struct {
	tmpl  *template.Template
	style template.CSS
}

var funcs = template.FuncMap{
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"dataURI":  dataURI,
}

// New parses the template at path, or the built-in one when path is empty.
func New(path string) (*Renderer, error) {
	var (
		src []byte
		err error
	)
	if path == "" {
		src, err = assets.ReadFile("assets/report.html.tmpl")
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	tmpl, err := template.New("report").Funcs(funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	css, err := assets.ReadFile("assets/style.css")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, style: template.CSS(css)}, nil
}

// Render writes the document to w.
func (r *Renderer) Render(w io.Writer, doc report.Document) error {
	if doc.Model == nil {
		return fmt.Errorf("render: nil model")
	}
	if doc.Title == "" {
		doc.Title = "Smart contract analysis report"
	}
	return r.tmpl.Execute(w, view{
		Document:          doc,
		Style:             r.style,
		HighlightCSS:      HighlightCSS,
		HighlightJS:       HighlightJS,
		HighlightSolidity: HighlightSolidity,
	})
}

// WriteFile renders into a buffer first so a failed render never leaves a
// truncated document at dest.
func (r *Renderer) WriteFile(dest string, doc report.Document) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, buf.Bytes(), 0o644)
}

func dataURI(content string) template.URL {
	mime := http.DetectContentType([]byte(content))
	if mime == "text/xml; charset=utf-8" || bytes.HasPrefix(bytes.TrimSpace([]byte(content)), []byte("<svg")) {
		mime = "image/svg+xml"
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte(content)))
}

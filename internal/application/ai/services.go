// Package ai builds a triage digest from an aggregated report and asks the
// configured model to summarise it.
package ai

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ParadiseToken/solhydra/internal/domain/ai"
	"github.com/ParadiseToken/solhydra/internal/domain/report"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

// ErrEmptyDigest means no tool produced text worth summarising.
var ErrEmptyDigest = errors.New("nothing to summarise")

type Service struct {
	client ai.Client
	// MaxChars bounds each tool output in the digest.
	MaxChars int
}

func NewService(client ai.Client, maxChars int) *Service {
	if maxChars <= 0 {
		maxChars = 2000
	}
	return &Service{client: client, MaxChars: maxChars}
}

// Summarize returns the model's markdown summary of m.
func (s *Service) Summarize(ctx context.Context, m *report.Model) (string, error) {
	digest := Digest(m, s.MaxChars)
	if digest == "" {
		return "", ErrEmptyDigest
	}
	return s.client.Summarize(ctx, digest)
}

var tags = regexp.MustCompile(`<[^>]+>`)

// Digest flattens text and markdown outputs into one plain-text document,
// grouped by contract in model order. Image and html outputs are skipped.
func Digest(m *report.Model, maxChars int) string {
	var b strings.Builder
	for _, e := range m.Entries() {
		var section strings.Builder
		for _, run := range m.Tools() {
			out := e.OutputFor(run.Name)
			if out == nil {
				continue
			}
			var text string
			switch out.ContentType {
			case tools.ContentText:
				text = out.Content
			case tools.ContentMarkdown:
				text = html.UnescapeString(tags.ReplaceAllString(out.Content, ""))
			default:
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if maxChars > 0 && len(text) > maxChars {
				text = truncate(text, maxChars) + "\n[truncated]"
			}
			fmt.Fprintf(&section, "--- %s ---\n%s\n", run.Name, text)
		}
		if section.Len() > 0 {
			fmt.Fprintf(&b, "## %s\n%s\n", e.Identity.CanonicalName, section.String())
		}
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Package tools describes the external analysis engines: their static
// configuration, per-run state, and what they wrote for each contract.
package tools

import (
	"fmt"
	"strings"
)

// ContentType says how every file a tool writes is interpreted.
type ContentType string

const (
	ContentMarkdown ContentType = "markdown"
	ContentText     ContentType = "text"
	ContentHTML     ContentType = "html"
	ContentImage    ContentType = "image"
)

// ParseContentType accepts the lowercase names above.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ContentMarkdown, ContentText, ContentHTML, ContentImage:
		return ct, nil
	default:
		return "", fmt.Errorf("unknown content type %q (allowed: markdown, text, html, image)", s)
	}
}

// Spec is the static configuration of one tool.
type Spec struct {
	Name        string
	Image       string
	Command     []string
	Env         map[string]string
	ContentType ContentType
	// OutputSuffix is appended to the canonical name to find the tool's
	// file for a contract, e.g. ".png" for image tools.
	OutputSuffix string
}

// OutputName is the file the tool writes for a canonical contract name.
func (s Spec) OutputName(canonical string) string {
	return canonical + s.OutputSuffix
}

// Run is one tool's execution within one pipeline invocation.
type Run struct {
	Name             string      `json:"name"`
	ContentType      ContentType `json:"content_type"`
	OutputRootExists bool        `json:"output_root_exists"`
}

// Output is what a tool wrote for one contract. Markdown is already
// converted to HTML; all other types are raw.
type Output struct {
	Tool        string      `json:"tool"`
	ContentType ContentType `json:"content_type"`
	Content     string      `json:"content"`
}

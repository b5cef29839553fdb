// Package markdown converts page markdown into HTML fragments.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter turns markdown text into an HTML fragment.
type Converter interface {
	Convert(src string) (string, error)
}

// Goldmark is the default Converter. Raw HTML in the source is omitted from
// the output, so the fragment is safe to embed unescaped in a template.
type Goldmark struct {
	md goldmark.Markdown
}

// New returns a Goldmark converter with GitHub flavoured extensions enabled.
func New() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithXHTML()),
		),
	}
}

// Convert renders src to HTML.
func (g *Goldmark) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

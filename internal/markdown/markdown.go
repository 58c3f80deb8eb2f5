// Package markdown renders Markdown bodies to HTML with Goldmark.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown bodies (frontmatter already removed) to HTML.
//
// The same Renderer is reused across documents; goldmark.Markdown is safe
// for concurrent use, though the builder runs single-pass anyway.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a GFM renderer with auto heading IDs.
//
// Raw HTML in post bodies is passed through: the content store is the
// author's own writing, not untrusted input.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts body to HTML.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/maillink/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser renders Markdown to HTML with goldmark, so converted
// addresses come back as anchors inside HTML.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// Raw HTML in the source, including existing anchors, must survive so
	// the scan can see which addresses are already linked.
	md := goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))
	doc := md.Parser().Parse(text.NewReader(src))

	var out bytes.Buffer
	if err := md.Renderer().Render(&out, src, doc); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	title := trimExt(filename, ".md", ".markdown")
	if h := firstHeading(doc, src); h != "" {
		title = h
	}

	return &document.Document{
		Title:     title,
		Format:    document.FormatMarkdown,
		Text:      out.String(),
		Extracted: true,
	}, nil
}

// firstHeading returns the text of the first top-level heading.
func firstHeading(doc ast.Node, src []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			return string(h.Text(src))
		}
	}
	return ""
}

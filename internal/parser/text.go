package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/starford/quire/internal/models"
)

// Outline depth bounds: depth 1 is the document title, depth 4+ is too fine-grained.
const (
	minOutlineDepth = 2
	maxOutlineDepth = 3
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Extracted is the searchable projection of a Markdown body.
type Extracted struct {
	ContentText string
	Headings    []models.Heading
}

// Extract strips Markdown syntax from body and collects the depth 2–3 outline.
// Code blocks, inline code, images, and raw HTML are dropped; link and emphasis
// text is kept without its markup. Whitespace is collapsed to single spaces.
func Extract(body []byte) Extracted {
	doc := markdown.Parser().Parse(text.NewReader(body))

	var buf strings.Builder
	var headings []models.Heading

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				buf.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.CodeSpan, *ast.Image,
			*ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if node.Level >= minOutlineDepth && node.Level <= maxOutlineDepth {
				if t := collapse(inlineText(node, body)); t != "" {
					headings = append(headings, models.Heading{Depth: node.Level, Text: t})
				}
			}
		case *ast.Text:
			buf.Write(node.Segment.Value(body))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(body))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	texts := make([]string, len(headings))
	for i, h := range headings {
		texts[i] = h.Text
	}
	for i, id := range Anchors(texts) {
		headings[i].ID = id
	}

	return Extracted{
		ContentText: collapse(buf.String()),
		Headings:    headings,
	}
}

// inlineText concatenates the text of n's descendants, inline code included.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

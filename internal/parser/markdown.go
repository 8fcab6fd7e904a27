package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownSource handles Markdown files using goldmark. ATX and setext
// headings map onto the synthetic size ladder; every other block becomes
// body text.
type MarkdownSource struct{}

func (s *MarkdownSource) Extract(r io.Reader, docID string) ([]doc.TextBlock, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	var lines []synthLine
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(extractText(node, src))
			if title != "" {
				lines = append(lines, synthLine{text: title, level: node.Level})
			}
		default:
			if t := strings.TrimSpace(extractText(n, src)); t != "" {
				lines = append(lines, synthLine{text: t})
			}
		}
	}

	return layoutLines(lines, docID), nil
}

// extractText gets the plain text of a goldmark AST node. Nodes with
// inline children (paragraphs, headings, list items) collect from the
// children; leaf blocks such as code blocks read their raw lines.
func extractText(n ast.Node, src []byte) string {
	if t, ok := n.(*ast.Text); ok {
		if t.SoftLineBreak() || t.HardLineBreak() {
			return string(t.Value(src)) + "\n"
		}
		return string(t.Value(src))
	}
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return buf.String()
	}
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		part := extractText(c, src)
		if part == "" {
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(part)
	}
	return buf.String()
}

package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// heading-typography blocks at their outline depth; every other top-level
// AST node becomes a body block.
type MarkdownParser struct{}

func (p *MarkdownParser) Name() string { return "markdown" }

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*block.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	doc := &block.Document{
		Title:  titleFromFilename(filename),
		Source: filename,
	}

	l := newLayout()
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			if title != "" {
				doc.Blocks = append(doc.Blocks, l.heading(title, node.Level))
			}
		default:
			if t := extractText(n, src); t != "" {
				doc.Blocks = append(doc.Blocks, l.body(t))
			}
		}
	}
	doc.Pages = l.page

	return doc, nil
}

// extractText gets the text content of a goldmark AST node. Nodes with
// children yield their inline text; leaf blocks such as code fences yield
// their raw lines. Never both, or paragraph text would come out doubled.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.HasChildren() {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
				continue
			}
			s := extractText(c, src)
			if s == "" {
				continue
			}
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			buf.WriteString(s)
		}
	} else if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			buf.Write(lines.At(i).Value(src))
		}
	}
	return strings.TrimSpace(buf.String())
}

package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs with Word heading styles
// become heading blocks at the style's depth.
type DOCXParser struct{}

func (p *DOCXParser) Name() string { return "docx" }

func (p *DOCXParser) Parse(r io.Reader, filename string) (*block.Document, error) {
	// go-docx reads from an io.ReaderAt, so buffer the archive first.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	parsed, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &block.Document{
		Title:  titleFromFilename(filename),
		Source: filename,
	}

	l := newLayout()
	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			doc.Blocks = append(doc.Blocks, l.heading(text, level))
		} else {
			doc.Blocks = append(doc.Blocks, l.body(text))
		}
	}
	doc.Pages = l.page

	return doc, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	return headingLevelFromStyle(para.Properties.Style.Val)
}

// headingLevelFromStyle parses Word heading style names ("Heading1",
// "heading 2") into a depth 1..6, or 0 for anything else.
func headingLevelFromStyle(style string) int {
	s := strings.ToLower(strings.TrimSpace(style))
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(s, "heading")))
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
)

// TextParser handles plain text files. Blank lines delimit paragraphs;
// each paragraph becomes one block.
type TextParser struct{}

func (p *TextParser) Name() string { return "text" }

func (p *TextParser) Parse(r io.Reader, filename string) (*block.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc := &block.Document{
		Title:  titleFromFilename(filename),
		Source: filename,
	}

	l := newLayout()
	for _, para := range paragraphs {
		doc.Blocks = append(doc.Blocks, l.body(para))
	}
	doc.Pages = l.page

	return doc, nil
}

package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. h1..h6 become heading blocks; paragraph
// level elements become body blocks. Script, style, and chrome elements
// are skipped.
type HTMLParser struct{}

func (p *HTMLParser) Name() string { return "html" }

func (p *HTMLParser) Parse(r io.Reader, filename string) (*block.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &block.Document{
		Title:  titleFromFilename(filename),
		Source: filename,
	}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	l := newLayout()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					doc.Blocks = append(doc.Blocks, l.heading(t, level))
				}
				return // Text already extracted, skip children.
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				if t := textContent(n); t != "" {
					doc.Blocks = append(doc.Blocks, l.body(t))
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Walk <body> when present, the whole document otherwise.
	target := findBody(root)
	if target == nil {
		target = root
	}
	walk(target)

	// Markup without any recognized content elements still yields its text.
	if len(doc.Blocks) == 0 {
		if t := textContent(target); t != "" {
			doc.Blocks = append(doc.Blocks, l.body(t))
		}
	}
	doc.Pages = l.page

	return doc, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

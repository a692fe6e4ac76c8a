package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It walks the positioned text runs so blocks
// keep their real page geometry and typography. When the Go library fails
// it can fall back to pdftotext, which yields text-only blocks with
// synthetic placement.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Name() string { return "pdf" }

// PDF user space has its origin at the bottom-left corner; block geometry
// is top-down. Conversion assumes the nominal letter page height.
const pdfPageHeight = 792.0

func (p *PDFParser) Parse(r io.Reader, filename string) (*block.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "ragprep-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := extractPDFDocument(tmpPath)
	if err != nil && p.FallbackPdftotext {
		doc, err = extractPdftotextDocument(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf: %w", err)
	}

	doc.Source = filename
	if doc.Title == "" {
		doc.Title = titleFromFilename(filename)
	}
	return doc, nil
}

func extractPDFDocument(path string) (doc *block.Document, err error) {
	// The underlying content-stream reader panics on malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc = &block.Document{Pages: reader.NumPage()}
	if t := strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text()); t != "" {
		doc.Title = t
	}

	// Lowercased text per page, used to resolve outline entries to pages.
	pageTexts := make([]string, 0, doc.Pages)

	for i := 1; i <= doc.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pageTexts = append(pageTexts, "")
			continue
		}
		blocks := groupPage(i, buildRows(pageSpans(page)))
		doc.Blocks = append(doc.Blocks, blocks...)

		var sb strings.Builder
		for _, b := range blocks {
			sb.WriteString(b.Content)
			sb.WriteString("\n")
		}
		pageTexts = append(pageTexts, strings.ToLower(sb.String()))
	}

	doc.Bookmarks = outlineBookmarks(reader.Outline(), pageTexts)
	return doc, nil
}

// span is one positioned text run from a page's content stream.
type span struct {
	x, y, w, size float64
	font          string
	text          string
}

func pageSpans(page pdflib.Page) []span {
	content := page.Content()
	spans := make([]span, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		spans = append(spans, span{x: t.X, y: t.Y, w: t.W, size: t.FontSize, font: t.Font, text: t.S})
	}
	return spans
}

// row is one text line: spans sharing a baseline, left to right.
type row struct {
	y    float64
	x0   float64
	x1   float64
	size float64
	font string
	text string
}

const rowTolerance = 2.0

// buildRows merges spans on the same baseline into lines, ordered top of
// page first. Runs separated by a visible horizontal gap get a space.
func buildRows(spans []span) []row {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].y != spans[j].y {
			return spans[i].y > spans[j].y
		}
		return spans[i].x < spans[j].x
	})

	// Group by baseline first. The tolerance is anchored to the group's
	// first span so jitter cannot chain rows together.
	var groups [][]span
	for _, s := range spans {
		if n := len(groups); n > 0 && math.Abs(groups[n-1][0].y-s.y) <= rowTolerance {
			groups[n-1] = append(groups[n-1], s)
			continue
		}
		groups = append(groups, []span{s})
	}

	rows := make([]row, 0, len(groups))
	for _, g := range groups {
		// Jittered baselines sort by y above, so re-order left to right.
		sort.SliceStable(g, func(i, j int) bool { return g[i].x < g[j].x })
		r := row{y: g[0].y, x0: g[0].x, x1: g[0].x + g[0].w, size: g[0].size, font: g[0].font, text: g[0].text}
		for _, s := range g[1:] {
			if s.x-r.x1 > 0.25*r.size && !strings.HasSuffix(r.text, " ") && !strings.HasPrefix(s.text, " ") {
				r.text += " "
			}
			r.text += s.text
			if s.x+s.w > r.x1 {
				r.x1 = s.x + s.w
			}
			if s.size > r.size {
				r.size = s.size
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// groupPage merges adjacent rows into blocks. A font size change or a
// vertical gap wider than the leading starts a new block.
func groupPage(pageNum int, rows []row) []block.TextBlock {
	var out []block.TextBlock
	var cur []row

	flush := func() {
		if len(cur) > 0 {
			out = append(out, rowsToBlock(pageNum, cur))
			cur = nil
		}
	}

	for _, r := range rows {
		if strings.TrimSpace(r.text) == "" {
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			leading := 1.8 * math.Max(prev.size, 1)
			if prev.y-r.y > leading || math.Abs(prev.size-r.size) >= 0.5 {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// rowsToBlock joins the rows of one block with newlines. Typography comes
// from the first row; bold and italic are read off the font name.
func rowsToBlock(pageNum int, rows []row) block.TextBlock {
	first := rows[0]
	last := rows[len(rows)-1]
	font := strings.ToLower(first.font)

	b := block.TextBlock{
		Page:     pageNum,
		X0:       first.x0,
		X1:       first.x1,
		Y0:       pdfPageHeight - first.y - first.size,
		Y1:       pdfPageHeight - last.y,
		FontName: first.font,
		FontSize: first.size,
		Bold:     strings.Contains(font, "bold"),
		Italic:   strings.Contains(font, "italic") || strings.Contains(font, "oblique"),
	}

	texts := make([]string, 0, len(rows))
	for _, r := range rows {
		texts = append(texts, r.text)
		if r.x0 < b.X0 {
			b.X0 = r.x0
		}
		if r.x1 > b.X1 {
			b.X1 = r.x1
		}
	}
	b.Content = strings.Join(texts, "\n")
	return b
}

// outlineBookmarks flattens the document outline. The library exposes no
// destination pages, so each entry resolves to the first page whose text
// contains its title; unresolvable entries are dropped.
func outlineBookmarks(outline pdflib.Outline, pageTexts []string) []block.Bookmark {
	var out []block.Bookmark
	var walk func(o pdflib.Outline, depth int)
	walk = func(o pdflib.Outline, depth int) {
		title := strings.TrimSpace(o.Title)
		if title != "" {
			if page := findTitlePage(title, pageTexts); page > 0 {
				out = append(out, block.Bookmark{Level: depth, Title: title, Page: page})
			}
		}
		for _, c := range o.Child {
			walk(c, depth+1)
		}
	}
	for _, c := range outline.Child {
		walk(c, 0)
	}
	return out
}

func findTitlePage(title string, pageTexts []string) int {
	needle := strings.ToLower(title)
	for i, text := range pageTexts {
		if strings.Contains(text, needle) {
			return i + 1
		}
	}
	return 0
}

func extractPdftotextDocument(path string) (*block.Document, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	doc := &block.Document{}
	l := newLayout()
	for i, page := range strings.Split(string(out), "\f") {
		if i > 0 {
			l.pageBreak()
		}
		for _, para := range plainParagraphs(page) {
			doc.Blocks = append(doc.Blocks, l.body(para))
		}
	}
	doc.Pages = l.page
	return doc, nil
}

// plainParagraphs splits text on blank lines.
func plainParagraphs(text string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

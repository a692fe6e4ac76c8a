package parser

import "github.com/dgallion1/ragprep/internal/block"

// Structured formats carry no page geometry of their own, so the parsers
// synthesize one: blocks flow down a nominal letter page between the
// margins, headings get outsized fonts and clear vertical gaps, and the
// page breaks before the footer band. The downstream heuristics then see
// the same typographic signals a born-digital PDF would give them.
const (
	marginLeft   = 72.0
	marginRight  = 540.0
	topY         = 90.0
	bottomY      = 700.0
	bodyFontSize = 12.0
	bodyGap      = 8.0
	headingGap   = 24.0
)

// layout is the flowing cursor used by the synthetic placement.
type layout struct {
	page        int
	y           float64
	n           int
	lastHeading bool
}

func newLayout() *layout {
	return &layout{page: 1, y: topY}
}

// headingSize maps a heading depth (1..6) to its synthetic font size.
// Depths 1..5 clear the classifier's font-size threshold; depth 6 is left
// to the numbering patterns.
func headingSize(level int) float64 {
	switch level {
	case 1:
		return 24
	case 2:
		return 20
	case 3:
		return 18
	case 4:
		return 16
	case 5:
		return 14
	default:
		return 13
	}
}

// body places a body paragraph at the cursor and advances it.
func (l *layout) body(content string) block.TextBlock {
	return l.place(content, bodyFontSize, false)
}

// pageBreak forces the cursor onto a fresh page. No-op when nothing has
// been placed since the last break.
func (l *layout) pageBreak() {
	if l.n == 0 {
		return
	}
	l.page++
	l.y = topY
	l.n = 0
	l.lastHeading = false
}

// heading places a heading of the given depth at the cursor.
func (l *layout) heading(content string, level int) block.TextBlock {
	return l.place(content, headingSize(level), true)
}

func (l *layout) place(content string, size float64, heading bool) block.TextBlock {
	height := size + 2

	if l.n > 0 {
		gap := bodyGap
		if heading || l.lastHeading {
			gap = headingGap
		}
		l.y += gap
	}
	if l.y+height > bottomY {
		l.page++
		l.y = topY
		l.n = 0
	}

	x1 := marginRight
	font := "Helvetica"
	if heading {
		font = "Helvetica-Bold"
		// Approximate rendered width so headings keep a realistic box.
		w := float64(len(content)) * size * 0.5
		if w > marginRight-marginLeft {
			w = marginRight - marginLeft
		}
		x1 = marginLeft + w
	}

	b := block.TextBlock{
		Content:  content,
		Page:     l.page,
		X0:       marginLeft,
		Y0:       l.y,
		X1:       x1,
		Y1:       l.y + height,
		FontName: font,
		FontSize: size,
		Bold:     heading,
	}
	l.y += height
	l.n++
	l.lastHeading = heading
	return b
}

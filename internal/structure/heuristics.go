package structure

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
)

const (
	// Nominal US-letter page height in points, used for the header and
	// footer bands when the extractor supplies no page dimensions.
	nominalPageHeight = 792.0

	headerFooterBand   = 0.10
	headerFooterMaxLen = 100
	isolationGap       = 20.0
	centeringTolerance = 0.10
)

// FontStats is the per-document layout summary the heuristic pass scores
// against. Built once by a full scan, then read-only.
type FontStats struct {
	// Sizes holds the distinct observed font sizes, ascending, zeros excluded.
	Sizes []float64
	// PageMaxWidth maps page number to the widest block on that page.
	PageMaxWidth map[int]float64
}

// CollectFontStats scans all blocks for the font-size distribution and
// per-page maximum block width.
func CollectFontStats(blocks []block.Structured) FontStats {
	seen := make(map[float64]bool)
	widths := make(map[int]float64)
	for i := range blocks {
		b := &blocks[i].TextBlock
		if b.FontSize > 0 {
			seen[b.FontSize] = true
		}
		if w := b.Width(); w > widths[b.Page] {
			widths[b.Page] = w
		}
	}
	sizes := make([]float64, 0, len(seen))
	for s := range seen {
		sizes = append(sizes, s)
	}
	sort.Float64s(sizes)
	return FontStats{Sizes: sizes, PageMaxWidth: widths}
}

// applyHeuristics runs the layout pass: a statistics scan followed by a
// per-block decision scan. Only blocks still unknown are written.
func (c *Classifier) applyHeuristics(out []block.Structured) {
	stats := CollectFontStats(out)
	for i := range out {
		if out[i].BlockType != block.Unknown {
			continue
		}
		t, level := c.decideBlock(out, i, stats)
		out[i].BlockType = t
		out[i].HierarchyLevel = level
	}
}

// decideBlock classifies a single block against the document statistics.
// Header/footer detection runs first and short-circuits heading scoring.
func (c *Classifier) decideBlock(out []block.Structured, i int, stats FontStats) (block.Type, int) {
	b := &out[i].TextBlock

	if t, ok := headerOrFooter(b); ok {
		return t, 0
	}

	score := c.headingScore(out, i, stats)
	if score < c.cfg.HeadingIsolationThreshold {
		return block.BodyText, 0
	}
	t := headingTypeForSize(b.FontSize, stats.Sizes)
	return t, block.LevelFor(t)
}

// headerOrFooter reports whether the block sits in the top or bottom band
// of the nominal page with short content.
func headerOrFooter(b *block.TextBlock) (block.Type, bool) {
	if len(strings.TrimSpace(b.Content)) >= headerFooterMaxLen {
		return block.Unknown, false
	}
	if b.Y0 < nominalPageHeight*headerFooterBand {
		return block.Header, true
	}
	if b.Y1 > nominalPageHeight*(1-headerFooterBand) {
		return block.Footer, true
	}
	return block.Unknown, false
}

// headingScore computes the fraction of the four layout signals that hold:
// large font, bold, vertical isolation, horizontal centering.
func (c *Classifier) headingScore(out []block.Structured, i int, stats FontStats) float64 {
	b := &out[i].TextBlock
	signals := 0
	if b.FontSize > 0 && b.FontSize >= c.cfg.FontSizeThreshold {
		signals++
	}
	if b.Bold {
		signals++
	}
	if verticallyIsolated(out, i) {
		signals++
	}
	if horizontallyCentered(b, stats.PageMaxWidth[b.Page]) {
		signals++
	}
	return float64(signals) / 4
}

// verticallyIsolated reports whether the block has a >20pt gap to both its
// same-page neighbors in reading order. A missing neighbor (first or last
// block on the page) counts as isolated on that side.
func verticallyIsolated(out []block.Structured, i int) bool {
	b := &out[i].TextBlock

	above := true
	if i > 0 && out[i-1].Page == b.Page {
		above = b.Y0-out[i-1].Y1 > isolationGap
	}
	below := true
	if i+1 < len(out) && out[i+1].Page == b.Page {
		below = out[i+1].Y0-b.Y1 > isolationGap
	}
	return above && below
}

// horizontallyCentered reports whether the block's midpoint lies within 10%
// of the page's observed maximum width midpoint.
func horizontallyCentered(b *block.TextBlock, pageMaxWidth float64) bool {
	if pageMaxWidth <= 0 {
		return false
	}
	return math.Abs(b.MidX()-pageMaxWidth/2) <= pageMaxWidth*centeringTolerance
}

// headingTypeForSize picks the heading depth by the percentile rank of the
// block's font size among the distinct observed sizes: the top 10% of sizes
// are parts, the next 15% chapters, the next 15% sections, the rest
// subsections. Blocks with no font size default to subsection.
func headingTypeForSize(size float64, sizes []float64) block.Type {
	if size <= 0 || len(sizes) == 0 {
		return block.SubsectionHeading
	}
	rank := 0
	for _, s := range sizes {
		if s <= size {
			rank++
		}
	}
	pct := float64(rank) / float64(len(sizes))
	switch {
	case pct > 0.90:
		return block.PartHeading
	case pct > 0.75:
		return block.ChapterHeading
	case pct > 0.60:
		return block.SectionHeading
	default:
		return block.SubsectionHeading
	}
}

package block

import "math"

// Normalize collapses whatever shape an extractor produced into the one
// canonical record the classifier consumes. Missing or nonsense values
// default to the least-heading-like interpretation instead of erroring.
func Normalize(b TextBlock) TextBlock {
	if b.Page < 1 {
		b.Page = 1
	}
	b.X0 = sanitizeCoord(b.X0)
	b.Y0 = sanitizeCoord(b.Y0)
	b.X1 = sanitizeCoord(b.X1)
	b.Y1 = sanitizeCoord(b.Y1)
	if b.X1 < b.X0 {
		b.X0, b.X1 = b.X1, b.X0
	}
	if b.Y1 < b.Y0 {
		b.Y0, b.Y1 = b.Y1, b.Y0
	}
	if b.FontSize < 0 || math.IsNaN(b.FontSize) || math.IsInf(b.FontSize, 0) {
		b.FontSize = 0
	}
	return b
}

func sanitizeCoord(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

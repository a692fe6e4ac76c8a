package cleaner

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
	"golang.org/x/text/unicode/norm"
)

// Nominal US letter page in points. Crop percentages are taken against
// these dimensions, matching the geometry the classifier assumes.
const (
	pageWidth  = 612.0
	pageHeight = 792.0
)

// Config controls which blocks the cleaner removes and how content is
// normalized before chunking.
type Config struct {
	ExcludeSections     []string `json:"exclude_sections" mapstructure:"exclude_sections"`
	ExcludeExactBlocks  []string `json:"exclude_exact_blocks" mapstructure:"exclude_exact_blocks"`
	ExcludePatterns     []string `json:"exclude_patterns" mapstructure:"exclude_patterns"`
	ExcludePages        []int    `json:"exclude_pages" mapstructure:"exclude_pages"`
	CropTopPercent      float64  `json:"crop_top_percent" mapstructure:"crop_top_percent"`
	CropBottomPercent   float64  `json:"crop_bottom_percent" mapstructure:"crop_bottom_percent"`
	CropLeftPercent     float64  `json:"crop_left_percent" mapstructure:"crop_left_percent"`
	CropRightPercent    float64  `json:"crop_right_percent" mapstructure:"crop_right_percent"`
	NormalizeWhitespace bool     `json:"normalize_whitespace" mapstructure:"normalize_whitespace"`
}

// DefaultConfig returns the standard cleaning setup: back-matter sections
// excluded, page-number and rule-line artifacts filtered, the bottom 5% of
// each page cropped, and whitespace normalization on.
func DefaultConfig() Config {
	return Config{
		ExcludeSections:     []string{"Index", "Bibliography", "Appendix", "References"},
		ExcludePatterns:     []string{`[Pp]age \d+`, `^\s*$`, `^\s*-{3,}\s*$`},
		CropBottomPercent:   5.0,
		NormalizeWhitespace: true,
	}
}

// Report summarizes one cleaning run.
type Report struct {
	BlocksIn         int `json:"total_blocks_input"`
	BlocksOut        int `json:"total_blocks_output"`
	CharsIn          int `json:"total_characters_input"`
	CharsOut         int `json:"total_characters_output"`
	RemovedByPage    int `json:"removed_by_page"`
	RemovedBySection int `json:"removed_by_section"`
	RemovedExact     int `json:"removed_exact"`
	RemovedByPattern int `json:"removed_by_pattern"`
	RemovedByCrop    int `json:"removed_by_crop"`
	RemovedEmpty     int `json:"removed_empty"`
}

// Cleaner filters noise blocks out of a classified document and scrubs the
// content of the survivors. It runs after classification so that section
// exclusion can key off heading titles instead of guessing from body text.
type Cleaner struct {
	cfg      Config
	patterns []*regexp.Regexp
	sections []string
	exact    map[string]struct{}
	pages    map[int]struct{}
	log      *slog.Logger
}

// New compiles the configured exclude patterns. Patterns that fail to
// compile are logged and dropped rather than aborting the run.
func New(cfg Config, log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	c := &Cleaner{
		cfg:   cfg,
		exact: make(map[string]struct{}, len(cfg.ExcludeExactBlocks)),
		pages: make(map[int]struct{}, len(cfg.ExcludePages)),
		log:   log,
	}
	for _, p := range cfg.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warn("skipping invalid exclude pattern", "pattern", p, "error", err)
			continue
		}
		c.patterns = append(c.patterns, re)
	}
	for _, s := range cfg.ExcludeSections {
		c.sections = append(c.sections, strings.ToLower(strings.TrimSpace(s)))
	}
	for _, s := range cfg.ExcludeExactBlocks {
		c.exact[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	for _, p := range cfg.ExcludePages {
		c.pages[p] = struct{}{}
	}
	return c
}

// Clean filters the blocks in order and returns the survivors with scrubbed
// content. Classification fields pass through untouched.
//
// Section exclusion is heading-scoped: a heading whose title contains an
// excluded section name starts a skip that consumes every block until the
// next heading of equal or higher rank, which is then itself re-examined.
func (c *Cleaner) Clean(blocks []block.Structured) ([]block.Structured, Report) {
	rep := Report{BlocksIn: len(blocks)}
	out := make([]block.Structured, 0, len(blocks))

	// Hierarchy level of the heading that started the active skip, or -1.
	skipLevel := -1

	for _, b := range blocks {
		rep.CharsIn += len(b.Content)

		if b.BlockType.IsHeading() {
			if skipLevel >= 0 && b.HierarchyLevel <= skipLevel {
				skipLevel = -1
			}
			if skipLevel < 0 && c.excludedHeading(b.Content) {
				skipLevel = b.HierarchyLevel
				c.log.Debug("excluding section", "title", b.Content, "page", b.Page)
			}
		}
		if skipLevel >= 0 {
			rep.RemovedBySection++
			continue
		}

		if _, ok := c.pages[b.Page]; ok {
			rep.RemovedByPage++
			continue
		}
		if _, ok := c.exact[strings.ToLower(strings.TrimSpace(b.Content))]; ok {
			rep.RemovedExact++
			continue
		}
		if c.matchesExcludePattern(b.Content) {
			rep.RemovedByPattern++
			continue
		}
		if c.inCropBand(b.TextBlock) {
			rep.RemovedByCrop++
			continue
		}

		if c.cfg.NormalizeWhitespace {
			b.Content = cleanContent(b.Content)
			if b.Content == "" {
				rep.RemovedEmpty++
				continue
			}
		}

		rep.CharsOut += len(b.Content)
		out = append(out, b)
	}

	rep.BlocksOut = len(out)
	return out, rep
}

// excludedHeading reports whether a heading title names an excluded section.
func (c *Cleaner) excludedHeading(title string) bool {
	title = strings.ToLower(strings.TrimSpace(title))
	for _, s := range c.sections {
		if s != "" && strings.Contains(title, s) {
			return true
		}
	}
	return false
}

func (c *Cleaner) matchesExcludePattern(content string) bool {
	for _, re := range c.patterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// inCropBand reports whether the block lies in one of the enabled crop
// bands. A zero percentage disables that side entirely, so pages wider or
// taller than nominal letter are not silently trimmed.
func (c *Cleaner) inCropBand(b block.TextBlock) bool {
	if c.cfg.CropTopPercent > 0 && b.Y0 < pageHeight*c.cfg.CropTopPercent/100 {
		return true
	}
	if c.cfg.CropBottomPercent > 0 && b.Y1 > pageHeight*(1-c.cfg.CropBottomPercent/100) {
		return true
	}
	if c.cfg.CropLeftPercent > 0 && b.X0 < pageWidth*c.cfg.CropLeftPercent/100 {
		return true
	}
	if c.cfg.CropRightPercent > 0 && b.X1 > pageWidth*(1-c.cfg.CropRightPercent/100) {
		return true
	}
	return false
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	pageArtifact  = regexp.MustCompile(`[Pp]age\s+\d+`)
	digitsOnly    = regexp.MustCompile(`^[\s\p{Nd}]+$`)
)

// cleanContent scrubs one block's text: whitespace runs collapse to single
// spaces, control characters and page-number artifacts are deleted, content
// that is nothing but digits (any script) is blanked, and the result is
// NFC-normalized. Returns "" when nothing survives.
func cleanContent(content string) string {
	content = strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
	content = strings.Map(func(r rune) rune {
		if r < 32 {
			return -1
		}
		return r
	}, content)
	content = pageArtifact.ReplaceAllString(content, "")
	if digitsOnly.MatchString(content) {
		content = ""
	}
	content = norm.NFC.String(content)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
}

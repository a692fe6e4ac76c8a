package structure

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
)

// Config controls which classification passes run and how they score.
type Config struct {
	UseBookmarks              bool     `json:"use_bookmarks" mapstructure:"use_bookmarks"`
	UseHeuristics             bool     `json:"use_heuristics" mapstructure:"use_heuristics"`
	UseRegex                  bool     `json:"use_regex" mapstructure:"use_regex"`
	FontSizeThreshold         float64  `json:"font_size_threshold" mapstructure:"font_size_threshold"`
	HeadingIsolationThreshold float64  `json:"heading_isolation_threshold" mapstructure:"heading_isolation_threshold"`
	PartPatterns              []string `json:"part_patterns" mapstructure:"part_patterns"`
	ChapterPatterns           []string `json:"chapter_patterns" mapstructure:"chapter_patterns"`
	SectionPatterns           []string `json:"section_patterns" mapstructure:"section_patterns"`
	SubsectionPatterns        []string `json:"subsection_patterns" mapstructure:"subsection_patterns"`
}

// DefaultConfig returns the standard classification setup: all three passes
// enabled, 14pt heading threshold, 0.7 isolation score, and the common
// English "Part/Chapter/1.2/1.2.3" numbering patterns.
func DefaultConfig() Config {
	return Config{
		UseBookmarks:              true,
		UseHeuristics:             true,
		UseRegex:                  true,
		FontSizeThreshold:         14.0,
		HeadingIsolationThreshold: 0.7,
		PartPatterns:              []string{`^(?:Part|PART)\s+([IVX]+|[0-9]+)[\s:]*(.*)$`},
		ChapterPatterns:           []string{`^(?:Chapter|CHAPTER)\s+([0-9]+)[\s:]*(.*)$`},
		SectionPatterns:           []string{`^([0-9]+\.[0-9]+)\s+(.*)$`},
		SubsectionPatterns:        []string{`^([0-9]+\.[0-9]+\.[0-9]+)\s+(.*)$`},
	}
}

// Classifier assigns a block type and hierarchy level to every text block
// by fusing up to three signal sources in precedence order: bookmarks,
// layout heuristics, regex patterns. A later pass may only fill slots an
// earlier pass left unknown.
type Classifier struct {
	cfg      Config
	patterns []patternGroup
	log      *slog.Logger
}

// NewClassifier compiles the configured regex patterns. Patterns that fail
// to compile are logged and dropped rather than aborting classification.
func NewClassifier(cfg Config, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		cfg:      cfg,
		patterns: compilePatterns(cfg, log),
		log:      log,
	}
}

// Method names the enabled passes joined by "+", e.g.
// "bookmarks+heuristics+regex". Returns "none" when every pass is disabled.
func (c *Classifier) Method() string {
	var parts []string
	if c.cfg.UseBookmarks {
		parts = append(parts, "bookmarks")
	}
	if c.cfg.UseHeuristics {
		parts = append(parts, "heuristics")
	}
	if c.cfg.UseRegex {
		parts = append(parts, "regex")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Classify runs the enabled passes over the blocks and returns one
// Structured record per input block, in the same order. Any block no pass
// claimed ends up BodyText at level 0.
func (c *Classifier) Classify(blocks []block.TextBlock, bookmarks []block.Bookmark) []block.Structured {
	out := make([]block.Structured, len(blocks))
	for i, b := range blocks {
		out[i] = block.Structured{TextBlock: block.Normalize(b), BlockType: block.Unknown}
	}
	if len(out) == 0 {
		return out
	}

	if c.cfg.UseBookmarks && len(bookmarks) > 0 {
		c.applyBookmarks(out, bookmarks)
	}
	if c.cfg.UseHeuristics {
		c.applyHeuristics(out)
	}
	if c.cfg.UseRegex {
		c.applyRegex(out)
	}

	// Finalization: whatever is still unknown is body text.
	for i := range out {
		if out[i].BlockType == block.Unknown {
			out[i].BlockType = block.BodyText
			out[i].HierarchyLevel = 0
		}
	}
	return out
}

// applyBookmarks classifies blocks from the document outline. Each bookmark
// maps its page to a heading type by outline depth; every still-unknown
// block on a mapped page takes that classification.
func (c *Classifier) applyBookmarks(out []block.Structured, bookmarks []block.Bookmark) {
	pageType := make(map[int]block.Type, len(bookmarks))
	for _, bm := range bookmarks {
		pageType[bm.Page] = bookmarkType(bm.Level)
	}
	for i := range out {
		if out[i].BlockType != block.Unknown {
			continue
		}
		if t, ok := pageType[out[i].Page]; ok {
			out[i].BlockType = t
			out[i].HierarchyLevel = block.LevelFor(t)
		}
	}
}

// bookmarkType maps outline depth to a heading type: 0 part, 1 chapter,
// 2 section, everything deeper a subsection.
func bookmarkType(level int) block.Type {
	switch {
	case level <= 0:
		return block.PartHeading
	case level == 1:
		return block.ChapterHeading
	case level == 2:
		return block.SectionHeading
	default:
		return block.SubsectionHeading
	}
}

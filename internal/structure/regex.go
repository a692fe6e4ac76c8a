package structure

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/ragprep/internal/block"
)

// patternGroup holds the compiled patterns for one heading depth.
type patternGroup struct {
	typ block.Type
	res []*regexp.Regexp
}

// compilePatterns compiles the per-level pattern lists in precedence order
// (part, chapter, section, subsection). A pattern that fails to compile is
// logged and skipped; classification continues without it.
func compilePatterns(cfg Config, log *slog.Logger) []patternGroup {
	groups := []struct {
		typ      block.Type
		patterns []string
	}{
		{block.PartHeading, cfg.PartPatterns},
		{block.ChapterHeading, cfg.ChapterPatterns},
		{block.SectionHeading, cfg.SectionPatterns},
		{block.SubsectionHeading, cfg.SubsectionPatterns},
	}

	out := make([]patternGroup, 0, len(groups))
	for _, g := range groups {
		pg := patternGroup{typ: g.typ}
		for _, p := range g.patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				log.Warn("skipping invalid heading pattern", "pattern", p, "level", g.typ.String(), "error", err)
				continue
			}
			pg.res = append(pg.res, re)
		}
		out = append(out, pg)
	}
	return out
}

// applyRegex classifies remaining unknown blocks by pattern matching.
// Groups are tested part first, subsection last; the first match wins.
// Blocks matching nothing become body text.
func (c *Classifier) applyRegex(out []block.Structured) {
	for i := range out {
		if out[i].BlockType != block.Unknown {
			continue
		}
		t := c.matchHeading(out[i].Content)
		out[i].BlockType = t
		out[i].HierarchyLevel = block.LevelFor(t)
	}
}

func (c *Classifier) matchHeading(text string) block.Type {
	text = strings.TrimSpace(text)
	if text == "" {
		return block.BodyText
	}
	for _, g := range c.patterns {
		for _, re := range g.res {
			if re.MatchString(text) {
				return g.typ
			}
		}
	}
	return block.BodyText
}

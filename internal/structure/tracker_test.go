package structure

import (
	"testing"

	"github.com/dgallion1/ragprep/internal/block"
)

func classified(content string, typ block.Type, page int) block.Structured {
	return block.Structured{
		TextBlock:      block.TextBlock{Content: content, Page: page},
		BlockType:      typ,
		HierarchyLevel: block.LevelFor(typ),
	}
}

func TestTrack_ParentHeadingFallbackChain(t *testing.T) {
	blocks := []block.Structured{
		classified("Part I", block.PartHeading, 1),
		classified("intro text", block.BodyText, 1),
		classified("Chapter 1", block.ChapterHeading, 2),
		classified("chapter text", block.BodyText, 2),
		classified("1.1 Basics", block.SectionHeading, 3),
		classified("section text", block.BodyText, 3),
	}

	out, _, _ := Track(blocks)
	if got := out[1].ParentHeading; got != "Part I" {
		t.Errorf("expected body under part to parent to it, got %q", got)
	}
	if got := out[3].ParentHeading; got != "Chapter 1" {
		t.Errorf("expected body under chapter to parent to it, got %q", got)
	}
	if got := out[5].ParentHeading; got != "1.1 Basics" {
		t.Errorf("expected body under section to parent to it, got %q", got)
	}
}

func TestTrack_NoHeadingMeansNoParent(t *testing.T) {
	blocks := []block.Structured{
		classified("orphan text", block.BodyText, 1),
	}
	out, _, _ := Track(blocks)
	if out[0].ParentHeading != "" {
		t.Errorf("expected no parent before any heading, got %q", out[0].ParentHeading)
	}
}

func TestTrack_ChapterClearsSection(t *testing.T) {
	blocks := []block.Structured{
		classified("Chapter 1", block.ChapterHeading, 1),
		classified("1.1 Detail", block.SectionHeading, 1),
		classified("in section", block.BodyText, 1),
		classified("Chapter 2", block.ChapterHeading, 2),
		classified("in new chapter", block.BodyText, 2),
	}
	out, _, _ := Track(blocks)
	if got := out[2].ParentHeading; got != "1.1 Detail" {
		t.Errorf("expected section parent, got %q", got)
	}
	if got := out[4].ParentHeading; got != "Chapter 2" {
		t.Errorf("expected stale section cleared by new chapter, got %q", got)
	}
	if out[4].Section != "" {
		t.Errorf("expected empty section provenance after chapter change, got %q", out[4].Section)
	}
}

func TestTrack_PartClearsChapterAndSection(t *testing.T) {
	blocks := []block.Structured{
		classified("Chapter 1", block.ChapterHeading, 1),
		classified("1.1 Detail", block.SectionHeading, 1),
		classified("Part II", block.PartHeading, 2),
		classified("after part", block.BodyText, 2),
	}
	out, _, _ := Track(blocks)
	if got := out[3].ParentHeading; got != "Part II" {
		t.Errorf("expected part to clear chapter and section, got parent %q", got)
	}
	if out[3].Chapter != "" || out[3].Section != "" {
		t.Errorf("expected empty provenance after part reset, got chapter %q section %q",
			out[3].Chapter, out[3].Section)
	}
	if out[3].Part != "Part II" {
		t.Errorf("expected part provenance %q, got %q", "Part II", out[3].Part)
	}
}

func TestTrack_ProvenanceSnapshots(t *testing.T) {
	blocks := []block.Structured{
		classified("Part I", block.PartHeading, 1),
		classified("Chapter 1", block.ChapterHeading, 1),
		classified("1.1 Detail", block.SectionHeading, 1),
		classified("body here", block.BodyText, 1),
	}
	out, _, _ := Track(blocks)
	if out[3].Part != "Part I" || out[3].Chapter != "Chapter 1" || out[3].Section != "1.1 Detail" {
		t.Errorf("expected part, chapter and section provenance, got %q / %q / %q",
			out[3].Part, out[3].Chapter, out[3].Section)
	}
	// The section heading itself belongs to its own section and chapter.
	if out[2].Chapter != "Chapter 1" || out[2].Section != "1.1 Detail" {
		t.Errorf("expected section heading provenance, got %q / %q",
			out[2].Chapter, out[2].Section)
	}
	// Headings carry the enclosing part as well.
	if out[1].Part != "Part I" || out[2].Part != "Part I" {
		t.Errorf("expected headings to carry the enclosing part, got %q / %q",
			out[1].Part, out[2].Part)
	}
}

func TestTrack_TreeShape(t *testing.T) {
	blocks := []block.Structured{
		classified("Part I", block.PartHeading, 1),
		classified("Chapter 1", block.ChapterHeading, 2),
		classified("1.1 One", block.SectionHeading, 3),
		classified("1.1.1 Deep", block.SubsectionHeading, 3),
		classified("1.2 Two", block.SectionHeading, 4),
		classified("Chapter 2", block.ChapterHeading, 5),
	}
	_, roots, _ := Track(blocks)
	if len(roots) != 1 {
		t.Fatalf("expected single part root, got %d", len(roots))
	}
	part := roots[0]
	if part.Title != "Part I" || len(part.Children) != 2 {
		t.Fatalf("expected part with two chapters, got %q with %d children",
			part.Title, len(part.Children))
	}
	ch1 := part.Children[0]
	if len(ch1.Children) != 2 {
		t.Fatalf("expected chapter 1 with two sections, got %d", len(ch1.Children))
	}
	if len(ch1.Children[0].Children) != 1 {
		t.Errorf("expected subsection under section 1.1, got %d children",
			len(ch1.Children[0].Children))
	}
	if ch1.Children[1].Title != "1.2 Two" {
		t.Errorf("expected second section 1.2 Two, got %q", ch1.Children[1].Title)
	}
}

func TestTrack_SectionWithoutChapterGetsImplicitNode(t *testing.T) {
	blocks := []block.Structured{
		classified("Part I", block.PartHeading, 1),
		classified("1.1 Stray", block.SectionHeading, 2),
		classified("1.2 Another", block.SectionHeading, 3),
	}
	_, roots, _ := Track(blocks)
	part := roots[0]
	if len(part.Children) != 1 {
		t.Fatalf("expected one implicit chapter under the part, got %d", len(part.Children))
	}
	implicit := part.Children[0]
	if implicit.Title != UnnamedChapter {
		t.Errorf("expected implicit chapter title %q, got %q", UnnamedChapter, implicit.Title)
	}
	if len(implicit.Children) != 2 {
		t.Errorf("expected both stray sections under the implicit chapter, got %d",
			len(implicit.Children))
	}
}

func TestTrack_HeadingWithoutPartAtRoot(t *testing.T) {
	blocks := []block.Structured{
		classified("Chapter 1", block.ChapterHeading, 1),
		classified("1.1 One", block.SectionHeading, 2),
	}
	_, roots, _ := Track(blocks)
	if len(roots) != 1 {
		t.Fatalf("expected chapter at root, got %d roots", len(roots))
	}
	if roots[0].Title != "Chapter 1" {
		t.Errorf("expected root chapter, got %q", roots[0].Title)
	}
}

func TestTrack_SectionLevelAlwaysBelowChapter(t *testing.T) {
	blocks := []block.Structured{
		classified("Chapter 1", block.ChapterHeading, 1),
		classified("1.1 One", block.SectionHeading, 1),
		classified("Chapter 2", block.ChapterHeading, 2),
		classified("2.1 Two", block.SectionHeading, 2),
	}
	out, _, _ := Track(blocks)
	var lastChapterLevel int
	for _, b := range out {
		switch b.BlockType {
		case block.ChapterHeading:
			lastChapterLevel = b.HierarchyLevel
		case block.SectionHeading:
			if b.HierarchyLevel < lastChapterLevel {
				t.Errorf("section level %d above preceding chapter level %d",
					b.HierarchyLevel, lastChapterLevel)
			}
		}
	}
}

func TestTrack_HeaderFooterGetProvenance(t *testing.T) {
	blocks := []block.Structured{
		classified("Chapter 1", block.ChapterHeading, 1),
		classified("Running Head", block.Header, 1),
		classified("3", block.Footer, 1),
	}
	out, _, meta := Track(blocks)
	if out[1].ParentHeading != "Chapter 1" || out[2].ParentHeading != "Chapter 1" {
		t.Errorf("expected header and footer to parent to the chapter, got %q / %q",
			out[1].ParentHeading, out[2].ParentHeading)
	}
	if meta.HeadersFound != 1 || meta.FootersFound != 1 {
		t.Errorf("expected header/footer counts 1/1, got %d/%d",
			meta.HeadersFound, meta.FootersFound)
	}
}

func TestTrack_MetadataCounts(t *testing.T) {
	blocks := []block.Structured{
		classified("Part I", block.PartHeading, 1),
		classified("Chapter 1", block.ChapterHeading, 1),
		classified("1.1 One", block.SectionHeading, 1),
		classified("1.1.1 Deep", block.SubsectionHeading, 1),
		classified("text a", block.BodyText, 1),
		classified("text b", block.BodyText, 2),
	}
	_, _, meta := Track(blocks)
	if meta.PartsFound != 1 || meta.ChaptersFound != 1 || meta.SectionsFound != 1 || meta.SubsectionsFound != 1 {
		t.Errorf("unexpected heading counts: %+v", meta)
	}
	if meta.BodyBlocks != 2 {
		t.Errorf("expected 2 body blocks, got %d", meta.BodyBlocks)
	}
}

func TestTrack_EmptyInput(t *testing.T) {
	out, roots, meta := Track(nil)
	if len(out) != 0 || len(roots) != 0 {
		t.Error("expected empty outputs for empty input")
	}
	if meta.BodyBlocks != 0 {
		t.Errorf("expected zeroed metadata, got %+v", meta)
	}
}

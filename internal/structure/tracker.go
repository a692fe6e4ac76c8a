package structure

import "github.com/dgallion1/ragprep/internal/block"

// UnnamedChapter titles the implicit node created when a section appears
// before any chapter heading.
const UnnamedChapter = "Unnamed Chapter"

// Node is one entry in the document hierarchy tree. Children are owned by
// their parent; the tree carries no back-references.
type Node struct {
	Type     block.Type `json:"type"`
	Title    string     `json:"title"`
	Page     int        `json:"page"`
	Children []*Node    `json:"children,omitempty"`
}

// Metadata summarizes a structure pass for reporting.
type Metadata struct {
	PartsFound       int    `json:"parts_found"`
	ChaptersFound    int    `json:"chapters_found"`
	SectionsFound    int    `json:"sections_found"`
	SubsectionsFound int    `json:"subsections_found"`
	HeadersFound     int    `json:"headers_found"`
	FootersFound     int    `json:"footers_found"`
	BodyBlocks       int    `json:"body_blocks"`
	StructureMethod  string `json:"structure_method"`
}

// Track walks classified blocks in reading order, fills in parent heading
// and chapter/section provenance, and builds the hierarchy tree. The input
// slice is annotated in place and returned together with the tree roots.
func Track(blocks []block.Structured) ([]block.Structured, []*Node, Metadata) {
	var (
		roots []*Node
		meta  Metadata

		currentPart    string
		currentChapter string
		currentSection string

		partNode     *Node
		chapterNode  *Node
		sectionNode  *Node
		implicitNode *Node
	)

	// attach places a heading node under its natural parent, or at the
	// tree root when nothing encloses it.
	attach := func(n *Node, parent *Node) *Node {
		if parent != nil {
			parent.Children = append(parent.Children, n)
		} else {
			roots = append(roots, n)
		}
		return n
	}

	for i := range blocks {
		b := &blocks[i]
		title := b.Content

		switch b.BlockType {
		case block.PartHeading:
			meta.PartsFound++
			currentPart = title
			currentChapter = ""
			currentSection = ""
			partNode = attach(&Node{Type: b.BlockType, Title: title, Page: b.Page}, nil)
			chapterNode, sectionNode, implicitNode = nil, nil, nil
			b.Part = title

		case block.ChapterHeading:
			meta.ChaptersFound++
			currentChapter = title
			currentSection = ""
			chapterNode = attach(&Node{Type: b.BlockType, Title: title, Page: b.Page}, partNode)
			sectionNode, implicitNode = nil, nil
			b.Part = currentPart
			b.Chapter = title

		case block.SectionHeading:
			meta.SectionsFound++
			currentSection = title
			parent := chapterNode
			if parent == nil {
				// No chapter is open: sections hang off an implicit
				// chapter, created once per part scope.
				if implicitNode == nil {
					implicitNode = attach(&Node{Type: block.ChapterHeading, Title: UnnamedChapter}, partNode)
				}
				parent = implicitNode
			}
			sectionNode = attach(&Node{Type: b.BlockType, Title: title, Page: b.Page}, parent)
			b.Part = currentPart
			b.Chapter = currentChapter
			b.Section = title

		case block.SubsectionHeading:
			meta.SubsectionsFound++
			parent := sectionNode
			if parent == nil {
				parent = chapterNode
			}
			if parent == nil {
				parent = implicitNode
			}
			if parent == nil {
				parent = partNode
			}
			attach(&Node{Type: b.BlockType, Title: title, Page: b.Page}, parent)
			b.Part = currentPart
			b.Chapter = currentChapter
			b.Section = currentSection

		default:
			switch b.BlockType {
			case block.Header:
				meta.HeadersFound++
			case block.Footer:
				meta.FootersFound++
			default:
				meta.BodyBlocks++
			}
			switch {
			case currentSection != "":
				b.ParentHeading = currentSection
			case currentChapter != "":
				b.ParentHeading = currentChapter
			case currentPart != "":
				b.ParentHeading = currentPart
			}
			b.Part = currentPart
			b.Chapter = currentChapter
			b.Section = currentSection
		}
	}

	return blocks, roots, meta
}

package block

import "fmt"

// Type classifies a block's structural role in the document.
type Type int

const (
	Unknown Type = iota
	PartHeading
	ChapterHeading
	SectionHeading
	SubsectionHeading
	BodyText
	Header
	Footer
)

var typeNames = map[Type]string{
	Unknown:           "unknown",
	PartHeading:       "part_heading",
	ChapterHeading:    "chapter_heading",
	SectionHeading:    "section_heading",
	SubsectionHeading: "subsection_heading",
	BodyText:          "body_text",
	Header:            "header",
	Footer:            "footer",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalText makes Type render as its name in JSON output.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a type name back into its Type value.
func (t *Type) UnmarshalText(text []byte) error {
	name := string(text)
	for typ, n := range typeNames {
		if n == name {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown block type %q", name)
}

// IsHeading reports whether the type is one of the four heading kinds.
func (t Type) IsHeading() bool {
	switch t {
	case PartHeading, ChapterHeading, SectionHeading, SubsectionHeading:
		return true
	}
	return false
}

// LevelFor returns the fixed hierarchy depth for a block type:
// part 0, chapter 1, section 2, subsection 3. Non-headings are 0.
func LevelFor(t Type) int {
	switch t {
	case PartHeading:
		return 0
	case ChapterHeading:
		return 1
	case SectionHeading:
		return 2
	case SubsectionHeading:
		return 3
	}
	return 0
}

// TextBlock is one positioned text fragment extracted from a source document.
// Coordinates are top-down page points (y grows toward the page bottom).
// FontSize 0 means the extractor did not know the size.
type TextBlock struct {
	Content  string  `json:"content"`
	Page     int     `json:"page"`
	X0       float64 `json:"x0"`
	Y0       float64 `json:"y0"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	FontName string  `json:"font_name,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	Italic   bool    `json:"italic,omitempty"`
}

// Width returns the horizontal extent of the block.
func (b TextBlock) Width() float64 {
	return b.X1 - b.X0
}

// MidX returns the horizontal midpoint of the block.
func (b TextBlock) MidX() float64 {
	return (b.X0 + b.X1) / 2
}

// Bookmark is one entry from a document outline: level 0 is a part,
// 1 a chapter, 2 a section, 3 and deeper a subsection.
type Bookmark struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	Page  int    `json:"page"`
}

// Structured is a TextBlock with its classification attached.
// HierarchyLevel is 0 for everything that is not a heading. Part, Chapter
// and Section snapshot the enclosing headings at this point in reading
// order so downstream chunking can carry provenance.
type Structured struct {
	TextBlock
	BlockType      Type   `json:"block_type"`
	HierarchyLevel int    `json:"hierarchy_level"`
	ParentHeading  string `json:"parent_heading,omitempty"`
	Part           string `json:"part,omitempty"`
	Chapter        string `json:"chapter,omitempty"`
	Section        string `json:"section,omitempty"`
}

// Document is the extraction result for one source file.
type Document struct {
	Title     string      `json:"title"`
	Source    string      `json:"source"`
	Pages     int         `json:"pages"`
	Blocks    []TextBlock `json:"blocks"`
	Bookmarks []Bookmark  `json:"bookmarks,omitempty"`
}

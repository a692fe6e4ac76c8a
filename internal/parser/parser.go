package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/ragprep/internal/block"
)

// ErrUnsupportedFormat is returned by ForFile for extensions no parser
// handles.
var ErrUnsupportedFormat = errors.New("unsupported file extension")

// Parser converts raw document bytes into positioned text blocks.
type Parser interface {
	Name() string
	Parse(r io.Reader, filename string) (*block.Document, error)
}

// SupportedExtensions lists file extensions this pipeline can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Report summarizes one extraction run.
type Report struct {
	SourceFile      string    `json:"source_file"`
	Parser          string    `json:"parser"`
	Title           string    `json:"title,omitempty"`
	TotalPages      int       `json:"total_pages"`
	TotalBlocks     int       `json:"total_blocks"`
	TotalCharacters int       `json:"total_characters"`
	HasBookmarks    bool      `json:"has_bookmarks"`
	TotalBookmarks  int       `json:"total_bookmarks"`
	ExtractedAt     time.Time `json:"extracted_at"`
}

// Summarize builds the extraction report for a parsed document.
func Summarize(doc *block.Document, parserName string) Report {
	rep := Report{
		SourceFile:     doc.Source,
		Parser:         parserName,
		Title:          doc.Title,
		TotalPages:     doc.Pages,
		TotalBlocks:    len(doc.Blocks),
		HasBookmarks:   len(doc.Bookmarks) > 0,
		TotalBookmarks: len(doc.Bookmarks),
		ExtractedAt:    time.Now().UTC(),
	}
	for _, b := range doc.Blocks {
		rep.TotalCharacters += len(b.Content)
	}
	return rep
}

// titleFromFilename strips the directory and extension from a filename.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

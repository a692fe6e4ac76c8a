package organizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/ragprep/internal/block"
	"github.com/dgallion1/ragprep/internal/chunker"
	"github.com/dgallion1/ragprep/internal/cleaner"
	"github.com/dgallion1/ragprep/internal/parser"
	"github.com/dgallion1/ragprep/internal/structure"
)

func chunk(id int, content string, page int, part, chapter string) chunker.Chunk {
	return chunker.Chunk{
		ID:          id,
		Content:     content,
		Page:        page,
		Part:        part,
		Chapter:     chapter,
		CharCount:   len(content),
		WordCount:   len(strings.Fields(content)),
		SplitMethod: chunker.MethodWholeBlock,
	}
}

func TestOrganize_WritesChunkFilesByPartAndChapter(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source: "book.pdf",
		Chunks: []chunker.Chunk{
			chunk(1, "First chunk text.", 1, "Part I", "Chapter 1"),
			chunk(2, "Second chunk body.", 2, "Part I", "Chapter 1"),
		},
	}

	rep, err := o.Organize(dir, out)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "chunks", "Part_I", "Chapter_1", "chunk_0001.txt"))
	if err != nil {
		t.Fatalf("read chunk file: %v", err)
	}
	if string(data) != "First chunk text." {
		t.Errorf("chunk file content = %q", data)
	}
	if rep.ChunksSaved != 2 {
		t.Errorf("ChunksSaved = %d, want 2", rep.ChunksSaved)
	}
	if rep.TotalParts != 1 || rep.TotalChapters != 1 {
		t.Errorf("parts/chapters = %d/%d, want 1/1", rep.TotalParts, rep.TotalChapters)
	}
	if got := rep.ChunksByChapter["Chapter 1"]; got != 2 {
		t.Errorf("ChunksByChapter = %d, want 2", got)
	}
}

func TestOrganize_FlatWithoutProvenance(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source: "notes.txt",
		Chunks: []chunker.Chunk{chunk(1, "Loose text.", 1, "", "")},
	}

	if _, err := o.Organize(dir, out); err != nil {
		t.Fatalf("organize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "chunks", "chunk_0001.txt")); err != nil {
		t.Errorf("expected flat chunk file: %v", err)
	}
}

func TestOrganize_ChapterWithoutPart(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source: "guide.md",
		Chunks: []chunker.Chunk{chunk(1, "Body.", 1, "", "Getting Started")},
	}

	if _, err := o.Organize(dir, out); err != nil {
		t.Fatalf("organize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "chunks", "Getting_Started", "chunk_0001.txt")); err != nil {
		t.Errorf("expected chapter folder without a part level: %v", err)
	}
}

func TestOrganize_PreserveStructureDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreserveStructure = false
	o := New(cfg, nil)
	dir := t.TempDir()
	out := &Output{
		Source: "book.pdf",
		Chunks: []chunker.Chunk{chunk(1, "Text.", 1, "Part I", "Chapter 1")},
	}

	if _, err := o.Organize(dir, out); err != nil {
		t.Fatalf("organize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "chunks", "chunk_0001.txt")); err != nil {
		t.Errorf("expected flat layout: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "chunks", "Part_I")); !os.IsNotExist(err) {
		t.Errorf("expected no part folder, stat err = %v", err)
	}
}

func TestOrganize_IndexFile(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source: "book.pdf",
		Tree: []*structure.Node{{
			Type: block.PartHeading, Title: "Part I", Page: 1,
			Children: []*structure.Node{{Type: block.ChapterHeading, Title: "Chapter 1", Page: 1}},
		}},
		Chunks: []chunker.Chunk{
			chunk(1, "Alpha.", 1, "Part I", "Chapter 1"),
			chunk(2, "Beta.", 3, "Part I", "Chapter 2"),
		},
	}

	rep, err := o.Organize(dir, out)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if rep.IndexFile != filepath.Join(dir, "index.json") {
		t.Errorf("IndexFile = %q", rep.IndexFile)
	}

	data, err := os.ReadFile(rep.IndexFile)
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		t.Fatalf("unmarshal index: %v", err)
	}

	if idx.TotalChunks != 2 || idx.TotalCharacters != 11 {
		t.Errorf("totals = %d chunks %d chars, want 2/11", idx.TotalChunks, idx.TotalCharacters)
	}
	if idx.TotalParts != 1 || idx.TotalChapters != 2 {
		t.Errorf("parts/chapters = %d/%d, want 1/2", idx.TotalParts, idx.TotalChapters)
	}
	if len(idx.Structure) != 1 || idx.Structure[0].Part != "Part I" {
		t.Fatalf("structure = %+v", idx.Structure)
	}
	chs := idx.Structure[0].Chapters
	if len(chs) != 2 || chs[0].Name != "Chapter 1" || chs[0].Path != "chunks/Part_I/Chapter_1" {
		t.Errorf("chapters = %+v", chs)
	}
	if len(idx.Chunks) != 2 || idx.Chunks[1].File != "chunks/Part_I/Chapter_2/chunk_0002.txt" {
		t.Errorf("chunk entries = %+v", idx.Chunks)
	}
	if len(idx.Tree) != 1 || idx.Tree[0].Type != block.PartHeading || len(idx.Tree[0].Children) != 1 {
		t.Errorf("tree did not round trip: %+v", idx.Tree)
	}
}

func TestOrganize_MetadataFiles(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source: "book.pdf",
		Title:  "Book",
		Extraction: parser.Report{
			SourceFile: "book.pdf", Parser: "pdf",
			TotalPages: 10, TotalBlocks: 42, TotalCharacters: 1234,
		},
		Chunks: []chunker.Chunk{
			chunk(1, "One.", 2, "Part I", "Chapter 1"),
			chunk(2, "Two.", 1, "Part I", "Chapter 1"),
			chunk(3, "Three.", 2, "Part I", "Chapter 1"),
		},
	}

	if _, err := o.Organize(dir, out); err != nil {
		t.Fatalf("organize: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var meta runMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	if meta.RunID != out.RunID || meta.Source != "book.pdf" || meta.Title != "Book" {
		t.Errorf("metadata header = %+v", meta)
	}
	if meta.Extraction.TotalBlocks != 42 {
		t.Errorf("extraction report not carried, got %+v", meta.Extraction)
	}

	data, err = os.ReadFile(filepath.Join(dir, "chunks", "Part_I", "Chapter_1", "metadata.json"))
	if err != nil {
		t.Fatalf("read chapter metadata: %v", err)
	}
	var cm chapterMetadata
	if err := json.Unmarshal(data, &cm); err != nil {
		t.Fatalf("unmarshal chapter metadata: %v", err)
	}
	if cm.Part != "Part I" || cm.Chapter != "Chapter 1" {
		t.Errorf("chapter metadata identity = %+v", cm)
	}
	if cm.TotalChunks != 3 || cm.TotalCharacters != 14 {
		t.Errorf("chapter totals = %d chunks %d chars, want 3/14", cm.TotalChunks, cm.TotalCharacters)
	}
	if len(cm.SourcePages) != 2 || cm.SourcePages[0] != 1 || cm.SourcePages[1] != 2 {
		t.Errorf("source pages = %v, want [1 2]", cm.SourcePages)
	}
}

func TestOrganize_PhaseReports(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source:   "book.pdf",
		Cleaning: cleaner.Report{BlocksIn: 5, BlocksOut: 4},
		Chunks: []chunker.Chunk{
			chunk(1, "Alpha.", 1, "", ""),
			chunk(2, "Beta.", 1, "", ""),
		},
	}

	if _, err := o.Organize(dir, out); err != nil {
		t.Fatalf("organize: %v", err)
	}

	for _, name := range []string{
		"extraction_report.json",
		"structure_report.json",
		"cleaning_report.json",
		"chunking_report.json",
		"organization_report.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, "reports", name)); err != nil {
			t.Errorf("missing report %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "reports", "cleaning_report.json"))
	if err != nil {
		t.Fatalf("read cleaning report: %v", err)
	}
	var cr cleaner.Report
	if err := json.Unmarshal(data, &cr); err != nil {
		t.Fatalf("unmarshal cleaning report: %v", err)
	}
	if cr.BlocksIn != 5 || cr.BlocksOut != 4 {
		t.Errorf("cleaning report = %+v", cr)
	}

	data, err = os.ReadFile(filepath.Join(dir, "chunks.json"))
	if err != nil {
		t.Fatalf("read chunks.json: %v", err)
	}
	var chunks []chunker.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		t.Fatalf("unmarshal chunks.json: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Content != "Alpha." {
		t.Errorf("chunks.json = %+v", chunks)
	}
}

func TestOrganize_ConfigEcho(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source: "book.pdf",
		Config: map[string]any{"max_chunk_size": 800},
	}

	if _, err := o.Organize(dir, out); err != nil {
		t.Fatalf("organize: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config_used.json"))
	if err != nil {
		t.Fatalf("read config_used.json: %v", err)
	}
	if !strings.Contains(string(data), "max_chunk_size") {
		t.Errorf("config echo missing key: %s", data)
	}

	dir2 := t.TempDir()
	if _, err := o.Organize(dir2, &Output{Source: "book.pdf"}); err != nil {
		t.Fatalf("organize without config: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir2, "config_used.json")); !os.IsNotExist(err) {
		t.Errorf("expected no config echo, stat err = %v", err)
	}
}

func TestOrganize_AssignsRunID(t *testing.T) {
	o := New(DefaultConfig(), nil)

	out := &Output{Source: "a.txt"}
	if _, err := o.Organize(t.TempDir(), out); err != nil {
		t.Fatalf("organize: %v", err)
	}
	if len(out.RunID) != 36 || strings.Count(out.RunID, "-") != 4 {
		t.Errorf("expected a UUID run id, got %q", out.RunID)
	}

	preset := &Output{RunID: "fixed-id", Source: "a.txt"}
	if _, err := o.Organize(t.TempDir(), preset); err != nil {
		t.Fatalf("organize: %v", err)
	}
	if preset.RunID != "fixed-id" {
		t.Errorf("preset run id overwritten: %q", preset.RunID)
	}
}

func TestOrganize_CreateFlagsOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CreateMetadata = false
	cfg.CreateIndex = false
	o := New(cfg, nil)
	dir := t.TempDir()
	out := &Output{
		Source: "book.pdf",
		Chunks: []chunker.Chunk{chunk(1, "Text.", 1, "Part I", "Chapter 1")},
	}

	rep, err := o.Organize(dir, out)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "metadata.json")); !os.IsNotExist(err) {
		t.Errorf("expected no metadata.json, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.json")); !os.IsNotExist(err) {
		t.Errorf("expected no index.json, stat err = %v", err)
	}
	if rep.IndexFile != "" {
		t.Errorf("IndexFile = %q, want empty", rep.IndexFile)
	}
	if _, err := os.Stat(filepath.Join(dir, "chunks", "Part_I", "Chapter_1", "chunk_0001.txt")); err != nil {
		t.Errorf("chunk file should still be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "reports", "extraction_report.json")); err != nil {
		t.Errorf("phase reports should still be written: %v", err)
	}
}

func TestOrganize_ReportCounts(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()
	out := &Output{
		Source: "book.pdf",
		Chunks: []chunker.Chunk{
			chunk(1, "First chunk text.", 1, "Part I", "Chapter 1"),
			chunk(2, "Second chunk body.", 2, "Part I", "Chapter 1"),
		},
	}

	rep, err := o.Organize(dir, out)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}

	// 2 chunk files, chapter metadata, root metadata, index, 4 phase
	// reports, chunks.json and the organization report snapshot.
	if rep.FilesWritten != 11 {
		t.Errorf("FilesWritten = %d, want 11", rep.FilesWritten)
	}
	// Output root, the one chapter folder and reports/.
	if rep.DirsCreated != 3 {
		t.Errorf("DirsCreated = %d, want 3", rep.DirsCreated)
	}
	if rep.BytesWritten <= 0 {
		t.Errorf("BytesWritten = %d, want > 0", rep.BytesWritten)
	}
}

func TestOrganize_NoChunks(t *testing.T) {
	o := New(DefaultConfig(), nil)
	dir := t.TempDir()

	rep, err := o.Organize(dir, &Output{Source: "empty.txt"})
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if rep.ChunksSaved != 0 {
		t.Errorf("ChunksSaved = %d, want 0", rep.ChunksSaved)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.json")); err != nil {
		t.Errorf("index should exist even with no chunks: %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Chapter 1: The Start", "Chapter_1_The_Start"},
		{"1.1 Basics", "1.1_Basics"},
		{"Unnamed Chapter", "Unnamed_Chapter"},
		{"Résumé", "Résumé"},
		{"a__b", "a_b"},
		{"a:b", "a_b"},
		{"   ", "Uncategorized"},
		{"...", "Uncategorized"},
		{"", "Uncategorized"},
	}
	for _, tc := range cases {
		if got := sanitizeName(tc.in); got != tc.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := sanitizeName(strings.Repeat("x", 200))
	if len(long) != maxNameLen {
		t.Errorf("long name capped to %d, want %d", len(long), maxNameLen)
	}
}

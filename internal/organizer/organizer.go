package organizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dgallion1/ragprep/internal/chunker"
	"github.com/dgallion1/ragprep/internal/cleaner"
	"github.com/dgallion1/ragprep/internal/parser"
	"github.com/dgallion1/ragprep/internal/structure"
	"github.com/google/uuid"
)

const (
	chunksDir  = "chunks"
	reportsDir = "reports"

	// Sanitized folder names are capped at this many runes.
	maxNameLen = 80
)

// Config controls which artifacts the output phase writes.
type Config struct {
	CreateMetadata    bool `json:"create_metadata" mapstructure:"create_metadata"`
	CreateIndex       bool `json:"create_index" mapstructure:"create_index"`
	PreserveStructure bool `json:"preserve_structure" mapstructure:"preserve_structure"`
}

// DefaultConfig enables every artifact.
func DefaultConfig() Config {
	return Config{
		CreateMetadata:    true,
		CreateIndex:       true,
		PreserveStructure: true,
	}
}

// Output bundles everything the pipeline produced for one document. The
// pipeline fills it and hands it to Organize, which only reads it, except
// that a missing RunID is assigned.
type Output struct {
	RunID      string
	Source     string
	Title      string
	Extraction parser.Report
	Structure  structure.Metadata
	Tree       []*structure.Node
	Cleaning   cleaner.Report
	Chunks     []chunker.Chunk
	Chunking   chunker.Metadata

	// Config is the effective pipeline configuration, echoed into
	// config_used.json. Typed loosely so this package does not depend
	// on the config package.
	Config any
}

// Report summarizes what one Organize call wrote to disk.
type Report struct {
	ChunksSaved     int            `json:"chunks_saved"`
	FilesWritten    int            `json:"files_written"`
	DirsCreated     int            `json:"dirs_created"`
	BytesWritten    int64          `json:"bytes_written"`
	TotalParts      int            `json:"total_parts"`
	TotalChapters   int            `json:"total_chapters"`
	ChunksByChapter map[string]int `json:"chunks_by_chapter,omitempty"`
	IndexFile       string         `json:"index_file,omitempty"`
}

// Organizer lays pipeline results out on disk: one text file per chunk,
// grouped into part/chapter folders, plus JSON metadata, index and
// per-phase reports.
type Organizer struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Organizer {
	if log == nil {
		log = slog.Default()
	}
	return &Organizer{cfg: cfg, log: log}
}

// runMetadata is the root metadata.json payload.
type runMetadata struct {
	RunID       string             `json:"run_id"`
	Source      string             `json:"source"`
	Title       string             `json:"title,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Extraction  parser.Report      `json:"extraction"`
	Structure   structure.Metadata `json:"structure"`
	Cleaning    cleaner.Report     `json:"cleaning"`
	Chunking    chunker.Metadata   `json:"chunking"`
}

// chapterMetadata is the per-chapter metadata.json payload.
type chapterMetadata struct {
	Part            string `json:"part,omitempty"`
	Chapter         string `json:"chapter,omitempty"`
	TotalChunks     int    `json:"total_chunks"`
	TotalCharacters int    `json:"total_characters"`
	SourcePages     []int  `json:"source_pages"`
}

// indexFile is the root index.json payload.
type indexFile struct {
	RunID           string            `json:"run_id"`
	Source          string            `json:"source"`
	TotalChunks     int               `json:"total_chunks"`
	TotalCharacters int               `json:"total_characters"`
	TotalParts      int               `json:"total_parts"`
	TotalChapters   int               `json:"total_chapters"`
	Structure       []indexPart       `json:"structure"`
	Tree            []*structure.Node `json:"tree,omitempty"`
	Chunks          []indexEntry      `json:"chunks"`
}

type indexPart struct {
	Part     string         `json:"part,omitempty"`
	Chapters []indexChapter `json:"chapters"`
}

type indexChapter struct {
	Name   string `json:"name,omitempty"`
	Chunks int    `json:"chunks"`
	Path   string `json:"path"`
}

type indexEntry struct {
	ID          int    `json:"chunk_id"`
	File        string `json:"file"`
	Page        int    `json:"page"`
	Part        string `json:"part,omitempty"`
	Chapter     string `json:"chapter,omitempty"`
	Section     string `json:"section,omitempty"`
	SplitMethod string `json:"split_method"`
	CharCount   int    `json:"char_count"`
}

// chapterGroup collects the chunks sharing one part/chapter provenance,
// in emission order.
type chapterGroup struct {
	part    string
	chapter string
	dir     string
	chunks  []chunker.Chunk
}

// Organize writes all configured artifacts for one pipeline run into dir.
// An empty out.RunID is replaced with a fresh UUID. The returned Report is
// valid up to the first error.
func (o *Organizer) Organize(dir string, out *Output) (Report, error) {
	if out.RunID == "" {
		out.RunID = uuid.New().String()
	}

	w := &writer{dirs: make(map[string]struct{})}
	if err := w.ensureDir(dir); err != nil {
		return w.rep, err
	}

	groups := o.groupChunks(out.Chunks)
	entries, err := o.writeChunks(w, dir, out.Chunks)
	if err != nil {
		return w.rep, err
	}
	o.countGroups(&w.rep, groups)

	if o.cfg.CreateMetadata {
		if err := o.writeMetadata(w, dir, out, groups); err != nil {
			return w.rep, err
		}
	}
	if o.cfg.CreateIndex {
		idx := o.buildIndex(out, groups, entries)
		p := filepath.Join(dir, "index.json")
		if err := w.writeJSON(p, idx); err != nil {
			return w.rep, err
		}
		w.rep.IndexFile = p
	}
	if err := o.writeReports(w, dir, out); err != nil {
		return w.rep, err
	}

	o.log.Info("organized output",
		"dir", dir,
		"chunks", w.rep.ChunksSaved,
		"files", w.rep.FilesWritten,
		"bytes", w.rep.BytesWritten)
	return w.rep, nil
}

// chunkDir returns the slash-separated directory for a chunk, relative to
// the output root. Missing provenance levels are omitted rather than
// padded with placeholder folders.
func (o *Organizer) chunkDir(c chunker.Chunk) string {
	dir := chunksDir
	if !o.cfg.PreserveStructure {
		return dir
	}
	if c.Part != "" {
		dir = path.Join(dir, sanitizeName(c.Part))
	}
	if c.Chapter != "" {
		dir = path.Join(dir, sanitizeName(c.Chapter))
	}
	return dir
}

func (o *Organizer) groupChunks(chunks []chunker.Chunk) []chapterGroup {
	var groups []chapterGroup
	idx := make(map[string]int)
	for _, c := range chunks {
		key := c.Part + "\x00" + c.Chapter
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, chapterGroup{part: c.Part, chapter: c.Chapter, dir: o.chunkDir(c)})
		}
		groups[i].chunks = append(groups[i].chunks, c)
	}
	return groups
}

func (o *Organizer) writeChunks(w *writer, dir string, chunks []chunker.Chunk) ([]indexEntry, error) {
	entries := make([]indexEntry, 0, len(chunks))
	for _, c := range chunks {
		rel := o.chunkDir(c)
		absDir := filepath.Join(dir, filepath.FromSlash(rel))
		if err := w.ensureDir(absDir); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("chunk_%04d.txt", c.ID)
		if err := w.writeFile(filepath.Join(absDir, name), []byte(c.Content)); err != nil {
			return nil, err
		}
		w.rep.ChunksSaved++
		entries = append(entries, indexEntry{
			ID:          c.ID,
			File:        path.Join(rel, name),
			Page:        c.Page,
			Part:        c.Part,
			Chapter:     c.Chapter,
			Section:     c.Section,
			SplitMethod: c.SplitMethod,
			CharCount:   c.CharCount,
		})
	}
	return entries, nil
}

func (o *Organizer) countGroups(rep *Report, groups []chapterGroup) {
	rep.ChunksByChapter = make(map[string]int)
	parts := make(map[string]struct{})
	for _, g := range groups {
		if g.part != "" {
			parts[g.part] = struct{}{}
		}
		if g.chapter != "" {
			rep.TotalChapters++
		}
		name := g.chapter
		if name == "" {
			name = "Unknown"
		}
		rep.ChunksByChapter[name] += len(g.chunks)
	}
	rep.TotalParts = len(parts)
}

func (o *Organizer) writeMetadata(w *writer, dir string, out *Output, groups []chapterGroup) error {
	meta := runMetadata{
		RunID:       out.RunID,
		Source:      out.Source,
		Title:       out.Title,
		GeneratedAt: time.Now().UTC(),
		Extraction:  out.Extraction,
		Structure:   out.Structure,
		Cleaning:    out.Cleaning,
		Chunking:    out.Chunking,
	}
	if err := w.writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return err
	}
	if !o.cfg.PreserveStructure {
		return nil
	}
	for _, g := range groups {
		if g.dir == chunksDir {
			continue
		}
		cm := chapterMetadata{
			Part:        g.part,
			Chapter:     g.chapter,
			TotalChunks: len(g.chunks),
			SourcePages: sourcePages(g.chunks),
		}
		for _, c := range g.chunks {
			cm.TotalCharacters += c.CharCount
		}
		p := filepath.Join(dir, filepath.FromSlash(g.dir), "metadata.json")
		if err := w.writeJSON(p, cm); err != nil {
			return err
		}
	}
	return nil
}

func (o *Organizer) buildIndex(out *Output, groups []chapterGroup, entries []indexEntry) indexFile {
	idx := indexFile{
		RunID:       out.RunID,
		Source:      out.Source,
		TotalChunks: len(out.Chunks),
		Tree:        out.Tree,
		Chunks:      entries,
	}
	for _, c := range out.Chunks {
		idx.TotalCharacters += c.CharCount
	}

	pIdx := make(map[string]int)
	for _, g := range groups {
		i, ok := pIdx[g.part]
		if !ok {
			i = len(idx.Structure)
			pIdx[g.part] = i
			idx.Structure = append(idx.Structure, indexPart{Part: g.part})
			if g.part != "" {
				idx.TotalParts++
			}
		}
		idx.Structure[i].Chapters = append(idx.Structure[i].Chapters, indexChapter{
			Name:   g.chapter,
			Chunks: len(g.chunks),
			Path:   g.dir,
		})
		if g.chapter != "" {
			idx.TotalChapters++
		}
	}
	return idx
}

func (o *Organizer) writeReports(w *writer, dir string, out *Output) error {
	rdir := filepath.Join(dir, reportsDir)
	if err := w.ensureDir(rdir); err != nil {
		return err
	}
	if err := w.writeJSON(filepath.Join(rdir, "extraction_report.json"), out.Extraction); err != nil {
		return err
	}
	if err := w.writeJSON(filepath.Join(rdir, "structure_report.json"), out.Structure); err != nil {
		return err
	}
	if err := w.writeJSON(filepath.Join(rdir, "cleaning_report.json"), out.Cleaning); err != nil {
		return err
	}
	if err := w.writeJSON(filepath.Join(rdir, "chunking_report.json"), out.Chunking); err != nil {
		return err
	}
	if err := w.writeJSON(filepath.Join(dir, "chunks.json"), out.Chunks); err != nil {
		return err
	}
	if out.Config != nil {
		if err := w.writeJSON(filepath.Join(dir, "config_used.json"), out.Config); err != nil {
			return err
		}
	}
	// Snapshot of the run report itself. Written last, so its counters
	// cover every other artifact but not this file.
	return w.writeJSON(filepath.Join(rdir, "organization_report.json"), w.rep)
}

// writer tracks artifact totals across one Organize call.
type writer struct {
	rep  Report
	dirs map[string]struct{}
}

func (w *writer) ensureDir(dir string) error {
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	w.dirs[dir] = struct{}{}
	w.rep.DirsCreated++
	return nil
}

func (w *writer) writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	w.rep.FilesWritten++
	w.rep.BytesWritten += int64(len(data))
	return nil
}

func (w *writer) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return w.writeFile(path, data)
}

// sourcePages returns the sorted distinct pages the chunks came from.
func sourcePages(chunks []chunker.Chunk) []int {
	seen := make(map[int]struct{})
	for _, c := range chunks {
		seen[c.Page] = struct{}{}
	}
	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// sanitizeName maps a heading title to a filesystem-safe folder name.
// Unicode letters and digits survive along with dash and dot; every other
// run of characters collapses to a single underscore. Names are capped at
// maxNameLen runes; a name with nothing left becomes "Uncategorized".
func sanitizeName(name string) string {
	var b strings.Builder
	written := 0
	pending := false
	for _, r := range name {
		if written >= maxNameLen {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
				written++
			}
			pending = false
			b.WriteRune(r)
			written++
		default:
			pending = true
		}
	}
	s := strings.Trim(b.String(), "._")
	if s == "" {
		return "Uncategorized"
	}
	return s
}

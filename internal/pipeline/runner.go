package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/ragprep/internal/block"
	"github.com/dgallion1/ragprep/internal/chunker"
	"github.com/dgallion1/ragprep/internal/cleaner"
	"github.com/dgallion1/ragprep/internal/config"
	"github.com/dgallion1/ragprep/internal/organizer"
	"github.com/dgallion1/ragprep/internal/parser"
	"github.com/dgallion1/ragprep/internal/structure"
)

// Phase names in execution order. They key Result.PhaseTimings and the
// orchestrator's rolling stats, and appear verbatim in job status responses.
const (
	PhaseExtraction   = "extraction"
	PhaseStructure    = "structure"
	PhaseCleaning     = "cleaning"
	PhaseChunking     = "chunking"
	PhaseOrganization = "organization"
)

// Phases lists every phase name in execution order.
var Phases = []string{
	PhaseExtraction,
	PhaseStructure,
	PhaseCleaning,
	PhaseChunking,
	PhaseOrganization,
}

// ProgressFunc is called as each phase begins, with one of the Phase*
// constants. It may be nil.
type ProgressFunc func(phase string)

// Result bundles everything a single run produced: the per-phase reports
// written to disk plus the in-memory products callers may want to index
// or inspect without re-reading the output tree.
type Result struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`

	Extraction parser.Report      `json:"extraction"`
	Structure  structure.Metadata `json:"structure"`
	Cleaning   cleaner.Report     `json:"cleaning"`
	Chunking   chunker.Metadata   `json:"chunking"`
	Output     organizer.Report   `json:"output"`

	// Cleaned blocks, hierarchy tree and chunks are kept out of JSON
	// encodings; they can be large and are all on disk already.
	Blocks []block.Structured `json:"-"`
	Tree   []*structure.Node  `json:"-"`
	Chunks []chunker.Chunk    `json:"-"`

	OutputDir    string                   `json:"output_dir"`
	PhaseTimings map[string]time.Duration `json:"-"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

// Runner executes the five-phase pipeline against one input file at a
// time. A single Runner is safe for concurrent use; classifier and
// cleaner state is read-only after construction.
type Runner struct {
	cfg        config.Pipeline
	classifier *structure.Classifier
	cleaner    *cleaner.Cleaner
	organizer  *organizer.Organizer
	log        *slog.Logger
}

// NewRunner builds a Runner from an already-validated pipeline config.
// A nil logger falls back to slog.Default().
func NewRunner(cfg config.Pipeline, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Chunking.ChunkOverlap > 0 {
		// Accepted for config compatibility, never applied.
		log.Warn("chunk_overlap is configured but not implemented, chunks will not overlap",
			"chunk_overlap", cfg.Chunking.ChunkOverlap)
	}
	return &Runner{
		cfg:        cfg,
		classifier: structure.NewClassifier(cfg.Structure, log),
		cleaner:    cleaner.New(cfg.Cleaning, log),
		organizer:  organizer.New(cfg.Output, log),
		log:        log,
	}
}

// Run processes inputPath through extraction, structure, cleaning,
// chunking and organization, writing all artifacts under outputDir.
// The context is checked between phases; a cancelled run leaves any
// artifacts written so far in place.
func (r *Runner) Run(ctx context.Context, inputPath, outputDir string, progress ProgressFunc) (*Result, error) {
	started := time.Now()
	timings := make(map[string]time.Duration, len(Phases))
	log := r.log.With("input", inputPath)

	phase := func(name string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if progress != nil {
			progress(name)
		}
		return nil
	}

	if err := phase(PhaseExtraction); err != nil {
		return nil, err
	}
	start := time.Now()
	doc, extraction, err := r.extract(inputPath)
	if err != nil {
		return nil, err
	}
	timings[PhaseExtraction] = time.Since(start)
	log.Info("extraction complete",
		"parser", extraction.Parser,
		"pages", extraction.TotalPages,
		"blocks", extraction.TotalBlocks,
		"bookmarks", extraction.TotalBookmarks,
		"duration_ms", timings[PhaseExtraction].Milliseconds())

	if err := phase(PhaseStructure); err != nil {
		return nil, err
	}
	start = time.Now()
	classified := r.classifier.Classify(doc.Blocks, doc.Bookmarks)
	blocks, tree, meta := structure.Track(classified)
	meta.StructureMethod = r.classifier.Method()
	timings[PhaseStructure] = time.Since(start)
	log.Info("structure complete",
		"method", meta.StructureMethod,
		"chapters", meta.ChaptersFound,
		"sections", meta.SectionsFound,
		"duration_ms", timings[PhaseStructure].Milliseconds())

	if err := phase(PhaseCleaning); err != nil {
		return nil, err
	}
	start = time.Now()
	cleaned, cleaning := r.cleaner.Clean(blocks)
	timings[PhaseCleaning] = time.Since(start)
	log.Info("cleaning complete",
		"blocks_in", cleaning.BlocksIn,
		"blocks_out", cleaning.BlocksOut,
		"duration_ms", timings[PhaseCleaning].Milliseconds())

	if err := phase(PhaseChunking); err != nil {
		return nil, err
	}
	start = time.Now()
	input := make([]chunker.Block, len(cleaned))
	for i, b := range cleaned {
		input[i] = chunker.Block{
			Content: b.Content,
			Page:    b.Page,
			Part:    b.Part,
			Chapter: b.Chapter,
			Section: b.Section,
		}
	}
	chunks := chunker.Split(input, r.cfg.Chunking)
	chunking := chunker.Summarize(chunks)
	timings[PhaseChunking] = time.Since(start)
	log.Info("chunking complete",
		"chunks", chunking.TotalChunks,
		"avg_size", chunking.AvgChunkSize,
		"duration_ms", timings[PhaseChunking].Milliseconds())

	if err := phase(PhaseOrganization); err != nil {
		return nil, err
	}
	start = time.Now()
	out := organizer.Output{
		Source:     doc.Source,
		Title:      doc.Title,
		Extraction: extraction,
		Structure:  meta,
		Tree:       tree,
		Cleaning:   cleaning,
		Chunks:     chunks,
		Chunking:   chunking,
		Config:     r.cfg,
	}
	report, err := r.organizer.Organize(outputDir, &out)
	if err != nil {
		return nil, fmt.Errorf("organize output: %w", err)
	}
	timings[PhaseOrganization] = time.Since(start)

	res := &Result{
		RunID:        out.RunID,
		Source:       doc.Source,
		Title:        doc.Title,
		Extraction:   extraction,
		Structure:    meta,
		Cleaning:     cleaning,
		Chunking:     chunking,
		Output:       report,
		Blocks:       cleaned,
		Tree:         tree,
		Chunks:       chunks,
		OutputDir:    outputDir,
		PhaseTimings: timings,
		GeneratedAt:  time.Now().UTC(),
	}
	log.Info("pipeline complete",
		"run_id", res.RunID,
		"chunks", len(chunks),
		"files", report.FilesWritten,
		"duration_ms", time.Since(started).Milliseconds())
	return res, nil
}

func (r *Runner) extract(inputPath string) (*block.Document, parser.Report, error) {
	p, err := parser.ForFile(inputPath)
	if err != nil {
		return nil, parser.Report{}, err
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = r.cfg.Extraction.PDFFallbackPdftotext
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, parser.Report{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(inputPath))
	if err != nil {
		return nil, parser.Report{}, fmt.Errorf("parse %s: %w", filepath.Base(inputPath), err)
	}
	return doc, parser.Summarize(doc, p.Name()), nil
}

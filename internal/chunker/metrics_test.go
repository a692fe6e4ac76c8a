package chunker

import (
	"strings"
	"testing"
)

func TestSummarize_EmptyChunkList(t *testing.T) {
	meta := Summarize(nil)
	if meta.TotalChunks != 0 || meta.TotalCharacters != 0 || meta.TotalWords != 0 {
		t.Errorf("expected zero totals, got %+v", meta)
	}
	if meta.AvgChunkSize != 0 || meta.MinChunkSize != 0 || meta.MaxChunkSize != 0 {
		t.Errorf("expected zero sizes for empty input, got %+v", meta)
	}
	if meta.ChunksBySplitMethod == nil {
		t.Error("expected a non-nil histogram")
	}
	if meta.GeneratedAt.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestSummarize_Totals(t *testing.T) {
	chunks := []Chunk{
		{ID: 1, Content: "aaa", CharCount: 3, WordCount: 1, SplitMethod: MethodWholeBlock},
		{ID: 2, Content: "bbbbb", CharCount: 5, WordCount: 2, SplitMethod: MethodSentence},
		{ID: 3, Content: "c", CharCount: 1, WordCount: 1, SplitMethod: MethodSentence},
	}
	meta := Summarize(chunks)

	if meta.TotalChunks != 3 {
		t.Errorf("expected 3 chunks, got %d", meta.TotalChunks)
	}
	if meta.TotalCharacters != 9 {
		t.Errorf("expected 9 characters, got %d", meta.TotalCharacters)
	}
	if meta.TotalWords != 4 {
		t.Errorf("expected 4 words, got %d", meta.TotalWords)
	}
	if meta.MinChunkSize != 1 || meta.MaxChunkSize != 5 {
		t.Errorf("expected min 1 max 5, got %d / %d", meta.MinChunkSize, meta.MaxChunkSize)
	}
	if meta.AvgChunkSize != 3 {
		t.Errorf("expected avg 3, got %v", meta.AvgChunkSize)
	}
	if meta.ChunksBySplitMethod[MethodSentence] != 2 {
		t.Errorf("expected 2 sentence chunks in histogram, got %d",
			meta.ChunksBySplitMethod[MethodSentence])
	}
	if meta.ChunksBySplitMethod[MethodWholeBlock] != 1 {
		t.Errorf("expected 1 whole_block chunk in histogram, got %d",
			meta.ChunksBySplitMethod[MethodWholeBlock])
	}
}

func TestSummarize_EndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxChunkSize = 120
	blocks := []Block{
		{Content: "A modest opening paragraph for the document.", Page: 1},
		{Content: strings.Repeat("Filler sentences keep arriving without pause. ", 10), Page: 1},
	}
	chunks := Split(blocks, cfg)
	meta := Summarize(chunks)

	if meta.TotalChunks != len(chunks) {
		t.Errorf("expected %d chunks counted, got %d", len(chunks), meta.TotalChunks)
	}
	var chars int
	for _, c := range chunks {
		chars += c.CharCount
	}
	if meta.TotalCharacters != chars {
		t.Errorf("expected %d characters, got %d", chars, meta.TotalCharacters)
	}
	var histTotal int
	for _, n := range meta.ChunksBySplitMethod {
		histTotal += n
	}
	if histTotal != len(chunks) {
		t.Errorf("expected histogram to cover all %d chunks, got %d", len(chunks), histTotal)
	}
}

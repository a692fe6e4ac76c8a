package chunker

import "strings"

// Split methods recorded on emitted chunks.
const (
	MethodWholeBlock = "whole_block"
	MethodParagraph  = "paragraph"
	MethodSentence   = "sentence"
	MethodWord       = "word"
	MethodOversized  = "oversized"
)

// Config controls chunking behavior.
type Config struct {
	MaxChunkSize     int  `json:"max_chunk_size" mapstructure:"max_chunk_size"`
	ChunkOverlap     int  `json:"chunk_overlap" mapstructure:"chunk_overlap"`
	SplitByParagraph bool `json:"split_by_paragraph" mapstructure:"split_by_paragraph"`
	SplitBySentence  bool `json:"split_by_sentence" mapstructure:"split_by_sentence"`
	SplitByWord      bool `json:"split_by_word" mapstructure:"split_by_word"`
}

// DefaultConfig returns sensible defaults. ChunkOverlap is carried in the
// configuration surface but is not applied to emitted chunks.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:     800,
		ChunkOverlap:     0,
		SplitByParagraph: true,
		SplitBySentence:  true,
		SplitByWord:      true,
	}
}

// Block is one unit of cleaned input text with its provenance.
type Block struct {
	Content string `json:"content"`
	Page    int    `json:"page"`
	Part    string `json:"part,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Section string `json:"section,omitempty"`
}

// Chunk is a bounded text segment ready for retrieval indexing.
// Immutable once emitted.
type Chunk struct {
	ID              int    `json:"chunk_id"`
	Content         string `json:"content"`
	Page            int    `json:"page"`
	Part            string `json:"part,omitempty"`
	Chapter         string `json:"chapter,omitempty"`
	Section         string `json:"section,omitempty"`
	CharCount       int    `json:"char_count"`
	WordCount       int    `json:"word_count"`
	SentenceCount   int    `json:"sentence_count"`
	EstimatedTokens int    `json:"estimated_tokens"`
	SplitMethod     string `json:"split_method"`
}

// provenance pins a chunk to where its first content came from.
type provenance struct {
	page    int
	part    string
	chapter string
	section string
}

// piece is an intermediate cascade result before chunk numbering.
type piece struct {
	content string
	method  string
}

// Split greedily accretes block content into chunks of at most
// cfg.MaxChunkSize characters, joining blocks with a blank line. A block
// that cannot fit even alone is decomposed by the paragraph, sentence and
// word stages in turn. Chunk ids count up from 1 in emission order.
func Split(blocks []Block, cfg Config) []Chunk {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 800
	}

	var chunks []Chunk
	nextID := 1

	emit := func(p piece, prov provenance) {
		chunks = append(chunks, newChunk(nextID, p, prov))
		nextID++
	}

	var acc string
	var accProv provenance

	for _, b := range blocks {
		content := strings.TrimSpace(b.Content)
		if content == "" {
			continue
		}
		prov := provenance{page: b.Page, part: b.Part, chapter: b.Chapter, section: b.Section}

		if len(acc)+len(content)+2 <= cfg.MaxChunkSize {
			if acc == "" {
				acc = content
				accProv = prov
			} else {
				acc += "\n\n" + content
			}
			continue
		}

		// The accumulator is full: flush it, then place the newcomer.
		if acc != "" {
			emit(piece{content: acc, method: MethodWholeBlock}, accProv)
		}
		if len(content) <= cfg.MaxChunkSize {
			acc = content
			accProv = prov
		} else {
			for _, p := range cascade(content, cfg) {
				emit(p, prov)
			}
			acc = ""
		}
	}

	if acc != "" {
		emit(piece{content: acc, method: MethodWholeBlock}, accProv)
	}
	return chunks
}

// cascade decomposes a single oversized text by paragraphs, then sentences,
// then words. A disabled stage passes its input through whole to the next
// one; whatever still cannot be cut is emitted as-is, tagged oversized.
func cascade(text string, cfg Config) []piece {
	if text == "" {
		return nil
	}
	if len(text) <= cfg.MaxChunkSize {
		return []piece{{content: text, method: MethodWholeBlock}}
	}
	return paragraphStage(text, cfg)
}

// paragraphStage accretes blank-line paragraphs up to the limit; a
// paragraph that alone exceeds it falls through to the sentence stage.
func paragraphStage(text string, cfg Config) []piece {
	paragraphs := []string{text}
	if cfg.SplitByParagraph {
		paragraphs = splitParagraphs(text)
	}
	return accrete(paragraphs, "\n\n", MethodParagraph, cfg, func(unit string) []piece {
		return sentenceStage(unit, cfg)
	})
}

// sentenceStage accretes sentences joined by single spaces; a sentence that
// alone exceeds the limit falls through to the word stage.
func sentenceStage(text string, cfg Config) []piece {
	sentences := []string{text}
	if cfg.SplitBySentence {
		sentences = splitSentences(text)
	}
	return accrete(sentences, " ", MethodSentence, cfg, func(unit string) []piece {
		return wordStage(unit, cfg)
	})
}

// wordStage accretes whitespace-separated words; a single word longer than
// the limit is emitted verbatim, tagged oversized.
func wordStage(text string, cfg Config) []piece {
	if !cfg.SplitByWord {
		return []piece{{content: text, method: MethodOversized}}
	}
	words := strings.Fields(text)
	return accrete(words, " ", MethodWord, cfg, func(unit string) []piece {
		return []piece{{content: unit, method: MethodOversized}}
	})
}

// accrete greedily packs units into pieces of at most MaxChunkSize,
// delegating any unit that alone exceeds the limit to the next stage.
func accrete(units []string, sep, method string, cfg Config, overflow func(string) []piece) []piece {
	var out []piece
	var cur string

	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		if len(cur)+len(unit)+len(sep) <= cfg.MaxChunkSize {
			if cur == "" {
				cur = unit
			} else {
				cur += sep + unit
			}
			continue
		}
		if cur != "" {
			out = append(out, piece{content: cur, method: method})
		}
		if len(unit) <= cfg.MaxChunkSize {
			cur = unit
		} else {
			out = append(out, overflow(unit)...)
			cur = ""
		}
	}
	if cur != "" {
		out = append(out, piece{content: cur, method: method})
	}
	return out
}

// splitParagraphs splits on blank-line boundaries.
func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && isSpace(text[i+1]) {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func newChunk(id int, p piece, prov provenance) Chunk {
	return Chunk{
		ID:              id,
		Content:         p.content,
		Page:            prov.page,
		Part:            prov.part,
		Chapter:         prov.chapter,
		Section:         prov.section,
		CharCount:       len(p.content),
		WordCount:       len(strings.Fields(p.content)),
		SentenceCount:   len(splitSentences(p.content)),
		EstimatedTokens: EstimateTokens(p.content),
		SplitMethod:     p.method,
	}
}

package chunker

import "time"

// Metadata is the aggregate summary of one chunking run.
type Metadata struct {
	TotalChunks         int            `json:"total_chunks"`
	TotalCharacters     int            `json:"total_characters"`
	TotalWords          int            `json:"total_words"`
	AvgChunkSize        float64        `json:"avg_chunk_size"`
	MinChunkSize        int            `json:"min_chunk_size"`
	MaxChunkSize        int            `json:"max_chunk_size"`
	ChunksBySplitMethod map[string]int `json:"chunks_by_split_method"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// Summarize computes chunk statistics. An empty chunk list yields all-zero
// values, not an error.
func Summarize(chunks []Chunk) Metadata {
	meta := Metadata{
		ChunksBySplitMethod: make(map[string]int),
		GeneratedAt:         time.Now().UTC(),
	}
	if len(chunks) == 0 {
		return meta
	}

	meta.TotalChunks = len(chunks)
	meta.MinChunkSize = chunks[0].CharCount
	meta.MaxChunkSize = chunks[0].CharCount
	for _, c := range chunks {
		meta.TotalCharacters += c.CharCount
		meta.TotalWords += c.WordCount
		if c.CharCount < meta.MinChunkSize {
			meta.MinChunkSize = c.CharCount
		}
		if c.CharCount > meta.MaxChunkSize {
			meta.MaxChunkSize = c.CharCount
		}
		meta.ChunksBySplitMethod[c.SplitMethod]++
	}
	meta.AvgChunkSize = float64(meta.TotalCharacters) / float64(meta.TotalChunks)
	return meta
}

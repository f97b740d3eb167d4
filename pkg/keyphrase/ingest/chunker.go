package ingest

import "strings"

// Chunking defaults, in words.
const (
	DefaultChunkWords   = 300
	DefaultOverlapWords = 50
	DefaultMaxChunks    = 5
)

// Chunker splits long texts into overlapping word windows so each piece
// stays within an embedding model's context.
type Chunker struct {
	ChunkWords   int
	OverlapWords int
	MaxChunks    int
}

// DefaultChunker returns a chunker with the default window sizes.
func DefaultChunker() Chunker {
	return Chunker{
		ChunkWords:   DefaultChunkWords,
		OverlapWords: DefaultOverlapWords,
		MaxChunks:    DefaultMaxChunks,
	}
}

// Chunk returns the text unchanged as a single chunk when it fits in one
// window, otherwise up to MaxChunks overlapping windows from the start of the
// text.
func (c Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	size := c.ChunkWords
	if size <= 0 {
		size = DefaultChunkWords
	}
	if len(words) <= size {
		return []string{text}
	}

	overlap := c.OverlapWords
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	step := size - overlap

	var chunks []string
	for start := 0; start < len(words); start += step {
		if c.MaxChunks > 0 && len(chunks) >= c.MaxChunks {
			break
		}
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

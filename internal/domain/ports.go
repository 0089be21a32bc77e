package domain

import "context"

// Block is one ordered unit of extracted text with its positional
// metadata, as produced by a document parser.
type Block struct {
	Text     string
	Metadata SegmentMetadata
}

// Parser extracts ordered text blocks from raw document bytes.
// Implementations fail with parser.ErrUnsupportedFormat or
// parser.ErrCorruptInput.
type Parser interface {
	Parse(data []byte, format string) ([]Block, error)
}

// Chunker splits extracted blocks into segments suitable for indexing.
type Chunker interface {
	Chunk(doc DocumentInput, blocks []Block) []Segment
}

// Embedder converts free text into a fixed-length numeric vector.
// Indexing and querying must use one Embedder instance for the
// lifetime of an index.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Completer produces a natural-language answer for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndex holds embedded segments and supports similarity search.
// Appends are serialized; searches may run concurrently with appends.
type VectorIndex interface {
	Append(segments []Segment, vectors [][]float64) (added int, err error)
	Search(vector []float64, topK int) ([]RankedSegment, error)
	Stats() Stats
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// History is the read-only view of the conversation state exposed to
// the response stage for multi-turn prompts.
type History interface {
	Turns() []Turn
}

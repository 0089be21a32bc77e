package chunker

import (
	"strings"
	"unicode"

	"docqa/internal/domain"
)

// WindowChunker splits extracted text blocks into overlapping windows
// of approximately targetChars characters. A window prefers to end at
// a sentence boundary when one falls within boundaryTolerance of the
// target, otherwise at the nearest whitespace; it never ends inside a
// word. Chunking is purely positional, so re-running it over identical
// input yields identical segments.
type WindowChunker struct {
	targetChars       int
	overlapChars      int
	boundaryTolerance int
}

func NewWindowChunker(targetChars, overlapChars, boundaryTolerance int) *WindowChunker {
	if targetChars <= 0 {
		targetChars = 1000
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= targetChars {
		overlapChars = targetChars / 2
	}
	if boundaryTolerance < 0 {
		boundaryTolerance = 0
	}
	return &WindowChunker{
		targetChars:       targetChars,
		overlapChars:      overlapChars,
		boundaryTolerance: boundaryTolerance,
	}
}

// Chunk produces one segment per window with strictly increasing
// segment indexes across all blocks of the document.
func (c *WindowChunker) Chunk(doc domain.DocumentInput, blocks []domain.Block) []domain.Segment {
	var segments []domain.Segment
	idx := 0
	for _, block := range blocks {
		for _, text := range c.split(block.Text) {
			segments = append(segments, domain.Segment{
				DocumentID:   doc.DocumentID,
				SegmentIndex: idx,
				Text:         text,
				Metadata:     block.Metadata,
			})
			idx++
		}
	}
	return segments
}

func (c *WindowChunker) split(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for start < len(runes) {
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
		if start >= len(runes) {
			break
		}
		end := c.breakPoint(runes, start)
		window := strings.TrimSpace(string(runes[start:end]))
		if window != "" {
			out = append(out, window)
		}
		if end >= len(runes) {
			break
		}
		start = c.nextStart(runes, start, end)
	}
	return out
}

// breakPoint returns the exclusive end of the window starting at start.
func (c *WindowChunker) breakPoint(runes []rune, start int) int {
	target := start + c.targetChars
	if target >= len(runes) {
		return len(runes)
	}
	// Sentence end within tolerance of the target wins.
	lo := target - c.boundaryTolerance
	if lo <= start {
		lo = start + 1
	}
	hi := target + c.boundaryTolerance
	if hi > len(runes) {
		hi = len(runes)
	}
	for i := hi - 1; i >= lo; i-- {
		if isSentenceEnd(runes[i]) {
			return i + 1
		}
	}
	// Otherwise the nearest whitespace at or before the target.
	for i := target; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	// A single token longer than the window: extend to its end rather
	// than splitting it.
	for i := target; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return len(runes)
}

// nextStart rewinds by the overlap and then snaps forward to a token
// start so overlap never begins mid-word.
func (c *WindowChunker) nextStart(runes []rune, prevStart, end int) int {
	s := end - c.overlapChars
	if s <= prevStart {
		return end
	}
	for s < end && s > 0 && !unicode.IsSpace(runes[s-1]) && !unicode.IsSpace(runes[s]) {
		s++
	}
	if s >= end {
		return end
	}
	return s
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}

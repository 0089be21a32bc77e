package chunker

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func testDoc() domain.DocumentInput {
	return domain.DocumentInput{DocumentID: "doc-1", FileName: "test.txt", Format: "txt"}
}

func blocksOf(texts ...string) []domain.Block {
	blocks := make([]domain.Block, len(texts))
	for i, t := range texts {
		blocks[i] = domain.Block{Text: t, Metadata: domain.SegmentMetadata{Position: i}}
	}
	return blocks
}

func TestWindowChunker(t *testing.T) {
	t.Run("short block yields one segment", func(t *testing.T) {
		c := NewWindowChunker(100, 20, 10)
		segments := c.Chunk(testDoc(), blocksOf("Revenue grew 12% in Q3."))
		require.Len(t, segments, 1)
		assert.Equal(t, "Revenue grew 12% in Q3.", segments[0].Text)
		assert.Equal(t, 0, segments[0].SegmentIndex)
	})

	t.Run("chunking is deterministic", func(t *testing.T) {
		c := NewWindowChunker(50, 10, 8)
		text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
		first := c.Chunk(testDoc(), blocksOf(text))
		second := c.Chunk(testDoc(), blocksOf(text))
		require.Equal(t, first, second)
	})

	t.Run("segment indexes strictly increase across blocks", func(t *testing.T) {
		c := NewWindowChunker(40, 5, 5)
		long := strings.Repeat("alpha beta gamma delta epsilon. ", 6)
		segments := c.Chunk(testDoc(), blocksOf(long, long, "short tail."))
		require.NotEmpty(t, segments)
		for i, seg := range segments {
			assert.Equal(t, i, seg.SegmentIndex)
		}
	})

	t.Run("prefers sentence boundary within tolerance", func(t *testing.T) {
		c := NewWindowChunker(30, 0, 10)
		text := "First sentence ends here now. Second sentence follows right after it."
		segments := c.Chunk(testDoc(), blocksOf(text))
		require.GreaterOrEqual(t, len(segments), 2)
		assert.Equal(t, "First sentence ends here now.", segments[0].Text)
	})

	t.Run("never splits inside a word", func(t *testing.T) {
		c := NewWindowChunker(25, 5, 3)
		text := "supercalifragilistic expialidocious antidisestablishmentarianism floccinaucinihilipilification"
		segments := c.Chunk(testDoc(), blocksOf(text))
		words := map[string]struct{}{}
		for _, w := range strings.Fields(text) {
			words[w] = struct{}{}
		}
		for _, seg := range segments {
			for _, w := range strings.Fields(seg.Text) {
				_, ok := words[w]
				assert.True(t, ok, "word %q was split", w)
			}
		}
	})

	t.Run("overlapping windows share text", func(t *testing.T) {
		c := NewWindowChunker(60, 20, 0)
		words := make([]string, 40)
		for i := range words {
			words[i] = "word" + string(rune('a'+i%26))
		}
		text := strings.Join(words, " ")
		segments := c.Chunk(testDoc(), blocksOf(text))
		require.Greater(t, len(segments), 1)
		for i := 1; i < len(segments); i++ {
			prevFields := strings.Fields(segments[i-1].Text)
			require.NotEmpty(t, prevFields)
			last := prevFields[len(prevFields)-1]
			assert.Contains(t, segments[i].Text, last, "window %d should overlap with its predecessor", i)
		}
	})

	t.Run("does not split multibyte runes", func(t *testing.T) {
		c := NewWindowChunker(20, 4, 2)
		text := strings.Repeat("héllo wörld çafé übermut ", 10)
		for _, seg := range c.Chunk(testDoc(), blocksOf(text)) {
			for _, r := range seg.Text {
				assert.False(t, r == unicode.ReplacementChar, "segment contains a broken rune")
			}
		}
	})

	t.Run("empty and whitespace blocks produce nothing", func(t *testing.T) {
		c := NewWindowChunker(100, 20, 10)
		assert.Empty(t, c.Chunk(testDoc(), blocksOf("", "   \n\t  ")))
	})
}

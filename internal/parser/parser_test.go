package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryParse(t *testing.T) {
	r := NewRegistry()

	t.Run("splits text into paragraph blocks", func(t *testing.T) {
		data := []byte("First paragraph line one.\nLine two.\n\nSecond paragraph.")
		blocks, err := r.Parse(data, "txt")
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, "First paragraph line one.\nLine two.", blocks[0].Text)
		assert.Equal(t, 0, blocks[0].Metadata.Position)
		assert.Equal(t, "Second paragraph.", blocks[1].Text)
		assert.Equal(t, "paragraph 2", blocks[1].Metadata.Section)
	})

	t.Run("accepts markdown and dotted formats", func(t *testing.T) {
		for _, format := range []string{"md", ".md", "markdown", ".txt"} {
			blocks, err := r.Parse([]byte("# Heading\n\nBody text."), format)
			require.NoError(t, err, "format %q", format)
			assert.NotEmpty(t, blocks)
		}
	})

	t.Run("renders csv rows with headers", func(t *testing.T) {
		data := []byte("name,revenue\nAcme,12%\nGlobex,7%\n")
		blocks, err := r.Parse(data, "csv")
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, "name: Acme; revenue: 12%", blocks[0].Text)
		assert.Equal(t, "row 1", blocks[0].Metadata.Section)
		assert.Equal(t, "name: Globex; revenue: 7%", blocks[1].Text)
	})

	t.Run("rejects unsupported formats", func(t *testing.T) {
		_, err := r.Parse([]byte("%PDF-1.4"), "pdf")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("rejects invalid utf8 text", func(t *testing.T) {
		_, err := r.Parse([]byte{0xff, 0xfe, 0x00}, "txt")
		assert.ErrorIs(t, err, ErrCorruptInput)
	})

	t.Run("rejects empty documents", func(t *testing.T) {
		_, err := r.Parse([]byte("   \n\n  "), "txt")
		assert.ErrorIs(t, err, ErrCorruptInput)
	})

	t.Run("rejects csv without data rows", func(t *testing.T) {
		_, err := r.Parse([]byte("name,revenue\n"), "csv")
		assert.ErrorIs(t, err, ErrCorruptInput)
	})

	t.Run("parsing is deterministic", func(t *testing.T) {
		data := []byte("Alpha.\n\nBeta.\n\nGamma.")
		first, err := r.Parse(data, "txt")
		require.NoError(t, err)
		second, err := r.Parse(data, "txt")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

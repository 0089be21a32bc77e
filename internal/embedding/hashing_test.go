package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("identical text yields identical vectors", func(t *testing.T) {
		e := NewHashingEmbedder(128)
		first, err := e.Embed(ctx, "Revenue grew 12% in Q3.")
		require.NoError(t, err)
		second, err := e.Embed(ctx, "Revenue grew 12% in Q3.")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("vectors have the configured dimension", func(t *testing.T) {
		e := NewHashingEmbedder(64)
		vec, err := e.Embed(ctx, "some text to embed")
		require.NoError(t, err)
		assert.Len(t, vec, 64)
		assert.Equal(t, 64, e.Dimension())
	})

	t.Run("non-empty text is L2 normalized", func(t *testing.T) {
		e := NewHashingEmbedder(256)
		vec, err := e.Embed(ctx, "quarterly revenue growth report")
		require.NoError(t, err)
		norm := 0.0
		for _, v := range vec {
			norm += v * v
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	})

	t.Run("similar text scores closer than unrelated text", func(t *testing.T) {
		e := NewHashingEmbedder(512)
		query, err := e.Embed(ctx, "What was the revenue growth?")
		require.NoError(t, err)
		relevant, err := e.Embed(ctx, "Revenue grew 12% in Q3.")
		require.NoError(t, err)
		unrelated, err := e.Embed(ctx, "The hiking trail closes at dusk.")
		require.NoError(t, err)

		assert.Greater(t, dot(query, relevant), dot(query, unrelated))
	})

	t.Run("stopword-only text yields the zero vector", func(t *testing.T) {
		e := NewHashingEmbedder(32)
		vec, err := e.Embed(ctx, "the and of in")
		require.NoError(t, err)
		for _, v := range vec {
			assert.Zero(t, v)
		}
	})

	t.Run("numeric tokens are kept", func(t *testing.T) {
		e := NewHashingEmbedder(512)
		with, err := e.Embed(ctx, "grew 12%")
		require.NoError(t, err)
		without, err := e.Embed(ctx, "grew")
		require.NoError(t, err)
		assert.NotEqual(t, with, without)
	})
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

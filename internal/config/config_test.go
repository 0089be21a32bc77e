package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 1000, cfg.Chunker.TargetChars)
		assert.Equal(t, 200, cfg.Chunker.OverlapChars)
		assert.Equal(t, "hashing", cfg.Embedder.Type)
		assert.Equal(t, "memory", cfg.Index.Type)
		assert.Equal(t, "extractive", cfg.LLM.Type)
		assert.Equal(t, 5, cfg.Retrieval.TopK)
	})

	t.Run("partial file gets defaults applied", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 8\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Retrieval.TopK)
		assert.Equal(t, 3, cfg.Retrieval.EmbedRetries)
		assert.Equal(t, 1000, cfg.Chunker.TargetChars)
	})

	t.Run("openai sections get their defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "embedder:\n  type: openai\n  openai:\n    model: custom-embed\nllm:\n  type: openai\n  openai:\n    model: custom-chat\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Embedder.OpenAI)
		assert.Equal(t, "custom-embed", cfg.Embedder.OpenAI.Model)
		assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
		assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
		require.NotNil(t, cfg.LLM.OpenAI)
		assert.Equal(t, "custom-chat", cfg.LLM.OpenAI.Model)
		assert.Equal(t, 1000, cfg.LLM.OpenAI.MaxTokens)
	})

	t.Run("invalid yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\t not yaml ["), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("save and reload round-trips", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		cfg := defaultConfig()
		cfg.Retrieval.TopK = 11
		require.NoError(t, Save(path, cfg))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 11, loaded.Retrieval.TopK)
		assert.Equal(t, cfg.Chunker, loaded.Chunker)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
ai:
  gemini_api_key: test-key
prompt:
  strategy_path: strategy.md
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "council", cfg.AI.PreferredProvider)
	assert.Equal(t, DefaultGeminiModel, cfg.AI.GeminiModel)
	assert.Equal(t, DefaultOpenAIModel, cfg.AI.OpenAIModel)
	assert.Equal(t, DefaultGroqModel, cfg.AI.GroqModel)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.AI.GroqBaseURL)
	assert.Equal(t, 90, cfg.AI.TimeoutSeconds)
	assert.Equal(t, ":9980", cfg.Server.Addr)
	assert.Equal(t, 200, cfg.Market.HistoryLimit)
	assert.Equal(t, []string{"4h", "1h"}, cfg.Chart.Intervals)
	assert.Equal(t, "data/journal.db", cfg.Journal.Path)
}

func TestLoadErrors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
ai:
  preferred_provider: claude
prompt:
  strategy_path: strategy.md
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "preferred_provider")
	})

	t.Run("single provider without key", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
ai:
  preferred_provider: openai
prompt:
  strategy_path: strategy.md
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai_api_key")
	})

	t.Run("fallback flag without fallback key", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
ai:
  use_default_gemini_key: true
prompt:
  strategy_path: strategy.md
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_gemini_key")
	})

	t.Run("missing strategy path", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
ai:
  gemini_api_key: k
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strategy_path")
	})
}

func TestResolvedGeminiKey(t *testing.T) {
	t.Run("explicit key wins", func(t *testing.T) {
		c := AIConfig{GeminiAPIKey: "explicit", UseDefaultGeminiKey: true, DefaultGeminiKey: "fallback"}
		assert.Equal(t, "explicit", c.ResolvedGeminiKey())
	})

	t.Run("fallback only when opted in", func(t *testing.T) {
		c := AIConfig{UseDefaultGeminiKey: true, DefaultGeminiKey: "fallback"}
		assert.Equal(t, "fallback", c.ResolvedGeminiKey())

		c.UseDefaultGeminiKey = false
		assert.Empty(t, c.ResolvedGeminiKey())
	})
}

func TestProviderNames(t *testing.T) {
	c := AIConfig{
		GeminiAPIKey: "a",
		GroqAPIKey:   "c",
	}
	// Registration order is fixed; openai is absent without a key.
	assert.Equal(t, []string{"gemini", "groq"}, c.ProviderNames())
}

package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tradelens/internal/analysis/indicator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemInstruction(t *testing.T) {
	got := SystemInstruction("1. Only trade with the trend.\n")

	assert.Contains(t, got, "technical trading analyst")
	assert.Contains(t, got, "### Strategy rules\n1. Only trade with the trend.")
	assert.Contains(t, got, "### Output format")
	assert.Contains(t, got, "```json")
}

func TestMarketBlock(t *testing.T) {
	reports := []indicator.Report{
		{Symbol: "BTCUSDT", Interval: "4h", Count: 200, Close: 64000},
		{Symbol: "BTCUSDT", Interval: "1h", Count: 200, Close: 64100},
	}
	got := MarketBlock("btcusdt", reports)

	assert.Contains(t, got, "# Analysis request: BTCUSDT")
	assert.Contains(t, got, "### 4h")
	assert.Contains(t, got, "### 1h")
	// Higher timeframe first, matching the report order.
	assert.Less(t, strings.Index(got, "### 4h"), strings.Index(got, "### 1h"))
}

func TestChartRequest(t *testing.T) {
	got := ChartRequest("  watch the 65k level  ")
	assert.Contains(t, got, "uploaded chart")
	assert.Contains(t, got, "Trader's note: watch the 65k level")

	bare := ChartRequest("")
	assert.NotContains(t, bare, "Trader's note")
}

func TestLoadStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.md")
	require.NoError(t, os.WriteFile(path, []byte("rule one"), 0o644))

	s, err := LoadStrategy(path, false)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "rule one", s.Rules())
}

func TestLoadStrategyErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStrategy(filepath.Join(t.TempDir(), "nope.md"), false)
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "strategy.md")
		require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))
		_, err := LoadStrategy(path, false)
		assert.Error(t, err)
	})
}

func TestHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	s, err := LoadStrategy(path, true)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, "v1", s.Rules())

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Rules() == "v2" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("strategy did not reload, still %q", s.Rules())
}

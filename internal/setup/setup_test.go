package setup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fencedVerdict = "Bias is bullish on both timeframes.\n\n" +
	"```json\n" +
	`{
  "symbol": "btcusdt",
  "direction": "long",
  "entry": 64250.5,
  "stop_loss": 63100,
  "targets": [65800, 67200],
  "confidence": 72,
  "rationale": "Price reclaimed the 4h EMA21 with rising volume."
}` + "\n```\n"

func TestParseFencedBlock(t *testing.T) {
	s, err := Parse(fencedVerdict)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", s.Symbol)
	assert.Equal(t, "long", s.Direction)
	assert.True(t, s.Entry.Equal(decimal.NewFromFloat(64250.5)))
	assert.True(t, s.StopLoss.Equal(decimal.NewFromInt(63100)))
	require.Len(t, s.Targets, 2)
	assert.Equal(t, 72, s.Confidence)
	assert.NotEmpty(t, s.Rationale)
}

func TestParseBareObject(t *testing.T) {
	verdict := `The setup: {"symbol": "ETHUSDT", "direction": "neutral", "confidence": 40, "rationale": "timeframes disagree {4h up, 1h down}"} end.`
	s, err := Parse(verdict)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", s.Symbol)
	assert.Equal(t, "neutral", s.Direction)
	assert.Equal(t, 40, s.Confidence)
}

func TestParseBracesInsideStrings(t *testing.T) {
	verdict := `{"symbol": "SOLUSDT", "direction": "neutral", "confidence": 10, "rationale": "range-bound \"{chop}\" regime"}`
	s, err := Parse(verdict)
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", s.Symbol)
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name    string
		verdict string
	}{
		{"no json at all", "I cannot determine a setup."},
		{"unbalanced", `{"symbol": "BTCUSDT", "direction": "neutral"`},
		{"bad direction", `{"symbol": "BTCUSDT", "direction": "sideways", "confidence": 50}`},
		{"confidence out of range", `{"symbol": "BTCUSDT", "direction": "neutral", "confidence": 140}`},
		{"missing symbol", `{"direction": "neutral", "confidence": 50}`},
		{"directional without stop", `{"symbol": "BTCUSDT", "direction": "long", "entry": 100, "targets": [110], "confidence": 60}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.verdict)
			assert.Error(t, err)
		})
	}
}

func TestRiskReward(t *testing.T) {
	s := Setup{
		Direction: "long",
		Entry:     decimal.NewFromInt(100),
		StopLoss:  decimal.NewFromInt(95),
		Targets:   []decimal.Decimal{decimal.NewFromInt(110)},
	}
	assert.True(t, s.RiskReward().Equal(decimal.NewFromInt(2)))

	neutral := Setup{Direction: "neutral"}
	assert.True(t, neutral.RiskReward().IsZero())

	zeroRisk := Setup{
		Direction: "short",
		Entry:     decimal.NewFromInt(100),
		StopLoss:  decimal.NewFromInt(100),
		Targets:   []decimal.Decimal{decimal.NewFromInt(90)},
	}
	assert.True(t, zeroRisk.RiskReward().IsZero())
}

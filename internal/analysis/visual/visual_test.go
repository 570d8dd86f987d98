package visual

import (
	"testing"

	"tradelens/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartCandles(n int) []market.Candle {
	out := make([]market.Candle, n)
	price := 100.0
	for i := range out {
		price += 0.5
		out[i] = market.Candle{
			OpenTime:  int64(i) * 3_600_000,
			CloseTime: int64(i+1)*3_600_000 - 1,
			Open:      price - 0.2,
			High:      price + 0.5,
			Low:       price - 0.5,
			Close:     price,
			Volume:    1000,
		}
	}
	return out
}

func TestImageMIME(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	assert.Equal(t, "image/png", imageMIME(pngHeader))

	jpegHeader := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	assert.Equal(t, "image/jpeg", imageMIME(jpegHeader))

	// Unrecognized bytes keep the expected capture format.
	assert.Equal(t, "image/png", imageMIME([]byte("not an image")))
}

func TestImageBase64(t *testing.T) {
	img := Image{Bytes: []byte("abc"), MIMEType: "image/png"}
	assert.Equal(t, "YWJj", img.Base64())
}

func TestBuildPage(t *testing.T) {
	input := ChartInput{
		Symbol:    "btcusdt",
		Intervals: []string{"1h", "4h"},
		Candles:   map[string][]market.Candle{"1h": chartCandles(30)},
	}
	html, blocks, err := buildPage(input)
	require.NoError(t, err)

	// Only the interval with data renders a block.
	assert.Equal(t, 1, blocks)
	assert.Contains(t, string(html), "BTCUSDT 1h")
}

func TestBuildPageNoData(t *testing.T) {
	_, _, err := buildPage(ChartInput{Symbol: "BTCUSDT", Intervals: []string{"1h"}})
	assert.Error(t, err)
}

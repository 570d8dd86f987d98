// Package visual renders candlestick charts to PNG for vision-capable
// providers. Rendering needs a headless Chrome; when none is available
// the caller proceeds text-only.
package visual

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"tradelens/internal/market"
)

const (
	colorBackground  = "#060c1b"
	colorTextPrimary = "#eceff4"
	colorTextMuted   = "#9ca3af"
	colorBull        = "#34d399"
	colorBear        = "#f87171"

	chartWidthPx   = 1280
	klineHeightPx  = 520
	volumeHeightPx = 220
)

// ChartInput is one symbol's candles per interval.
type ChartInput struct {
	Symbol    string
	Intervals []string
	Candles   map[string][]market.Candle
}

// Image is a rendered chart ready to attach as an inline prompt part.
type Image struct {
	Bytes    []byte
	MIMEType string
}

func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Bytes)
}

// Render builds a kline+volume page per interval and screenshots it.
func Render(ctx context.Context, input ChartInput) (Image, error) {
	if err := EnsureHeadlessAvailable(ctx); err != nil {
		return Image{}, fmt.Errorf("headless browser unavailable: %w", err)
	}
	if strings.TrimSpace(input.Symbol) == "" {
		return Image{}, fmt.Errorf("symbol required for chart render")
	}
	html, blocks, err := buildPage(input)
	if err != nil {
		return Image{}, err
	}
	height := blocks * (klineHeightPx + volumeHeightPx)
	if height < 520 {
		height = 520
	}
	shot, err := renderHTMLToPNG(ctx, html, chartWidthPx, height)
	if err != nil {
		return Image{}, err
	}
	return Image{Bytes: shot, MIMEType: imageMIME(shot)}, nil
}

// imageMIME labels the screenshot from its actual bytes, not from the
// capture settings; providers reject a mismatched MIME type.
func imageMIME(data []byte) string {
	if mt := http.DetectContentType(data); strings.HasPrefix(mt, "image/") {
		return mt
	}
	return "image/png"
}

var (
	headlessOnce sync.Once
	headlessErr  error
)

// EnsureHeadlessAvailable probes for a usable Chrome once per process.
func EnsureHeadlessAvailable(ctx context.Context) error {
	headlessOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		probe, cancel := chromedp.NewContext(ctx)
		defer cancel()
		headlessErr = chromedp.Run(probe)
	})
	return headlessErr
}

func buildPage(input ChartInput) ([]byte, int, error) {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	blocks := 0

	for _, interval := range input.Intervals {
		candles := input.Candles[interval]
		if len(candles) == 0 {
			continue
		}
		minPrice, maxPrice := priceBounds(candles)
		padding := (maxPrice - minPrice) * 0.05
		if padding <= 0 {
			padding = math.Max(1, math.Abs(maxPrice)*0.01)
		}

		kline := charts.NewKLine()
		kline.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Theme:           types.ThemeWesteros,
				Width:           fmt.Sprintf("%dpx", chartWidthPx),
				Height:          fmt.Sprintf("%dpx", klineHeightPx),
				BackgroundColor: colorBackground,
			}),
			charts.WithTitleOpts(opts.Title{
				Title:      fmt.Sprintf("%s %s", strings.ToUpper(input.Symbol), interval),
				Left:       "left",
				Top:        "10",
				TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			}),
			charts.WithXAxisOpts(opts.XAxis{
				Type:      "category",
				AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
				SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Scale:     opts.Bool(true),
				AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
				Min:       round(minPrice-padding, 4),
				Max:       round(maxPrice+padding, 4),
			}),
		)
		kline.SetSeriesOptions(
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:        colorBull,
				Color0:       colorBear,
				BorderColor:  colorBull,
				BorderColor0: colorBear,
			}),
		)

		xAxis := buildXAxis(candles)
		kline.SetXAxis(xAxis)
		kline.AddSeries("Price", buildKlineSeries(candles))

		page.AddCharts(kline, buildVolumeChart(xAxis, candles))
		blocks++
	}

	if blocks == 0 {
		return nil, 0, fmt.Errorf("no chart data for %s", input.Symbol)
	}
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), blocks, nil
}

func buildXAxis(candles []market.Candle) []string {
	x := make([]string, len(candles))
	for i, c := range candles {
		x[i] = time.UnixMilli(c.CloseTime).UTC().Format("01-02 15:04")
	}
	return x
}

func buildKlineSeries(candles []market.Candle) []opts.KlineData {
	data := make([]opts.KlineData, 0, len(candles))
	for _, c := range candles {
		data = append(data, opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}})
	}
	return data
}

func buildVolumeChart(xAxis []string, candles []market.Candle) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", volumeHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
		}),
	)
	data := make([]opts.BarData, 0, len(candles))
	for _, c := range candles {
		color := colorBull
		if c.Close < c.Open {
			color = colorBear
		}
		data = append(data, opts.BarData{
			Value:     c.Volume,
			ItemStyle: &opts.ItemStyle{Color: color},
		})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Volume", data)
	return bar
}

func priceBounds(candles []market.Candle) (float64, float64) {
	minVal := candles[0].Low
	maxVal := candles[0].High
	for _, c := range candles {
		if c.Low < minVal {
			minVal = c.Low
		}
		if c.High > maxVal {
			maxVal = c.High
		}
	}
	return minVal, maxVal
}

func round(v float64, places int) float64 {
	factor := math.Pow10(places)
	return math.Round(v*factor) / factor
}

func renderHTMLToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		// Quality 100 makes chromedp capture PNG; anything lower
		// switches the format to JPEG.
		chromedp.FullScreenshot(&screenshot, 100),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}

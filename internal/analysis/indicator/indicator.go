// Package indicator computes the technical snapshot that goes into the
// analysis prompt.
package indicator

import (
	"encoding/json"
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"tradelens/internal/market"
)

// Settings carries the tunable periods; zero values pick the defaults.
type Settings struct {
	Symbol    string
	Interval  string
	EMAFast   int
	EMAMid    int
	EMASlow   int
	RSIPeriod int
}

// Value holds one indicator's latest reading and a coarse state label.
type Value struct {
	Latest float64 `json:"latest"`
	State  string  `json:"state,omitempty"`
	Note   string  `json:"note,omitempty"`
}

// Report is the structured snapshot for one symbol+interval.
type Report struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Count    int              `json:"count"`
	Close    float64          `json:"close"`
	Values   map[string]Value `json:"values"`
}

// Compute derives RSI, EMA stack, MACD, ATR and Bollinger band position
// from the candles.
func Compute(candles []market.Candle, cfg Settings) (Report, error) {
	rep := Report{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Count:    len(candles),
		Values:   make(map[string]Value),
	}
	if len(candles) == 0 {
		return rep, fmt.Errorf("no candles for %s %s", cfg.Symbol, cfg.Interval)
	}
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	lastClose := closes[len(closes)-1]
	rep.Close = lastClose

	if cfg.EMAFast <= 0 {
		cfg.EMAFast = 21
	}
	if cfg.EMAMid <= 0 {
		cfg.EMAMid = 50
	}
	if cfg.EMASlow <= 0 {
		cfg.EMASlow = 200
	}
	for name, period := range map[string]int{
		"ema_fast": cfg.EMAFast,
		"ema_mid":  cfg.EMAMid,
		"ema_slow": cfg.EMASlow,
	} {
		if len(closes) < period {
			continue
		}
		v := lastValid(talib.Ema(closes, period))
		rep.Values[name] = Value{
			Latest: v,
			State:  relativeState(lastClose, v),
			Note:   fmt.Sprintf("EMA%d vs price", period),
		}
	}

	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = 14
	}
	if len(closes) > cfg.RSIPeriod {
		rsi := lastValid(talib.Rsi(closes, cfg.RSIPeriod))
		state := "neutral"
		switch {
		case rsi >= 70:
			state = "overbought"
		case rsi <= 30:
			state = "oversold"
		}
		rep.Values["rsi"] = Value{Latest: rsi, State: state, Note: fmt.Sprintf("period=%d", cfg.RSIPeriod)}
	}

	if len(closes) >= 35 {
		_, _, hist := talib.Macd(closes, 12, 26, 9)
		h := lastValid(hist)
		state := "flat"
		switch {
		case h > 0:
			state = "bullish"
		case h < 0:
			state = "bearish"
		}
		rep.Values["macd"] = Value{Latest: h, State: state, Note: "12/26/9 histogram"}
	}

	if len(closes) > 14 {
		atr := lastValid(talib.Atr(highs, lows, closes, 14))
		rep.Values["atr"] = Value{Latest: atr, Note: "period=14"}
	}

	if len(closes) >= 20 {
		upper, middle, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
		u, m, l := lastValid(upper), lastValid(middle), lastValid(lower)
		state := "inside"
		switch {
		case lastClose > u:
			state = "above_upper"
		case lastClose < l:
			state = "below_lower"
		}
		rep.Values["bollinger"] = Value{
			Latest: m,
			State:  state,
			Note:   fmt.Sprintf("upper=%.4f lower=%.4f", u, l),
		}
	}

	return rep, nil
}

// JSON renders the report as a compact prompt block.
func (r Report) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func relativeState(price, ref float64) string {
	switch {
	case ref == 0 || math.IsNaN(ref):
		return "unknown"
	case price > ref:
		return "above"
	case price < ref:
		return "below"
	default:
		return "at"
	}
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0 {
			return v
		}
	}
	return 0
}

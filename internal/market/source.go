package market

import "context"

// Source supplies historical klines for analysis prompts.
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

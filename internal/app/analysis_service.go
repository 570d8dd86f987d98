package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tradelens/internal/ai"
	"tradelens/internal/ai/provider"
	"tradelens/internal/analysis/indicator"
	"tradelens/internal/analysis/visual"
	"tradelens/internal/journal"
	"tradelens/internal/logger"
	"tradelens/internal/market"
	"tradelens/internal/prompt"
	"tradelens/internal/setup"
	apihttp "tradelens/internal/transport/http"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisService orchestrates one analysis end to end: gather market
// context, run the AI manager, extract the setup, journal the verdict.
type AnalysisService struct {
	manager  *ai.Manager
	strategy *prompt.Strategy
	source   market.Source
	store    *journal.Store

	chartEnabled bool
	intervals    []string
	historyLimit int
}

func NewAnalysisService(manager *ai.Manager, strategy *prompt.Strategy, source market.Source, store *journal.Store) *AnalysisService {
	return &AnalysisService{
		manager:      manager,
		strategy:     strategy,
		source:       source,
		store:        store,
		intervals:    []string{"4h", "1h"},
		historyLimit: 200,
	}
}

// EnableCharts turns on server-side chart rendering for the given
// intervals (vision providers get the rendered image as a prompt part).
func (s *AnalysisService) EnableCharts(intervals []string) {
	s.chartEnabled = true
	if len(intervals) > 0 {
		s.intervals = intervals
	}
}

func (s *AnalysisService) SetHistoryLimit(limit int) {
	if limit > 0 {
		s.historyLimit = limit
	}
}

func (s *AnalysisService) Analyze(ctx context.Context, req apihttp.AnalyzeRequest) (journal.Entry, error) {
	parts, symbol, err := s.buildParts(ctx, req)
	if err != nil {
		return journal.Entry{}, err
	}
	system := prompt.SystemInstruction(s.strategy.Rules())

	result, err := s.manager.Analyze(ctx, system, parts)
	if err != nil {
		return journal.Entry{}, err
	}

	entry := journal.Entry{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Mode:        result.Mode,
		Judge:       result.Judge,
		Verdict:     result.CleanText(),
		Transcript:  result.Transcript,
		TotalTokens: result.TotalTokens,
	}
	if parsed, perr := setup.Parse(entry.Verdict); perr != nil {
		// The verdict is still worth journaling when the setup block is
		// malformed; the error is recorded alongside it.
		logger.Warnf("setup extraction failed for %s: %v", symbol, perr)
		entry.SetupError = perr.Error()
	} else if raw, merr := json.Marshal(parsed); merr == nil {
		entry.Setup = datatypes.JSON(raw)
		if entry.Symbol == "" {
			entry.Symbol = parsed.Symbol
		}
	}

	if err := s.store.Insert(ctx, &entry); err != nil {
		return journal.Entry{}, err
	}
	return entry, nil
}

func (s *AnalysisService) ListJournal(ctx context.Context, limit, offset int) ([]journal.Entry, int64, error) {
	return s.store.List(ctx, limit, offset)
}

func (s *AnalysisService) GetJournal(ctx context.Context, id string) (journal.Entry, error) {
	return s.store.Get(ctx, id)
}

// buildParts assembles the user prompt: a market-data block (with an
// optional rendered chart) when a symbol is given, plus any uploaded
// chart images.
func (s *AnalysisService) buildParts(ctx context.Context, req apihttp.AnalyzeRequest) ([]provider.Part, string, error) {
	var parts []provider.Part
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	if symbol != "" {
		reports, candles, err := s.fetchMarketContext(ctx, symbol)
		if err != nil {
			return nil, "", err
		}
		parts = append(parts, provider.TextPart(prompt.MarketBlock(symbol, reports)))
		if note := strings.TrimSpace(req.Note); note != "" {
			parts = append(parts, provider.TextPart("\nTrader's note: "+note+"\n"))
		}
		if s.chartEnabled {
			img, err := visual.Render(ctx, visual.ChartInput{
				Symbol:    symbol,
				Intervals: s.intervals,
				Candles:   candles,
			})
			if err != nil {
				logger.Warnf("chart render skipped for %s: %v", symbol, err)
			} else {
				parts = append(parts, provider.ImagePart(img.MIMEType, img.Base64()))
			}
		}
	} else {
		parts = append(parts, provider.TextPart(prompt.ChartRequest(req.Note)))
	}

	for _, img := range req.Images {
		parts = append(parts, provider.ImagePart(img.MimeType, img.Data))
	}
	return parts, symbol, nil
}

func (s *AnalysisService) fetchMarketContext(ctx context.Context, symbol string) ([]indicator.Report, map[string][]market.Candle, error) {
	reports := make([]indicator.Report, 0, len(s.intervals))
	candles := make(map[string][]market.Candle, len(s.intervals))
	for _, interval := range s.intervals {
		history, err := s.source.FetchHistory(ctx, symbol, interval, s.historyLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("market data for %s %s: %w", symbol, interval, err)
		}
		candles[interval] = history
		rep, err := indicator.Compute(history, indicator.Settings{Symbol: symbol, Interval: interval})
		if err != nil {
			return nil, nil, err
		}
		reports = append(reports, rep)
	}
	return reports, candles, nil
}

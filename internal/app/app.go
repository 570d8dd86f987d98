// Package app wires the process together: configuration in, a running
// HTTP server plus its dependency graph out.
package app

import (
	"context"
	"fmt"
	"time"

	"tradelens/internal/ai"
	"tradelens/internal/ai/provider"
	"tradelens/internal/analysis/visual"
	"tradelens/internal/config"
	"tradelens/internal/gateway/binance"
	"tradelens/internal/journal"
	"tradelens/internal/logger"
	"tradelens/internal/prompt"
	apihttp "tradelens/internal/transport/http"
)

// App owns every long-lived component of the process.
type App struct {
	cfg      *config.Config
	server   *apihttp.Server
	store    *journal.Store
	strategy *prompt.Strategy
}

// Build constructs the full dependency graph from the loaded config.
// Nothing starts running until Run is called.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	registry, err := provider.BuildRegistry(ctx, provider.RegistryOptions{
		GeminiKey:   cfg.AI.ResolvedGeminiKey(),
		GeminiModel: cfg.AI.GeminiModel,

		OpenAIKey:     cfg.AI.OpenAIAPIKey,
		OpenAIBaseURL: cfg.AI.OpenAIBaseURL,
		OpenAIModel:   cfg.AI.OpenAIModel,

		GroqKey:     cfg.AI.GroqAPIKey,
		GroqBaseURL: cfg.AI.GroqBaseURL,
		GroqModel:   cfg.AI.GroqModel,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("providers registered: %v, mode=%s", registry.Ordered(), cfg.AI.PreferredProvider)

	manager := ai.NewManager(registry, ai.Options{
		Mode:    cfg.AI.PreferredProvider,
		Timeout: time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	})

	strategy, err := prompt.LoadStrategy(cfg.Prompt.StrategyPath, cfg.Prompt.HotReload)
	if err != nil {
		return nil, fmt.Errorf("loading strategy rules: %w", err)
	}

	source := binance.New(binance.Config{
		RESTBaseURL: cfg.Market.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
	})

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		strategy.Close()
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	svc := NewAnalysisService(manager, strategy, source, store)
	svc.SetHistoryLimit(cfg.Market.HistoryLimit)
	if cfg.Chart.Enabled {
		if err := visual.EnsureHeadlessAvailable(ctx); err != nil {
			logger.Warnf("chart rendering disabled: %v", err)
		} else {
			svc.EnableCharts(cfg.Chart.Intervals)
		}
	}

	server, err := apihttp.NewServer(cfg.Server.Addr, svc)
	if err != nil {
		store.Close()
		strategy.Close()
		return nil, err
	}

	return &App{cfg: cfg, server: server, store: store, strategy: strategy}, nil
}

// Run serves HTTP until ctx is cancelled, then releases resources.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	logger.Infof("listening on %s", a.cfg.Server.Addr)
	return a.server.Run(ctx)
}

func (a *App) Close() {
	if a.strategy != nil {
		a.strategy.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("closing journal: %v", err)
		}
	}
}

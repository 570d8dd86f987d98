package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tradelens/internal/app"
	"tradelens/internal/config"
	"tradelens/internal/logger"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	closeLogs, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Errorf("build failed: %v", err)
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		logger.Errorf("server exited: %v", err)
		os.Exit(1)
	}
	logger.Infof("shutdown complete")
}

func defaultConfigPath() string {
	if p := os.Getenv("TRADELENS_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

// setupLogging wires the main log (stderr plus an optional file) and the
// separate LLM exchange dump. The returned func closes both files.
func setupLogging(cfg *config.Config) (func(), error) {
	logger.SetLevel(cfg.App.LogLevel)

	var closers []io.Closer
	if cfg.App.LogPath != "" {
		f, err := openLogFile(cfg.App.LogPath)
		if err != nil {
			return nil, err
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, f))
		closers = append(closers, f)
	}
	if cfg.App.LLMLog != "" {
		f, err := openLogFile(cfg.App.LLMLog)
		if err != nil {
			return nil, err
		}
		logger.SetLLMWriter(f)
		closers = append(closers, f)
	}
	return func() {
		for _, c := range closers {
			c.Close()
		}
	}, nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

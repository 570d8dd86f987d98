package config

import (
	"fmt"
	"strings"
)

func validate(cfg *Config) error {
	switch cfg.AI.PreferredProvider {
	case "gemini", "openai", "groq", "council":
	default:
		return fmt.Errorf("ai.preferred_provider must be gemini, openai, groq or council, got %q", cfg.AI.PreferredProvider)
	}
	if cfg.AI.UseDefaultGeminiKey && strings.TrimSpace(cfg.AI.DefaultGeminiKey) == "" {
		return fmt.Errorf("ai.use_default_gemini_key is set but ai.default_gemini_key is empty")
	}
	// A single-provider selection without a key would fail on every call, so
	// reject it at load time. Council tolerates missing keys per provider.
	switch cfg.AI.PreferredProvider {
	case "gemini":
		if cfg.AI.ResolvedGeminiKey() == "" {
			return fmt.Errorf("ai.preferred_provider=gemini requires ai.gemini_api_key")
		}
	case "openai":
		if strings.TrimSpace(cfg.AI.OpenAIAPIKey) == "" {
			return fmt.Errorf("ai.preferred_provider=openai requires ai.openai_api_key")
		}
	case "groq":
		if strings.TrimSpace(cfg.AI.GroqAPIKey) == "" {
			return fmt.Errorf("ai.preferred_provider=groq requires ai.groq_api_key")
		}
	}
	if strings.TrimSpace(cfg.Prompt.StrategyPath) == "" {
		return fmt.Errorf("prompt.strategy_path is required")
	}
	return nil
}

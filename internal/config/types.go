package config

import "strings"

// Config is the top-level configuration carrier for tradelens.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	AI      AIConfig      `mapstructure:"ai"`
	Market  MarketConfig  `mapstructure:"market"`
	Chart   ChartConfig   `mapstructure:"chart"`
	Prompt  PromptConfig  `mapstructure:"prompt"`
	Journal JournalConfig `mapstructure:"journal"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AIConfig holds provider credentials, model names and the analysis mode.
// A provider participates in council mode if and only if its key is set.
type AIConfig struct {
	// PreferredProvider is one of "gemini", "openai", "groq" or "council".
	PreferredProvider string `mapstructure:"preferred_provider"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	GroqAPIKey   string `mapstructure:"groq_api_key"`

	GeminiModel string `mapstructure:"gemini_model"`
	OpenAIModel string `mapstructure:"openai_model"`
	GroqModel   string `mapstructure:"groq_model"`

	// Base URL overrides for the OpenAI-compatible backends.
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	GroqBaseURL   string `mapstructure:"groq_base_url"`

	// UseDefaultGeminiKey enables the bundled fallback key when no
	// gemini_api_key is supplied. Off by default so tests and deployments
	// can assert key presence deterministically.
	UseDefaultGeminiKey bool   `mapstructure:"use_default_gemini_key"`
	DefaultGeminiKey    string `mapstructure:"default_gemini_key"`

	// TimeoutSeconds bounds every single provider call, judge included.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ProviderNames returns the providers that have a usable credential, in
// registration order. The order is stable so council transcripts do not
// depend on call-completion timing.
func (c AIConfig) ProviderNames() []string {
	var out []string
	if strings.TrimSpace(c.ResolvedGeminiKey()) != "" {
		out = append(out, "gemini")
	}
	if strings.TrimSpace(c.OpenAIAPIKey) != "" {
		out = append(out, "openai")
	}
	if strings.TrimSpace(c.GroqAPIKey) != "" {
		out = append(out, "groq")
	}
	return out
}

// ResolvedGeminiKey applies the explicit fallback-key option.
func (c AIConfig) ResolvedGeminiKey() string {
	key := strings.TrimSpace(c.GeminiAPIKey)
	if key != "" {
		return key
	}
	if c.UseDefaultGeminiKey {
		return strings.TrimSpace(c.DefaultGeminiKey)
	}
	return ""
}

type MarketConfig struct {
	RESTBaseURL    string `mapstructure:"rest_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	HistoryLimit   int    `mapstructure:"history_limit"`
}

// ChartConfig controls the optional headless chart render attached to
// vision-capable providers.
type ChartConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Intervals []string `mapstructure:"intervals"`
}

type PromptConfig struct {
	StrategyPath string `mapstructure:"strategy_path"`
	HotReload    bool   `mapstructure:"hot_reload"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

package config

import "strings"

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o"
	DefaultGroqModel   = "llama-3.3-70b-versatile"

	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.App.Env) == "" {
		c.App.Env = "dev"
	}
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = "info"
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":9980"
	}
	if strings.TrimSpace(c.AI.PreferredProvider) == "" {
		c.AI.PreferredProvider = "council"
	}
	c.AI.PreferredProvider = strings.ToLower(strings.TrimSpace(c.AI.PreferredProvider))
	if strings.TrimSpace(c.AI.GeminiModel) == "" {
		c.AI.GeminiModel = DefaultGeminiModel
	}
	if strings.TrimSpace(c.AI.OpenAIModel) == "" {
		c.AI.OpenAIModel = DefaultOpenAIModel
	}
	if strings.TrimSpace(c.AI.GroqModel) == "" {
		c.AI.GroqModel = DefaultGroqModel
	}
	if strings.TrimSpace(c.AI.GroqBaseURL) == "" {
		c.AI.GroqBaseURL = defaultGroqBaseURL
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 90
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = 15
	}
	if c.Market.HistoryLimit <= 0 {
		c.Market.HistoryLimit = 200
	}
	if len(c.Chart.Intervals) == 0 {
		c.Chart.Intervals = []string{"4h", "1h"}
	}
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = "data/journal.db"
	}
}

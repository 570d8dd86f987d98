package provider

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIChat adapts any OpenAI-compatible chat-completion backend. It
// serves both the OpenAI provider and Groq (same wire protocol, Groq
// base URL).
type OpenAIChat struct {
	name   string
	client *openai.Client
	model  string
	hasKey bool
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAIChat {
	return newOpenAICompatible("openai", apiKey, baseURL, model)
}

func NewGroq(apiKey, baseURL, model string) *OpenAIChat {
	return newOpenAICompatible("groq", apiKey, baseURL, model)
}

func newOpenAICompatible(name, apiKey, baseURL, model string) *OpenAIChat {
	p := &OpenAIChat{name: name, model: model}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return p
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	p.client = openai.NewClientWithConfig(cfg)
	p.hasKey = true
	return p
}

func (p *OpenAIChat) Name() string { return p.name }

func (p *OpenAIChat) Generate(ctx context.Context, req Request) (Response, error) {
	if !p.hasKey {
		return Response{}, wrapErr(p.name, ErrMissingCredential)
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, userMessage(req.Parts))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return Response{}, wrapErr(p.name, err)
	}
	out := Response{Usage: Usage{TotalTokens: resp.Usage.TotalTokens}}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}

// userMessage folds Parts into one user message. Pure text stays a plain
// content string; any image switches to the multi-content shape with
// data-URL entries.
func userMessage(parts []Part) openai.ChatCompletionMessage {
	hasImage := false
	for _, p := range parts {
		if p.InlineData != nil {
			hasImage = true
			break
		}
	}
	if !hasImage {
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(p.Text)
		}
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: b.String()}
	}
	content := make([]openai.ChatMessagePart, 0, len(parts))
	for _, p := range parts {
		if p.InlineData == nil {
			content = append(content, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
			continue
		}
		content = append(content, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    DataURL(*p.InlineData),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: content}
}

// BuildRegistry assembles the dispatch table from whatever credentials are
// present, in fixed registration order: gemini, openai, groq.
func BuildRegistry(ctx context.Context, opts RegistryOptions) (*Registry, error) {
	var providers []Provider
	if strings.TrimSpace(opts.GeminiKey) != "" {
		g, err := NewGemini(ctx, opts.GeminiKey, opts.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("building gemini provider: %w", err)
		}
		providers = append(providers, g)
	}
	if strings.TrimSpace(opts.OpenAIKey) != "" {
		providers = append(providers, NewOpenAI(opts.OpenAIKey, opts.OpenAIBaseURL, opts.OpenAIModel))
	}
	if strings.TrimSpace(opts.GroqKey) != "" {
		providers = append(providers, NewGroq(opts.GroqKey, opts.GroqBaseURL, opts.GroqModel))
	}
	return NewRegistry(providers...), nil
}

// RegistryOptions lists the per-provider credentials and defaults. A
// provider with an empty key is skipped entirely, never registered.
type RegistryOptions struct {
	GeminiKey   string
	GeminiModel string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	GroqKey     string
	GroqBaseURL string
	GroqModel   string
}

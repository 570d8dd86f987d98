package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini adapts the google.golang.org/genai client to the Provider
// contract. The client is built once at startup and reused across calls.
type Gemini struct {
	client *genai.Client
	model  string
	hasKey bool
}

// NewGemini constructs the adapter. An empty key produces an adapter
// whose Generate fails with ErrMissingCredential before any network call.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	g := &Gemini{model: model}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	g.client = client
	g.hasKey = true
	return g, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, req Request) (Response, error) {
	if !g.hasKey {
		return Response{}, wrapErr(g.Name(), ErrMissingCredential)
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.model
	}
	parts, err := geminiParts(req.Parts)
	if err != nil {
		return Response{}, wrapErr(g.Name(), err)
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return Response{}, wrapErr(g.Name(), err)
	}
	out := Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

func geminiParts(parts []Part) ([]*genai.Part, error) {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.InlineData == nil {
			out = append(out, &genai.Part{Text: p.Text})
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding inline image: %w", err)
		}
		out = append(out, &genai.Part{
			InlineData: &genai.Blob{MIMEType: p.InlineData.MIMEType, Data: raw},
		})
	}
	return out, nil
}

package provider

import "context"

// Part is one typed fragment of a multimodal prompt: either text or an
// inline base64 image. Exactly one field is set.
type Part struct {
	Text       string
	InlineData *InlineData
}

// InlineData carries an image payload as base64 plus its MIME type.
type InlineData struct {
	MIMEType string
	Data     string
}

// TextPart builds a text-only Part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline-image Part.
func ImagePart(mimeType, base64Data string) Part {
	return Part{InlineData: &InlineData{MIMEType: mimeType, Data: base64Data}}
}

// Request is the uniform call shape every adapter accepts.
type Request struct {
	// System establishes the persona and trading-strategy rules.
	System string
	// Parts is the user content, in order.
	Parts []Part
	// Model overrides the adapter's default model when non-empty.
	Model string
}

type Usage struct {
	TotalTokens int
}

// Response is the normalized adapter output. Text is "" (never absent)
// when the backend returns no content.
type Response struct {
	Text  string
	Usage Usage
}

// Provider is one hosted LLM backend. Generate performs exactly one
// outbound call; it never retries and keeps no local state.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

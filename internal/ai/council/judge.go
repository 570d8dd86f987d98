package council

import (
	"context"
	"fmt"
	"strings"

	"tradelens/internal/ai/provider"
	"tradelens/internal/logger"
)

// Sentinel markers wrapping the appended transcript so callers can strip
// it for clean display.
const (
	TranscriptStart = "<<<COUNCIL_TRANSCRIPT_START>>>"
	TranscriptEnd   = "<<<COUNCIL_TRANSCRIPT_END>>>"
)

const transcriptSeparator = "----------------------------------------"

// judge selects the synthesis provider, builds the reconciliation prompt
// and performs the final call under the ORIGINAL system instruction.
func (c *Council) judge(ctx context.Context, system string, successes []Outcome) (Verdict, error) {
	judge, err := c.selectJudge()
	if err != nil {
		return Verdict{}, err
	}

	transcript := buildTranscript(successes)
	prompt := buildJudgePrompt(transcript)

	logger.LogLLMRequest("judge", judge.Name(), "council synthesis", system, prompt, nil)

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := judge.Generate(callCtx, provider.Request{
		System: system,
		Parts:  []provider.Part{provider.TextPart(prompt)},
	})
	logger.LogLLMResponse("judge", judge.Name(), "council synthesis", resp.Text)
	if err != nil {
		// No second-level fallback: a judge failure surfaces as-is.
		return Verdict{}, err
	}

	total := resp.Usage.TotalTokens
	for _, s := range successes {
		total += s.Tokens
	}
	return Verdict{
		Text:        resp.Text + "\n\n" + TranscriptStart + "\n" + transcript + TranscriptEnd,
		JudgeText:   resp.Text,
		Transcript:  transcript,
		Judge:       judge.Name(),
		TotalTokens: total,
	}, nil
}

// selectJudge prefers OpenAI when configured, else Gemini. Groq never
// judges. The rule depends only on the credential set, never on timing.
func (c *Council) selectJudge() (provider.Provider, error) {
	if p, ok := c.registry.Get("openai"); ok {
		return p, nil
	}
	if p, ok := c.registry.Get("gemini"); ok {
		return p, nil
	}
	return nil, &provider.Error{Provider: "gemini", Err: provider.ErrMissingCredential}
}

func buildTranscript(successes []Outcome) string {
	var b strings.Builder
	for _, s := range successes {
		fmt.Fprintf(&b, "--- %s OPINION ---\n", strings.ToUpper(s.Provider))
		b.WriteString(strings.TrimSpace(s.Text))
		b.WriteString("\n")
		b.WriteString(transcriptSeparator)
		b.WriteString("\n")
	}
	return b.String()
}

func buildJudgePrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are the final judge of a council of independent expert analysts. ")
	b.WriteString("Each analyst answered the same request under the same rules; their raw opinions follow.\n\n")
	b.WriteString("Reconcile them into exactly one verdict:\n")
	b.WriteString("- Reject any proposed output that violates the rules in your system instructions.\n")
	b.WriteString("- When opinions disagree, prefer the consensus over an outlier claim.\n")
	b.WriteString("- Answer in the exact output format your system instructions require.\n")
	b.WriteString("- Do not mention the council, the other analysts, or this reconciliation process.\n\n")
	b.WriteString("COUNCIL OPINIONS:\n\n")
	b.WriteString(transcript)
	return b.String()
}

// StripTranscript removes the appended transcript block, returning the
// clean verdict text. Text without markers passes through unchanged.
func StripTranscript(text string) string {
	start := strings.Index(text, TranscriptStart)
	if start < 0 {
		return text
	}
	end := strings.Index(text, TranscriptEnd)
	if end < 0 {
		return strings.TrimSpace(text[:start])
	}
	return strings.TrimSpace(text[:start] + text[end+len(TranscriptEnd):])
}

// ExtractTranscript returns the transcript block, if present.
func ExtractTranscript(text string) (string, bool) {
	start := strings.Index(text, TranscriptStart)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(TranscriptStart):]
	end := strings.Index(rest, TranscriptEnd)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// Package ai exposes the analysis manager: one entry point that routes a
// request either to a single provider or to the full council.
package ai

import (
	"context"
	"fmt"
	"time"

	"tradelens/internal/ai/council"
	"tradelens/internal/ai/provider"
	"tradelens/internal/logger"
)

// ModeCouncil queries every configured provider and reconciles their
// answers; any other mode value names a single provider.
const ModeCouncil = "council"

// Result is what callers get back from an analysis.
type Result struct {
	// Text is the verdict. In council mode it still contains the
	// transcript block; CleanText strips it.
	Text string
	// Transcript holds the per-provider opinions (council mode only).
	Transcript string
	// Judge names the synthesis provider (council mode only).
	Judge string
	// Mode echoes the path taken: a provider name or ModeCouncil.
	Mode        string
	TotalTokens int
}

// CleanText returns the verdict without the appended transcript block.
func (r Result) CleanText() string {
	return council.StripTranscript(r.Text)
}

// Manager routes analysis requests. Build one per process; it owns no
// mutable state beyond the injected registry.
type Manager struct {
	registry *provider.Registry
	council  *council.Council
	mode     string
	timeout  time.Duration
}

// Options configures a Manager.
type Options struct {
	// Mode is a provider name or ModeCouncil.
	Mode string
	// Timeout bounds each provider call. Zero means no bound.
	Timeout time.Duration
}

func NewManager(registry *provider.Registry, opts Options) *Manager {
	mode := opts.Mode
	if mode == "" {
		mode = ModeCouncil
	}
	return &Manager{
		registry: registry,
		council:  council.New(registry, opts.Timeout),
		mode:     mode,
		timeout:  opts.Timeout,
	}
}

// Mode reports the configured analysis mode.
func (m *Manager) Mode() string { return m.mode }

// Analyze runs one analysis request. The system instruction carries the
// trading-strategy rules; parts carry market data and any chart images.
func (m *Manager) Analyze(ctx context.Context, system string, parts []provider.Part) (Result, error) {
	if m.mode == ModeCouncil {
		return m.analyzeCouncil(ctx, system, parts)
	}
	return m.analyzeSingle(ctx, system, parts)
}

// analyzeSingle maps the selection 1:1 onto one adapter call and returns
// its output unchanged.
func (m *Manager) analyzeSingle(ctx context.Context, system string, parts []provider.Part) (Result, error) {
	p, ok := m.registry.Get(m.mode)
	if !ok {
		return Result{}, &provider.Error{Provider: m.mode, Err: provider.ErrMissingCredential}
	}
	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	logger.LogLLMRequest("single", p.Name(), "analysis", system, flattenText(parts), imageNotes(parts))
	resp, err := p.Generate(callCtx, provider.Request{System: system, Parts: parts})
	logger.LogLLMResponse("single", p.Name(), "analysis", resp.Text)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:        resp.Text,
		Mode:        p.Name(),
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

func (m *Manager) analyzeCouncil(ctx context.Context, system string, parts []provider.Part) (Result, error) {
	verdict, err := m.council.Run(ctx, system, parts)
	if err != nil {
		return Result{}, err
	}
	logger.Infof("council verdict by %s (%d tokens, %d dissents failed)",
		verdict.Judge, verdict.TotalTokens, len(verdict.Failures))
	return Result{
		Text:        verdict.Text,
		Transcript:  verdict.Transcript,
		Judge:       verdict.Judge,
		Mode:        ModeCouncil,
		TotalTokens: verdict.TotalTokens,
	}, nil
}

func flattenText(parts []provider.Part) string {
	var out string
	for _, p := range parts {
		if p.InlineData == nil {
			out += p.Text
		}
	}
	return out
}

func imageNotes(parts []provider.Part) []string {
	var notes []string
	for _, p := range parts {
		if p.InlineData != nil {
			notes = append(notes, fmt.Sprintf("%s (%d base64 bytes)", p.InlineData.MIMEType, len(p.InlineData.Data)))
		}
	}
	return notes
}

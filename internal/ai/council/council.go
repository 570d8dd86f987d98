// Package council fans one analysis request out to every configured
// provider, tolerates per-provider failure, and synthesizes the surviving
// opinions into a single verdict through a judge call.
package council

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradelens/internal/ai/provider"
	"tradelens/internal/logger"

	"golang.org/x/sync/errgroup"
)

// ErrAllProvidersFailed is the council's single terminal error: every
// attempted provider failed (or none were configured). It is never
// recovered internally.
var ErrAllProvidersFailed = errors.New("all providers failed")

// Outcome is the settled result of one provider call. Err and the
// text/token fields are mutually exclusive.
type Outcome struct {
	Provider string
	Text     string
	Tokens   int
	Err      error
}

// Verdict is the council's final product.
type Verdict struct {
	// Text is the judge's answer with the transcript block appended
	// between the sentinel markers.
	Text string
	// JudgeText is the judge's answer alone.
	JudgeText string
	// Transcript concatenates every successful opinion in registration
	// order, tagged by provider.
	Transcript string
	// Judge names the provider that performed the synthesis.
	Judge string
	// TotalTokens sums every successful provider call plus the judge
	// call. Failed providers bill nothing.
	TotalTokens int
	// Failures records the providers that errored, for diagnostics.
	Failures []Outcome
}

// Council coordinates the fan-out and the judge step.
type Council struct {
	registry *provider.Registry
	timeout  time.Duration
}

// New builds a council over the registry. timeout bounds each individual
// provider call, judge included; zero disables the bound.
func New(registry *provider.Registry, timeout time.Duration) *Council {
	return &Council{registry: registry, timeout: timeout}
}

// Run queries every registered provider concurrently, waits for all of
// them to settle, and judges the successes. The join is total: synthesis
// never starts while any call is outstanding.
func (c *Council) Run(ctx context.Context, system string, parts []provider.Part) (Verdict, error) {
	providers := c.registry.Ordered()
	if len(providers) == 0 {
		return Verdict{}, ErrAllProvidersFailed
	}

	// One slot per provider keeps the collection race-free and pins the
	// transcript to registration order regardless of completion order.
	outcomes := make([]Outcome, len(providers))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		eg.Go(func() error {
			outcomes[i] = c.callOne(egCtx, p, system, parts)
			return nil
		})
	}
	_ = eg.Wait()

	successes := make([]Outcome, 0, len(outcomes))
	failures := make([]Outcome, 0)
	for _, out := range outcomes {
		if out.Err != nil {
			logger.Warnf("council: provider %s failed: %v", out.Provider, out.Err)
			failures = append(failures, out)
			continue
		}
		successes = append(successes, out)
	}
	if len(successes) == 0 {
		return Verdict{Failures: failures}, ErrAllProvidersFailed
	}

	verdict, err := c.judge(ctx, system, successes)
	if err != nil {
		return Verdict{Failures: failures}, err
	}
	verdict.Failures = failures
	return verdict, nil
}

func (c *Council) callOne(ctx context.Context, p provider.Provider, system string, parts []provider.Part) (out Outcome) {
	out.Provider = p.Name()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Provider: p.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.Generate(callCtx, provider.Request{System: system, Parts: parts})
	if err != nil {
		out.Err = err
		return out
	}
	logger.Debugf("council: provider %s answered in %s (%d tokens)",
		p.Name(), time.Since(start).Truncate(time.Millisecond), resp.Usage.TotalTokens)
	out.Text = resp.Text
	out.Tokens = resp.Usage.TotalTokens
	return out
}

package council

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tradelens/internal/ai/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   string
	text   string
	tokens int
	err    error
	delay  time.Duration

	calls    int
	lastReq  provider.Request
	panicMsg string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	s.calls++
	s.lastReq = req
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return provider.Response{}, ctx.Err()
		}
	}
	if s.err != nil {
		return provider.Response{}, s.err
	}
	return provider.Response{Text: s.text, Usage: provider.Usage{TotalTokens: s.tokens}}, nil
}

func newCouncil(t *testing.T, providers ...provider.Provider) *Council {
	t.Helper()
	return New(provider.NewRegistry(providers...), 0)
}

func TestRunAllSucceed(t *testing.T) {
	gemini := &stubProvider{name: "gemini", text: "long BTC", tokens: 120}
	oaiJudge := &stubProvider{name: "openai", text: "judged verdict", tokens: 200}
	groq := &stubProvider{name: "groq", text: "short BTC", tokens: 95}

	c := newCouncil(t, gemini, oaiJudge, groq)
	v, err := c.Run(context.Background(), "sys", []provider.Part{provider.TextPart("analyze BTC")})
	require.NoError(t, err)

	assert.Equal(t, "openai", v.Judge)
	assert.Equal(t, "judged verdict", v.JudgeText)
	assert.Empty(t, v.Failures)

	// openai serves twice: once as a council member, once as the judge.
	// Its council opinion and the judge call both bill tokens.
	assert.Equal(t, 120+200+95+200, v.TotalTokens)

	assert.Contains(t, v.Text, TranscriptStart)
	assert.Contains(t, v.Text, TranscriptEnd)
	assert.True(t, strings.HasPrefix(v.Text, "judged verdict"))
}

func TestRunTranscriptOrder(t *testing.T) {
	gemini := &stubProvider{name: "gemini", text: "gemini says up", tokens: 10, delay: 30 * time.Millisecond}
	oai := &stubProvider{name: "openai", text: "openai says down", tokens: 10}
	groq := &stubProvider{name: "groq", text: "groq says flat", tokens: 10}

	c := newCouncil(t, gemini, oai, groq)
	v, err := c.Run(context.Background(), "sys", []provider.Part{provider.TextPart("q")})
	require.NoError(t, err)

	// Registration order, not completion order: gemini finished last but
	// still leads the transcript.
	gi := strings.Index(v.Transcript, "--- GEMINI OPINION ---")
	oi := strings.Index(v.Transcript, "--- OPENAI OPINION ---")
	qi := strings.Index(v.Transcript, "--- GROQ OPINION ---")
	require.True(t, gi >= 0 && oi >= 0 && qi >= 0)
	assert.Less(t, gi, oi)
	assert.Less(t, oi, qi)
}

func TestRunPartialFailure(t *testing.T) {
	gemini := &stubProvider{name: "gemini", err: errors.New("quota exceeded")}
	oai := &stubProvider{name: "openai", text: "survivor verdict", tokens: 80}

	c := newCouncil(t, gemini, oai)
	v, err := c.Run(context.Background(), "sys", []provider.Part{provider.TextPart("q")})
	require.NoError(t, err)

	assert.NotContains(t, v.Transcript, "GEMINI")
	assert.Contains(t, v.Transcript, "OPENAI")
	require.Len(t, v.Failures, 1)
	assert.Equal(t, "gemini", v.Failures[0].Provider)

	// The failed provider bills nothing: openai's opinion plus its own
	// judge call.
	assert.Equal(t, 160, v.TotalTokens)
}

func TestRunAllFail(t *testing.T) {
	gemini := &stubProvider{name: "gemini", err: errors.New("boom")}
	oai := &stubProvider{name: "openai", err: errors.New("bust")}

	c := newCouncil(t, gemini, oai)
	_, err := c.Run(context.Background(), "sys", []provider.Part{provider.TextPart("q")})
	assert.ErrorIs(t, err, ErrAllProvidersFailed)

	// The judge step never ran: each provider served exactly one
	// (failing) council call.
	assert.Equal(t, 1, gemini.calls)
	assert.Equal(t, 1, oai.calls)
}

func TestRunEmptyRegistry(t *testing.T) {
	c := newCouncil(t)
	_, err := c.Run(context.Background(), "sys", nil)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestRunPanicIsolated(t *testing.T) {
	bad := &stubProvider{name: "gemini", panicMsg: "nil deref"}
	oai := &stubProvider{name: "openai", text: "still fine", tokens: 5}

	c := newCouncil(t, bad, oai)
	v, err := c.Run(context.Background(), "sys", []provider.Part{provider.TextPart("q")})
	require.NoError(t, err)
	require.Len(t, v.Failures, 1)
	assert.Contains(t, v.Failures[0].Err.Error(), "panic")
	assert.Equal(t, "openai", v.Judge)
}

func TestRunTimeoutBoundsEachCall(t *testing.T) {
	slow := &stubProvider{name: "gemini", text: "late", tokens: 5, delay: 200 * time.Millisecond}
	fast := &stubProvider{name: "openai", text: "on time", tokens: 5}

	c := New(provider.NewRegistry(slow, fast), 30*time.Millisecond)
	v, err := c.Run(context.Background(), "sys", []provider.Part{provider.TextPart("q")})
	require.NoError(t, err)
	require.Len(t, v.Failures, 1)
	assert.Equal(t, "gemini", v.Failures[0].Provider)
	assert.ErrorIs(t, v.Failures[0].Err, context.DeadlineExceeded)
}

func TestJudgeSelection(t *testing.T) {
	t.Run("prefers openai", func(t *testing.T) {
		gemini := &stubProvider{name: "gemini", text: "a", tokens: 1}
		oai := &stubProvider{name: "openai", text: "b", tokens: 1}
		v, err := newCouncil(t, gemini, oai).Run(context.Background(), "s", []provider.Part{provider.TextPart("q")})
		require.NoError(t, err)
		assert.Equal(t, "openai", v.Judge)
	})

	t.Run("falls back to gemini", func(t *testing.T) {
		gemini := &stubProvider{name: "gemini", text: "a", tokens: 1}
		groq := &stubProvider{name: "groq", text: "b", tokens: 1}
		v, err := newCouncil(t, gemini, groq).Run(context.Background(), "s", []provider.Part{provider.TextPart("q")})
		require.NoError(t, err)
		assert.Equal(t, "gemini", v.Judge)
	})

	t.Run("groq never judges", func(t *testing.T) {
		groq := &stubProvider{name: "groq", text: "only opinion", tokens: 1}
		_, err := newCouncil(t, groq).Run(context.Background(), "s", []provider.Part{provider.TextPart("q")})
		var perr *provider.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "gemini", perr.Provider)
		assert.ErrorIs(t, err, provider.ErrMissingCredential)
	})
}

func TestJudgeFailureSurfaces(t *testing.T) {
	gemini := &stubProvider{name: "gemini", text: "a", tokens: 1}
	judgeErr := errors.New("judge down")
	oai := &flakyProvider{name: "openai", firstText: "b", secondErr: judgeErr}

	c := newCouncil(t, gemini, oai)
	_, err := c.Run(context.Background(), "s", []provider.Part{provider.TextPart("q")})
	assert.ErrorIs(t, err, judgeErr)
}

// flakyProvider answers its first call and fails the second, standing in
// for a provider that survives the council round but dies as judge.
type flakyProvider struct {
	name      string
	firstText string
	secondErr error
	calls     int
}

func (f *flakyProvider) Name() string { return f.name }

func (f *flakyProvider) Generate(context.Context, provider.Request) (provider.Response, error) {
	f.calls++
	if f.calls == 1 {
		return provider.Response{Text: f.firstText, Usage: provider.Usage{TotalTokens: 1}}, nil
	}
	return provider.Response{}, f.secondErr
}

func TestJudgeKeepsOriginalSystem(t *testing.T) {
	gemini := &stubProvider{name: "gemini", text: "opinion", tokens: 1}
	oai := &stubProvider{name: "openai", text: "verdict", tokens: 1}

	c := newCouncil(t, gemini, oai)
	_, err := c.Run(context.Background(), "the original persona", []provider.Part{provider.TextPart("q")})
	require.NoError(t, err)
	// The judge call is openai's second; lastReq captures it.
	assert.Equal(t, "the original persona", oai.lastReq.System)
	require.Len(t, oai.lastReq.Parts, 1)
	assert.Contains(t, oai.lastReq.Parts[0].Text, "COUNCIL OPINIONS:")
	assert.Contains(t, oai.lastReq.Parts[0].Text, "--- GEMINI OPINION ---")
}

func TestStripTranscript(t *testing.T) {
	t.Run("removes block", func(t *testing.T) {
		text := "verdict\n\n" + TranscriptStart + "\nnoise\n" + TranscriptEnd
		assert.Equal(t, "verdict", StripTranscript(text))
	})
	t.Run("passthrough without markers", func(t *testing.T) {
		assert.Equal(t, "plain", StripTranscript("plain"))
	})
	t.Run("missing end marker", func(t *testing.T) {
		text := "verdict\n" + TranscriptStart + "\ntruncated"
		assert.Equal(t, "verdict", StripTranscript(text))
	})
}

func TestExtractTranscript(t *testing.T) {
	text := "verdict\n\n" + TranscriptStart + "\ninner\n" + TranscriptEnd
	got, ok := ExtractTranscript(text)
	require.True(t, ok)
	assert.Equal(t, "inner", got)

	_, ok = ExtractTranscript("no markers here")
	assert.False(t, ok)
}

package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := Entry{
		ID:          "abc-123",
		Symbol:      "BTCUSDT",
		Mode:        "council",
		Judge:       "openai",
		Verdict:     "long it",
		Transcript:  "--- GEMINI OPINION ---\n...",
		Setup:       datatypes.JSON(`{"direction":"long"}`),
		TotalTokens: 415,
	}
	require.NoError(t, s.Insert(ctx, &e))
	assert.False(t, e.CreatedAt.IsZero())

	got, err := s.Get(ctx, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, "openai", got.Judge)
	assert.Equal(t, 415, got.TotalTokens)
	assert.JSONEq(t, `{"direction":"long"}`, string(got.Setup))
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		e := Entry{
			ID:        fmt.Sprintf("id-%d", i),
			Symbol:    "ETHUSDT",
			Mode:      "gemini",
			Verdict:   "v",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Insert(ctx, &e))
	}

	entries, total, err := s.List(ctx, 3, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, entries, 3)
	assert.Equal(t, "id-4", entries[0].ID)
	assert.Equal(t, "id-2", entries[2].ID)

	page2, _, err := s.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "id-1", page2[0].ID)
}

func TestListClampsLimit(t *testing.T) {
	s := openTestStore(t)
	entries, total, err := s.List(context.Background(), -5, -1)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

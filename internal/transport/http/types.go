package apihttp

import (
	"context"

	"tradelens/internal/journal"
)

// AnalyzeRequest is the POST /api/analyze body. Either a symbol (market
// data is fetched and charted server-side) or uploaded chart images must
// be present; both together are allowed.
type AnalyzeRequest struct {
	Symbol string        `json:"symbol"`
	Note   string        `json:"note"`
	Images []InlineImage `json:"images"`
}

// InlineImage is an uploaded chart image, base64-encoded.
type InlineImage struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// AnalysisService is implemented by the application layer.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (journal.Entry, error)
	ListJournal(ctx context.Context, limit, offset int) ([]journal.Entry, int64, error)
	GetJournal(ctx context.Context, id string) (journal.Entry, error)
}

type journalPage struct {
	Entries []journal.Entry `json:"entries"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

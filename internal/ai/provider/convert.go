package provider

import (
	"fmt"
	"strings"
)

// The Gemini API takes inline images as mimeType+base64 blobs while the
// OpenAI-compatible APIs take data URLs. Both conversions must preserve
// the MIME type and payload byte-for-byte.

// DataURL renders inline data in the OpenAI content-entry shape.
func DataURL(d InlineData) string {
	return fmt.Sprintf("data:%s;base64,%s", d.MIMEType, d.Data)
}

// ParseDataURL parses a base64 data URL back into inline data.
func ParseDataURL(url string) (InlineData, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return InlineData{}, fmt.Errorf("not a data URL: %q", truncateForError(url))
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return InlineData{}, fmt.Errorf("data URL missing payload: %q", truncateForError(url))
	}
	mimeType, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return InlineData{}, fmt.Errorf("data URL is not base64-encoded: %q", truncateForError(url))
	}
	if mimeType == "" {
		return InlineData{}, fmt.Errorf("data URL has no MIME type")
	}
	return InlineData{MIMEType: mimeType, Data: payload}, nil
}

func truncateForError(s string) string {
	const max = 48
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

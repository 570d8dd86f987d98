// Package setup extracts and validates the structured trade setup that
// the output contract requires inside every verdict.
package setup

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["symbol", "direction", "confidence"],
  "properties": {
    "symbol": {"type": "string", "minLength": 1},
    "direction": {"enum": ["long", "short", "neutral"]},
    "entry": {"type": "number"},
    "stop_loss": {"type": "number"},
    "targets": {"type": "array", "items": {"type": "number"}},
    "confidence": {"type": "integer", "minimum": 0, "maximum": 100},
    "rationale": {"type": "string"}
  }
}`

var setupSchema = jsonschema.MustCompileString("setup.json", schemaJSON)

// Setup is a validated trade plan parsed out of a verdict.
type Setup struct {
	Symbol     string            `json:"symbol"`
	Direction  string            `json:"direction"`
	Entry      decimal.Decimal   `json:"entry"`
	StopLoss   decimal.Decimal   `json:"stop_loss"`
	Targets    []decimal.Decimal `json:"targets"`
	Confidence int               `json:"confidence"`
	Rationale  string            `json:"rationale"`
}

// RiskReward is (first target - entry) / (entry - stop), absolute, or
// zero when the setup is neutral or the stop distance is zero.
func (s Setup) RiskReward() decimal.Decimal {
	if s.Direction == "neutral" || len(s.Targets) == 0 {
		return decimal.Zero
	}
	risk := s.Entry.Sub(s.StopLoss).Abs()
	if risk.IsZero() {
		return decimal.Zero
	}
	reward := s.Targets[0].Sub(s.Entry).Abs()
	return reward.Div(risk)
}

// Parse extracts the JSON object from a verdict, validates it against
// the schema and normalizes the prices. The verdict must already have
// any council transcript stripped.
func Parse(verdict string) (Setup, error) {
	raw, err := extractJSON(verdict)
	if err != nil {
		return Setup{}, err
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Setup{}, fmt.Errorf("setup block is not valid JSON: %w", err)
	}
	if err := setupSchema.Validate(doc); err != nil {
		return Setup{}, fmt.Errorf("setup block failed validation: %w", err)
	}

	res := gjson.Parse(raw)
	out := Setup{
		Symbol:     strings.ToUpper(strings.TrimSpace(res.Get("symbol").String())),
		Direction:  res.Get("direction").String(),
		Confidence: int(res.Get("confidence").Int()),
		Rationale:  strings.TrimSpace(res.Get("rationale").String()),
	}
	out.Entry = decimalField(res, "entry")
	out.StopLoss = decimalField(res, "stop_loss")
	for _, t := range res.Get("targets").Array() {
		out.Targets = append(out.Targets, decimal.NewFromFloat(t.Float()))
	}
	if out.Direction != "neutral" {
		if out.Entry.IsZero() || out.StopLoss.IsZero() || len(out.Targets) == 0 {
			return Setup{}, fmt.Errorf("directional setup missing entry, stop_loss or targets")
		}
	}
	return out, nil
}

func decimalField(res gjson.Result, key string) decimal.Decimal {
	v := res.Get(key)
	if !v.Exists() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v.Float())
}

// extractJSON prefers a ```json fenced block; otherwise it takes the
// first balanced top-level object.
func extractJSON(text string) (string, error) {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}
	start := strings.Index(text, "{")
	if start < 0 {
		return "", fmt.Errorf("verdict contains no JSON setup block")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("verdict JSON setup block is unbalanced")
}

// Package prompt assembles the system instruction and user content for
// analysis requests.
package prompt

import (
	"fmt"
	"strings"

	"tradelens/internal/analysis/indicator"
)

const analystPersona = `You are a disciplined technical trading analyst. You evaluate market data and chart images strictly against the strategy rules below. You never invent data, you never trade against the rules, and when no valid setup exists you say so.`

const outputContract = `### Output format
Respond with a short written assessment followed by exactly one JSON object inside a ` + "```json" + ` fenced block:
{
  "symbol": "BTCUSDT",
  "direction": "long" | "short" | "neutral",
  "entry": 0,
  "stop_loss": 0,
  "targets": [0],
  "confidence": 0,
  "rationale": "one or two sentences"
}
- direction "neutral" means no trade; entry, stop_loss and targets may then be 0 or empty.
- All prices are absolute. confidence is an integer 0-100.
- Never output more than one JSON block.`

// SystemInstruction combines the persona, the user's strategy rules and
// the output contract into the system prompt shared by every provider.
func SystemInstruction(strategyRules string) string {
	var b strings.Builder
	b.WriteString(analystPersona)
	b.WriteString("\n\n### Strategy rules\n")
	b.WriteString(strings.TrimSpace(strategyRules))
	b.WriteString("\n\n")
	b.WriteString(outputContract)
	return b.String()
}

// MarketBlock renders the fetched market context as the user prompt.
func MarketBlock(symbol string, reports []indicator.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis request: %s\n\n", strings.ToUpper(symbol))
	b.WriteString("## Technical snapshot\n")
	for _, rep := range reports {
		fmt.Fprintf(&b, "### %s\n", rep.Interval)
		b.WriteString(rep.JSON())
		b.WriteString("\n\n")
	}
	b.WriteString("Evaluate the setup per the strategy rules.\n")
	return b.String()
}

// ChartRequest is the user prompt accompanying an uploaded chart image.
func ChartRequest(note string) string {
	var b strings.Builder
	b.WriteString("# Analysis request: uploaded chart\n\n")
	if note = strings.TrimSpace(note); note != "" {
		b.WriteString("Trader's note: ")
		b.WriteString(note)
		b.WriteString("\n\n")
	}
	b.WriteString("Analyze the attached chart image(s) per the strategy rules.\n")
	return b.String()
}

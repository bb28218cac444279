package providers

import (
	"fmt"
	"regexp"
	"strconv"
)

// CostUSD prices a usage record against per-million-token rates.
func CostUSD(u *Usage, inPer1M, outPer1M float64) float64 {
	if u == nil {
		return 0
	}
	return float64(u.PromptTokens)/1e6*inPer1M + float64(u.CompletionTokens)/1e6*outPer1M
}

// UsageFooter renders the fixed footer appended after an agent's reply.
// The format is load-bearing: session accounting greps "Cost: $…" out of
// reply text, so the shape never changes.
func UsageFooter(u *Usage, inPer1M, outPer1M float64) string {
	if u == nil {
		return ""
	}
	total := u.TotalTokens
	if total == 0 {
		total = u.PromptTokens + u.CompletionTokens
	}
	return fmt.Sprintf("\n\n---\nTokens: %d (%d in, %d out)\nCost: $%.6f",
		total, u.PromptTokens, u.CompletionTokens, CostUSD(u, inPer1M, outPer1M))
}

var costRe = regexp.MustCompile(`Cost: \$([\d.]+)`)

// ParseCost extracts the dollar cost from a reply carrying a usage footer.
func ParseCost(text string) (float64, bool) {
	m := costRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var tokensRe = regexp.MustCompile(`Tokens: (\d+) \((\d+) in, (\d+) out\)`)

// ParseTokens extracts the token counts from a reply carrying a usage footer.
func ParseTokens(text string) (*Usage, bool) {
	m := tokensRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	total, err1 := strconv.Atoi(m[1])
	in, err2 := strconv.Atoi(m[2])
	out, err3 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, false
	}
	return &Usage{TotalTokens: total, PromptTokens: in, CompletionTokens: out}, true
}

package agent

import (
	"regexp"
	"strings"
)

// Reasoning models interleave chain-of-thought inside tagged blocks. The
// blocks are stripped before assistant text is accumulated or stored.
var reasoningTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think>.*?</think>`),
	regexp.MustCompile(`(?is)<thinking>.*?</thinking>`),
	regexp.MustCompile(`(?is)<thought>.*?</thought>`),
}

// An unterminated opening tag swallows the rest of the text; models that cut
// off mid-thought emit these.
var danglingReasoningPattern = regexp.MustCompile(`(?is)<think(?:ing)?>.*$`)

// StripReasoning removes reasoning blocks from assistant text.
func StripReasoning(content string) string {
	lower := strings.ToLower(content)
	if !strings.Contains(lower, "<think") && !strings.Contains(lower, "<thought") {
		return content
	}
	result := content
	for _, pat := range reasoningTagPatterns {
		result = pat.ReplaceAllString(result, "")
	}
	result = danglingReasoningPattern.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

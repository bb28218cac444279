package tools

import (
	"regexp"
	"strings"
)

var (
	reScript  = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle   = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reComment = regexp.MustCompile(`<!--[\s\S]*?-->`)
	reTag     = regexp.MustCompile(`<[^>]+>`)
	reHeading = regexp.MustCompile(`(?is)<h([1-6])[^>]*>([\s\S]*?)</h[1-6]>`)
	rePara    = regexp.MustCompile(`(?is)<p[^>]*>([\s\S]*?)</p>`)
	reBreak   = regexp.MustCompile(`(?i)<br\s*/?>`)
	reItem    = regexp.MustCompile(`(?is)<li[^>]*>([\s\S]*?)</li>`)
	reAnchor  = regexp.MustCompile(`(?is)<a[^>]*href="([^"]*)"[^>]*>([\s\S]*?)</a>`)
	reMultiNL = regexp.MustCompile(`\n{3,}`)
	reMultiSP = regexp.MustCompile(`[ \t]{2,}`)
)

// extractContent renders a fetched body in the requested format. Only HTML
// bodies are transformed; anything without markup passes through as-is.
func extractContent(body, format string) string {
	if format == "html" || !looksLikeHTML(body) {
		return body
	}

	s := reScript.ReplaceAllString(body, "")
	s = reStyle.ReplaceAllString(s, "")
	s = reComment.ReplaceAllString(s, "")

	if format == "markdown" {
		s = reHeading.ReplaceAllStringFunc(s, func(m string) string {
			parts := reHeading.FindStringSubmatch(m)
			level := int(parts[1][0] - '0')
			return "\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(parts[2]) + "\n"
		})
		s = reAnchor.ReplaceAllString(s, "[$2]($1)")
		s = reItem.ReplaceAllString(s, "\n- $1")
	} else {
		s = reItem.ReplaceAllString(s, "\n$1")
	}

	s = rePara.ReplaceAllString(s, "\n$1\n")
	s = reBreak.ReplaceAllString(s, "\n")
	s = reTag.ReplaceAllString(s, "")
	s = decodeEntities(s)
	s = reMultiSP.ReplaceAllString(s, " ")
	s = reMultiNL.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	var clean []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return strings.Join(clean, "\n")
}

func looksLikeHTML(body string) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = strings.ToLower(head)
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html") ||
		strings.Contains(head, "<body") || strings.Contains(head, "<div")
}

func decodeEntities(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
		"&nbsp;", " ",
	)
	return replacer.Replace(s)
}

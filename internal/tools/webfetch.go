package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxFetchRedirects   = 3
	// Raw body cap before extraction; the sandbox truncates the final
	// result separately.
	maxFetchBodyBytes = 512 * 1024
	fetchUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Ports reachable in safe mode.
var safePorts = map[string]bool{"80": true, "443": true, "8080": true, "8443": true}

// WebFetchTool fetches a URL with SSRF protection.
type WebFetchTool struct {
	policy       *Policy
	validateHost func(rawURL string) error
}

// WebFetchOption customizes WebFetchTool construction.
type WebFetchOption func(*WebFetchTool)

// WithHostValidator overrides the SSRF check (useful for tests, which serve
// from loopback).
func WithHostValidator(fn func(rawURL string) error) WebFetchOption {
	return func(t *WebFetchTool) {
		if fn != nil {
			t.validateHost = fn
		}
	}
}

func NewWebFetchTool(policy *Policy, opts ...WebFetchOption) *WebFetchTool {
	t := &WebFetchTool{policy: policy, validateHost: checkSSRF}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *WebFetchTool) Name() string { return "webfetch" }

func (t *WebFetchTool) Description() string {
	return "Fetch a URL and return its content as text, markdown, or raw HTML"
}

func (t *WebFetchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "HTTP or HTTPS URL to fetch",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": `Output format: "text" (default), "markdown", or "html"`,
				"enum":        []string{"text", "markdown", "html"},
			},
			"timeout": map[string]interface{}{
				"type":        "number",
				"description": "Timeout in seconds (capped at 120)",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	rawURL, _ := args["url"].(string)
	if rawURL == "" {
		return ErrorResult("url is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ErrorResult(fmt.Sprintf("invalid URL: %v", err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return BlockedResult("only http and https URLs are allowed")
	}
	if parsed.Host == "" {
		return ErrorResult("missing hostname in URL")
	}

	if t.policy.SafeMode {
		if err := checkSafePort(parsed); err != nil {
			slog.Warn("security.ssrf_blocked", "url", rawURL, "reason", err)
			return BlockedResult(err.Error())
		}
	}

	// Host validation happens before any request leaves the process.
	if err := t.validateHost(rawURL); err != nil {
		slog.Warn("security.ssrf_blocked", "url", rawURL, "reason", err)
		return BlockedResult(err.Error())
	}

	format := "text"
	if f, ok := args["format"].(string); ok {
		switch f {
		case "text", "markdown", "html":
			format = f
		}
	}

	timeout := defaultFetchTimeout
	if sec, ok := args["timeout"].(float64); ok && sec > 0 {
		timeout = time.Duration(sec * float64(time.Second))
	}
	if timeout > MaxToolTimeout {
		timeout = MaxToolTimeout
	}

	body, finalURL, status, err := t.doFetch(ctx, rawURL, timeout)
	if err != nil {
		return ErrorResult(fmt.Sprintf("fetch failed: %v", err))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "URL: %s\nStatus: %d\n\n", finalURL, status)
	sb.WriteString(extractContent(body, format))
	return SilentResult(sb.String())
}

func (t *WebFetchTool) doFetch(ctx context.Context, rawURL string, timeout time.Duration) (body, finalURL string, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxFetchRedirects {
				return fmt.Errorf("stopped after %d redirects", maxFetchRedirects)
			}
			// Each hop is re-validated: a public host redirecting into the
			// network interior is still a block.
			if t.policy.SafeMode {
				if err := checkSafePort(req.URL); err != nil {
					return err
				}
			}
			if err := t.validateHost(req.URL.String()); err != nil {
				return fmt.Errorf("redirect blocked: %w", err)
			}
			return nil
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", "", 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		return "", "", 0, fmt.Errorf("read body: %w", err)
	}

	return string(data), resp.Request.URL.String(), resp.StatusCode, nil
}

// checkSafePort rejects non-standard ports in safe mode.
func checkSafePort(u *url.URL) error {
	port := u.Port()
	if port == "" {
		return nil // scheme default, 80 or 443
	}
	if !safePorts[port] {
		return fmt.Errorf("port %s not allowed in safe mode", port)
	}
	return nil
}

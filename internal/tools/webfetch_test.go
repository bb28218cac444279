package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// allowAll bypasses the SSRF check so tests can fetch from loopback servers.
func allowAll(string) error { return nil }

// TestWebFetch_BlocksInternalHosts drives the real SSRF check against hosts
// that must never be fetched. None of these require DNS.
func TestWebFetch_BlocksInternalHosts(t *testing.T) {
	tool := NewWebFetchTool(NewPolicy(t.TempDir()))

	blocked := []string{
		"http://127.0.0.1/admin",
		"http://127.8.8.8/",
		"http://localhost:8080/",
		"http://0.0.0.0/",
		"http://10.0.0.8/internal",
		"http://192.168.1.1/router",
		"http://172.16.0.1/",
		"http://172.31.255.255/",
		"http://169.254.169.254/latest/meta-data/",
		"http://100.64.1.1/",
		"http://metadata.google.internal/computeMetadata/v1/",
		"http://[::1]/",
		"http://[fd00::1]/",
		"http://service.internal/",
		"http://printer.local/",
	}
	for _, u := range blocked {
		t.Run(u, func(t *testing.T) {
			res := tool.Execute(context.Background(), map[string]interface{}{"url": u})
			if !strings.HasPrefix(res.ForLLM, "Blocked: ") {
				t.Errorf("fetch of %q = %q, want Blocked", u, res.ForLLM)
			}
		})
	}
}

func TestWebFetch_SchemeValidation(t *testing.T) {
	tool := NewWebFetchTool(NewPolicy(t.TempDir()))
	for _, u := range []string{"ftp://example.com/x", "file:///etc/passwd", "gopher://x"} {
		res := tool.Execute(context.Background(), map[string]interface{}{"url": u})
		if !strings.HasPrefix(res.ForLLM, "Blocked: ") {
			t.Errorf("scheme of %q not rejected: %q", u, res.ForLLM)
		}
	}
}

func TestWebFetch_SafeModePorts(t *testing.T) {
	policy := NewPolicy(t.TempDir())
	policy.SafeMode = true
	tool := NewWebFetchTool(policy, WithHostValidator(allowAll))

	res := tool.Execute(context.Background(), map[string]interface{}{"url": "http://example.com:9999/"})
	if !strings.HasPrefix(res.ForLLM, "Blocked: ") {
		t.Errorf("non-standard port not blocked in safe mode: %q", res.ForLLM)
	}
}

func TestWebFetch_FetchesAndExtracts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Title</h1><p>Hello &amp; welcome</p><script>alert(1)</script></body></html>`)
	}))
	defer srv.Close()

	tool := NewWebFetchTool(NewPolicy(t.TempDir()), WithHostValidator(allowAll))
	res := tool.Execute(context.Background(), map[string]interface{}{"url": srv.URL})
	if res.IsError || res.Blocked {
		t.Fatalf("fetch failed: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "Status: 200") {
		t.Errorf("missing status line: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "Hello & welcome") {
		t.Errorf("entity not decoded: %q", res.ForLLM)
	}
	if strings.Contains(res.ForLLM, "alert(1)") {
		t.Errorf("script content leaked into text extraction: %q", res.ForLLM)
	}
}

func TestWebFetch_MarkdownFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h2>Docs</h2><a href="https://x.test/doc">guide</a></body></html>`)
	}))
	defer srv.Close()

	tool := NewWebFetchTool(NewPolicy(t.TempDir()), WithHostValidator(allowAll))
	res := tool.Execute(context.Background(), map[string]interface{}{"url": srv.URL, "format": "markdown"})
	if !strings.Contains(res.ForLLM, "## Docs") {
		t.Errorf("heading not converted: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "[guide](https://x.test/doc)") {
		t.Errorf("anchor not converted: %q", res.ForLLM)
	}
}

func TestWebFetch_RedirectCap(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	tool := NewWebFetchTool(NewPolicy(t.TempDir()), WithHostValidator(allowAll))
	res := tool.Execute(context.Background(), map[string]interface{}{"url": srv.URL})
	if !res.IsError || !strings.Contains(res.ForLLM, "redirects") {
		t.Errorf("redirect loop = %q, want redirect error", res.ForLLM)
	}
}

// TestWebFetch_RedirectRevalidated serves a public-looking page that
// redirects into the link-local metadata range; the hop must be blocked.
func TestWebFetch_RedirectRevalidated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer srv.Close()

	// First hop allowed, every later hop checked for real.
	firstHop := srv.URL
	validator := func(rawURL string) error {
		if strings.HasPrefix(rawURL, firstHop) {
			return nil
		}
		return checkSSRF(rawURL)
	}

	tool := NewWebFetchTool(NewPolicy(t.TempDir()), WithHostValidator(validator))
	res := tool.Execute(context.Background(), map[string]interface{}{"url": srv.URL})
	if !res.IsError || !strings.Contains(res.ForLLM, "blocked") {
		t.Errorf("redirect into metadata range = %q, want blocked hop", res.ForLLM)
	}
}

func TestCheckSSRF_PublicIPLiteralAllowed(t *testing.T) {
	if err := checkSSRF("https://93.184.216.34/"); err != nil {
		t.Errorf("public IP literal rejected: %v", err)
	}
}

func TestCheckSafePort(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"http://h/", true},
		{"https://h/", true},
		{"http://h:80/", true},
		{"https://h:443/", true},
		{"http://h:8080/", true},
		{"https://h:8443/", true},
		{"http://h:22/", false},
		{"http://h:9999/", false},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		if err != nil {
			t.Fatal(err)
		}
		if got := checkSafePort(u) == nil; got != tt.ok {
			t.Errorf("checkSafePort(%s) ok=%v, want %v", tt.url, got, tt.ok)
		}
	}
}

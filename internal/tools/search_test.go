package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestGlob_BasicPattern(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "main.go", "package main")
	writeTestFile(t, root, "util.go", "package main")
	writeTestFile(t, root, "README.md", "# hi")
	tool := NewGlobTool(NewPolicy(root))

	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "*.go"})
	if res.IsError || res.Blocked {
		t.Fatalf("glob failed: %q", res.ForLLM)
	}
	got := strings.Split(res.ForLLM, "\n")
	if len(got) != 2 || got[0] != "main.go" || got[1] != "util.go" {
		t.Errorf("glob = %q", res.ForLLM)
	}
}

func TestGlob_DoubleStar(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/a/one.ts", "")
	writeTestFile(t, root, "src/a/b/two.ts", "")
	writeTestFile(t, root, "src/skip.js", "")
	writeTestFile(t, root, "other/three.ts", "")
	tool := NewGlobTool(NewPolicy(root))

	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "src/**/*.ts"})
	if res.IsError || res.Blocked {
		t.Fatalf("glob failed: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "src/a/one.ts") || !strings.Contains(res.ForLLM, "src/a/b/two.ts") {
		t.Errorf("missing nested matches: %q", res.ForLLM)
	}
	if strings.Contains(res.ForLLM, "skip.js") || strings.Contains(res.ForLLM, "other/three.ts") {
		t.Errorf("matched outside the pattern: %q", res.ForLLM)
	}
}

func TestGlob_CapsMatches(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < maxGlobMatches+20; i++ {
		writeTestFile(t, root, fmt.Sprintf("f%03d.txt", i), "")
	}
	tool := NewGlobTool(NewPolicy(root))

	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "*.txt"})
	if n := len(strings.Split(res.ForLLM, "\n")); n != maxGlobMatches {
		t.Errorf("got %d matches, want cap %d", n, maxGlobMatches)
	}
}

func TestGlob_NoMatches(t *testing.T) {
	tool := NewGlobTool(NewPolicy(t.TempDir()))
	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "*.zig"})
	if res.ForLLM != "No files matched" {
		t.Errorf("glob = %q", res.ForLLM)
	}
}

func TestGrep_MatchFormat(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", "package a\nfunc Hello() {}\n")
	writeTestFile(t, root, "sub/b.go", "package b\nfunc Help() {}\nfunc Hello2() {}\n")
	tool := NewGrepTool(NewPolicy(root))

	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": `func Hel`})
	if res.IsError || res.Blocked {
		t.Fatalf("grep failed: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "a.go:2:func Hello() {}") {
		t.Errorf("missing file:lineno:line match: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "sub/b.go:2:") || !strings.Contains(res.ForLLM, "sub/b.go:3:") {
		t.Errorf("missing nested matches: %q", res.ForLLM)
	}
}

func TestGrep_InvalidRegexIsResultString(t *testing.T) {
	tool := NewGrepTool(NewPolicy(t.TempDir()))
	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "(unclosed"})
	if res.IsError {
		t.Errorf("invalid regex must not be an error result: %q", res.ForLLM)
	}
	if !strings.HasPrefix(res.ForLLM, "Invalid regex: ") {
		t.Errorf("grep = %q, want Invalid regex prefix", res.ForLLM)
	}
}

func TestGrep_IncludeFilter(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "x.go", "needle\n")
	writeTestFile(t, root, "x.md", "needle\n")
	tool := NewGrepTool(NewPolicy(root))

	res := tool.Execute(context.Background(), map[string]interface{}{
		"pattern": "needle",
		"include": "*.go",
	})
	if strings.Contains(res.ForLLM, "x.md") {
		t.Errorf("include filter ignored: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "x.go:1:needle") {
		t.Errorf("expected x.go match: %q", res.ForLLM)
	}
}

func TestGrep_CapsMatches(t *testing.T) {
	root := t.TempDir()
	var sb strings.Builder
	for i := 0; i < maxGrepMatches+30; i++ {
		sb.WriteString("needle\n")
	}
	writeTestFile(t, root, "big.txt", sb.String())
	tool := NewGrepTool(NewPolicy(root))

	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "needle"})
	if n := len(strings.Split(res.ForLLM, "\n")); n != maxGrepMatches {
		t.Errorf("got %d matches, want cap %d", n, maxGrepMatches)
	}
}

func TestGrep_SkipsGitDir(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, ".git/objects/pack.txt", "needle\n")
	writeTestFile(t, root, "code.txt", "needle\n")
	tool := NewGrepTool(NewPolicy(root))

	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "needle"})
	if strings.Contains(res.ForLLM, ".git") {
		t.Errorf("matched inside .git: %q", res.ForLLM)
	}
	if !strings.Contains(res.ForLLM, "code.txt:1:needle") {
		t.Errorf("missing match: %q", res.ForLLM)
	}
}

func TestGrep_NoMatches(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.txt", "haystack only\n")
	tool := NewGrepTool(NewPolicy(root))
	res := tool.Execute(context.Background(), map[string]interface{}{"pattern": "needle"})
	if res.ForLLM != "No matches found" {
		t.Errorf("grep = %q", res.ForLLM)
	}
}

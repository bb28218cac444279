package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/troupelabs/troupe/internal/providers"
)

// stubTool returns a fixed result, for exercising the dispatch pipeline.
type stubTool struct {
	name   string
	result *Result
}

func (s *stubTool) Name() string                       { return s.name }
func (s *stubTool) Description() string                { return "stub" }
func (s *stubTool) Parameters() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (s *stubTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	return s.result
}

func TestSandbox_RegistersBuiltins(t *testing.T) {
	s := NewSandbox(NewPolicy(t.TempDir()))
	want := []string{"bash", "edit", "glob", "grep", "read", "webfetch", "write"}
	got := s.Names()
	if len(got) != len(want) {
		t.Fatalf("tools = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tools[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSandbox_UnknownTool(t *testing.T) {
	s := NewSandbox(NewPolicy(t.TempDir()))
	res := s.Execute(context.Background(), "a1", providers.ToolCall{ID: "c1", Name: "teleport"})
	if !res.IsError || !strings.Contains(res.ForLLM, "unknown tool") {
		t.Errorf("unknown tool = %q", res.ForLLM)
	}
}

// TestSandbox_TruncatesResults checks the dispatcher enforces the byte cap no
// matter what a tool returns.
func TestSandbox_TruncatesResults(t *testing.T) {
	policy := NewPolicy(t.TempDir())
	policy.MaxResultBytes = 256
	s := NewSandbox(policy)
	s.Register(&stubTool{name: "flood", result: NewResult(strings.Repeat("z", 10000))})

	res := s.Execute(context.Background(), "a1", providers.ToolCall{Name: "flood"})
	if len(res.ForLLM) > 256 {
		t.Errorf("result len = %d, want <= 256", len(res.ForLLM))
	}
	if !strings.Contains(res.ForLLM, truncationMarker) {
		t.Error("oversized result missing truncation marker")
	}
}

func TestSandbox_LogsEveryCall(t *testing.T) {
	s := NewSandbox(NewPolicy(t.TempDir()))
	s.Register(&stubTool{name: "ok", result: NewResult("fine")})
	s.Register(&stubTool{name: "bad", result: ErrorResult("broken")})
	s.Register(&stubTool{name: "walled", result: BlockedResult("denied path")})

	ctx := context.Background()
	s.Execute(ctx, "agent-1", providers.ToolCall{Name: "ok", Arguments: map[string]interface{}{"k": "v"}})
	s.Execute(ctx, "agent-1", providers.ToolCall{Name: "bad"})
	s.Execute(ctx, "agent-2", providers.ToolCall{Name: "walled"})

	log := s.Log()
	if len(log) != 3 {
		t.Fatalf("log entries = %d, want 3", len(log))
	}
	if !log[0].Success || log[0].AgentID != "agent-1" || log[0].Tool != "ok" {
		t.Errorf("entry 0 = %+v", log[0])
	}
	if log[0].Args["k"] != "v" {
		t.Errorf("args not recorded: %+v", log[0].Args)
	}
	if log[1].Success {
		t.Error("error result logged as success")
	}
	if log[2].Success {
		t.Error("blocked result logged as success")
	}
	if log[2].Preview != "Blocked: denied path" {
		t.Errorf("preview = %q", log[2].Preview)
	}

	s.ResetLog()
	if len(s.Log()) != 0 {
		t.Error("ResetLog left entries behind")
	}
}

func TestSandbox_LogTruncatesArgsAndPreview(t *testing.T) {
	s := NewSandbox(NewPolicy(t.TempDir()))
	long := strings.Repeat("p", 500)
	s.Register(&stubTool{name: "chatty", result: NewResult(long)})

	s.Execute(context.Background(), "a", providers.ToolCall{
		Name:      "chatty",
		Arguments: map[string]interface{}{"content": long},
	})

	entry := s.Log()[0]
	if len(entry.Args["content"]) != maxLoggedChars {
		t.Errorf("arg len = %d, want %d", len(entry.Args["content"]), maxLoggedChars)
	}
	if len(entry.Preview) != maxLoggedChars {
		t.Errorf("preview len = %d, want %d", len(entry.Preview), maxLoggedChars)
	}
}

type captureRecorder struct {
	entries []LogEntry
}

func (c *captureRecorder) RecordToolCall(e LogEntry) { c.entries = append(c.entries, e) }

func TestSandbox_RecorderMirrorsLog(t *testing.T) {
	s := NewSandbox(NewPolicy(t.TempDir()))
	s.Register(&stubTool{name: "ok", result: NewResult("fine")})
	rec := &captureRecorder{}
	s.SetRecorder(rec)

	s.Execute(context.Background(), "a", providers.ToolCall{Name: "ok"})
	if len(rec.entries) != 1 || rec.entries[0].Tool != "ok" {
		t.Errorf("recorder entries = %+v", rec.entries)
	}
}

func TestSandbox_Definitions(t *testing.T) {
	s := NewSandbox(NewPolicy(t.TempDir()))
	defs := s.Definitions()
	if len(defs) != 7 {
		t.Fatalf("definitions = %d, want 7", len(defs))
	}
	for _, d := range defs {
		if d.Type != "function" {
			t.Errorf("type = %q, want function", d.Type)
		}
		if d.Function.Name == "" || d.Function.Parameters == nil {
			t.Errorf("incomplete definition: %+v", d)
		}
	}
	// Name order is stable for request payloads.
	if defs[0].Function.Name != "bash" || defs[6].Function.Name != "write" {
		t.Errorf("definitions not sorted: %v", defs)
	}
}

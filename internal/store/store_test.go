package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/troupelabs/troupe/internal/providers"
	"github.com/troupelabs/troupe/internal/tools"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "troupe.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(agent, tool string, ok bool) tools.LogEntry {
	return tools.LogEntry{
		Time:    time.Now(),
		AgentID: agent,
		Tool:    tool,
		Args:    map[string]string{"path": "a.txt"},
		Preview: "preview",
		Success: ok,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "troupe.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	s.RecordToolCall(entry("a1", "read", true))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening the same file applies no migrations and keeps the rows.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	stats, err := s2.ToolStats(context.Background())
	if err != nil {
		t.Fatalf("ToolStats: %v", err)
	}
	if len(stats) != 1 || stats[0].Tool != "read" || stats[0].Calls != 1 {
		t.Fatalf("stats after reopen = %+v", stats)
	}
}

func TestToolStatsAggregates(t *testing.T) {
	s := openTemp(t)

	s.RecordToolCall(entry("a1", "bash", true))
	s.RecordToolCall(entry("a1", "bash", false))
	s.RecordToolCall(entry("a2", "bash", true))
	s.RecordToolCall(entry("a2", "read", true))

	stats, err := s.ToolStats(context.Background())
	if err != nil {
		t.Fatalf("ToolStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d tools, want 2", len(stats))
	}

	// Most-called first.
	if stats[0].Tool != "bash" || stats[0].Calls != 3 || stats[0].Failures != 1 {
		t.Errorf("bash stat = %+v", stats[0])
	}
	if got := stats[0].SuccessRate(); got < 0.66 || got > 0.67 {
		t.Errorf("bash success rate = %v", got)
	}
	if stats[1].Tool != "read" || stats[1].Calls != 1 || stats[1].Failures != 0 {
		t.Errorf("read stat = %+v", stats[1])
	}
	if got := stats[1].SuccessRate(); got != 1 {
		t.Errorf("read success rate = %v", got)
	}
}

func TestUsageByAgentTotals(t *testing.T) {
	s := openTemp(t)

	s.RecordUsage(UsageRecord{Agent: "Planner", Provider: "grok", Model: "grok-code-fast-1", InputTokens: 100, OutputTokens: 50, Cost: 0.001})
	s.RecordUsage(UsageRecord{Agent: "Planner", Provider: "grok", Model: "grok-code-fast-1", InputTokens: 200, OutputTokens: 100, Cost: 0.002})
	s.RecordUsage(UsageRecord{Agent: "Builder", Provider: "claude", Model: "claude-sonnet-4-20250514", InputTokens: 10, OutputTokens: 5, Cost: 0.0001})

	usage, err := s.UsageByAgent(context.Background())
	if err != nil {
		t.Fatalf("UsageByAgent: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("got %d agents, want 2", len(usage))
	}

	// Highest spend first.
	if usage[0].Agent != "Planner" {
		t.Fatalf("first agent = %q, want Planner", usage[0].Agent)
	}
	if usage[0].Runs != 2 || usage[0].InputTokens != 300 || usage[0].OutputTokens != 150 {
		t.Errorf("planner usage = %+v", usage[0])
	}
	if usage[0].Cost < 0.0029 || usage[0].Cost > 0.0031 {
		t.Errorf("planner cost = %v", usage[0].Cost)
	}
	if usage[1].Agent != "Builder" || usage[1].Runs != 1 {
		t.Errorf("builder usage = %+v", usage[1])
	}
}

func TestEmptyLedgerQueries(t *testing.T) {
	s := openTemp(t)

	stats, err := s.ToolStats(context.Background())
	if err != nil {
		t.Fatalf("ToolStats: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}

	usage, err := s.UsageByAgent(context.Background())
	if err != nil {
		t.Fatalf("UsageByAgent: %v", err)
	}
	if len(usage) != 0 {
		t.Errorf("usage = %+v, want empty", usage)
	}
}

func TestSandboxRecorderWiring(t *testing.T) {
	s := openTemp(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sb := tools.NewSandbox(tools.NewPolicy(dir))
	sb.SetRecorder(s)

	res := sb.Execute(context.Background(), "a1", providers.ToolCall{
		ID:        "t1",
		Name:      "read",
		Arguments: map[string]interface{}{"path": "a.txt"},
	})
	if !res.OK() {
		t.Fatalf("read failed: %s", res.ForLLM)
	}

	stats, err := s.ToolStats(context.Background())
	if err != nil {
		t.Fatalf("ToolStats: %v", err)
	}
	if len(stats) != 1 || stats[0].Tool != "read" || stats[0].Calls != 1 || stats[0].Failures != 0 {
		t.Fatalf("ledger row = %+v, want one successful read", stats)
	}
}

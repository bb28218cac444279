package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/tools"
)

func TestStartRecordsFailedServer(t *testing.T) {
	sb := tools.NewSandbox(tools.NewPolicy(t.TempDir()))
	before := len(sb.Names())

	m := NewManager(sb)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.Start(ctx, map[string]config.MCPServerConfig{
		"ghost": {Command: "troupe-test-no-such-binary"},
	})
	if err == nil {
		t.Fatal("Start succeeded with an unlaunchable server")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q does not name the server", err)
	}

	status := m.Status()
	if len(status) != 1 {
		t.Fatalf("got %d statuses, want 1", len(status))
	}
	if status[0].Name != "ghost" || status[0].Connected || status[0].Error == "" {
		t.Errorf("status = %+v, want disconnected ghost with error", status[0])
	}

	if got := len(sb.Names()); got != before {
		t.Errorf("sandbox gained tools from a failed server: %d -> %d", before, got)
	}
	if names := m.ToolNames(); len(names) != 0 {
		t.Errorf("ToolNames = %v, want none", names)
	}
}

func TestStartRejectsEmptyCommand(t *testing.T) {
	m := NewManager(tools.NewSandbox(tools.NewPolicy(t.TempDir())))

	err := m.Start(context.Background(), map[string]config.MCPServerConfig{
		"blank": {},
	})
	if err == nil || !strings.Contains(err.Error(), "no command") {
		t.Errorf("err = %v, want no-command failure", err)
	}
}

func TestStopIsSafeWithFailedServers(t *testing.T) {
	m := NewManager(tools.NewSandbox(tools.NewPolicy(t.TempDir())))

	_ = m.Start(context.Background(), map[string]config.MCPServerConfig{
		"blank": {},
	})
	m.Stop()

	if got := m.Status(); len(got) != 0 {
		t.Errorf("status after Stop = %+v, want empty", got)
	}
}

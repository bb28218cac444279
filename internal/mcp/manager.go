// Package mcp connects configured MCP servers over stdio and exposes their
// tools through the sandbox. Bridged tools are named mcp_{server}_{tool} so
// the permission gateway recognizes them as external.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/tools"
)

const (
	clientName    = "troupe"
	clientVersion = "1.0.0"
)

// ServerStatus reports one MCP server's connection state.
type ServerStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	ToolCount int    `json:"tool_count"`
	Error     string `json:"error,omitempty"`
}

type serverState struct {
	name      string
	client    *mcpclient.Client
	toolNames []string
	lastErr   string
}

// Manager owns the MCP server connections for one process.
type Manager struct {
	sandbox *tools.Sandbox

	mu      sync.Mutex
	servers map[string]*serverState
}

// NewManager creates a manager that registers bridged tools into sandbox.
func NewManager(sandbox *tools.Sandbox) *Manager {
	return &Manager{
		sandbox: sandbox,
		servers: make(map[string]*serverState),
	}
}

// Start spawns and initializes every configured server. A server that fails
// to come up is recorded and skipped: the assistant runs fine without its
// extras. The returned error lists the failures.
func (m *Manager) Start(ctx context.Context, servers map[string]config.MCPServerConfig) error {
	var errs []string
	for name, cfg := range servers {
		if err := m.connect(ctx, name, cfg); err != nil {
			slog.Warn("mcp server failed to connect", "server", name, "error", err)
			m.mu.Lock()
			m.servers[name] = &serverState{name: name, lastErr: err.Error()}
			m.mu.Unlock()
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("mcp servers failed to connect: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (m *Manager) connect(ctx context.Context, name string, cfg config.MCPServerConfig) error {
	if cfg.Command == "" {
		return fmt.Errorf("no command configured")
	}

	client, err := mcpclient.NewStdioMCPClient(cfg.Command, envSlice(cfg.Env), cfg.Args...)
	if err != nil {
		return fmt.Errorf("spawn server: %w", err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{Name: clientName, Version: clientVersion}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		_ = client.Close()
		return fmt.Errorf("initialize: %w", err)
	}

	list, err := client.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("list tools: %w", err)
	}

	ss := &serverState{name: name, client: client}
	for _, t := range list.Tools {
		bt := newBridgeTool(name, t, client)
		if _, exists := m.sandbox.Get(bt.Name()); exists {
			slog.Warn("mcp tool name collision", "server", name, "tool", bt.Name())
			continue
		}
		m.sandbox.Register(bt)
		ss.toolNames = append(ss.toolNames, bt.Name())
	}

	m.mu.Lock()
	m.servers[name] = ss
	m.mu.Unlock()

	slog.Info("mcp server connected", "server", name, "tools", len(ss.toolNames))
	return nil
}

// Stop closes every server and removes its tools from the sandbox.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, ss := range m.servers {
		if ss.client != nil {
			if err := ss.client.Close(); err != nil {
				slog.Debug("mcp server close", "server", name, "error", err)
			}
		}
		for _, toolName := range ss.toolNames {
			m.sandbox.Unregister(toolName)
		}
	}
	m.servers = make(map[string]*serverState)
}

// ToolNames returns every registered bridged tool name.
func (m *Manager) ToolNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, ss := range m.servers {
		names = append(names, ss.toolNames...)
	}
	sort.Strings(names)
	return names
}

// Status reports each configured server, connected or not, sorted by name.
func (m *Manager) Status() []ServerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]ServerStatus, 0, len(m.servers))
	for _, ss := range m.servers {
		statuses = append(statuses, ServerStatus{
			Name:      ss.name,
			Connected: ss.client != nil,
			ToolCount: len(ss.toolNames),
			Error:     ss.lastErr,
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	s := make([]string, 0, len(env))
	for k, v := range env {
		s = append(s, k+"="+v)
	}
	return s
}

package tools

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/troupelabs/troupe/internal/providers"
)

// Tool is the interface every sandboxed tool implements.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) *Result
}

// Sandbox is the single chokepoint for tool execution: every call, for every
// agent, in every mode, passes through Execute. It validates the tool name,
// runs the tool, truncates the result to the policy cap, and appends a log
// entry. Construct one per process and pass it explicitly to each runtime.
type Sandbox struct {
	policy *Policy

	mu    sync.RWMutex
	tools map[string]Tool

	logMu    sync.Mutex
	log      []LogEntry
	recorder Recorder
}

// NewSandbox creates a sandbox with the builtin tools registered.
func NewSandbox(policy *Policy) *Sandbox {
	if policy == nil {
		policy = NewPolicy(".")
	}
	s := &Sandbox{
		policy: policy,
		tools:  make(map[string]Tool),
	}
	s.Register(NewBashTool(policy))
	s.Register(NewReadTool(policy))
	s.Register(NewWriteTool(policy))
	s.Register(NewEditTool(policy))
	s.Register(NewGlobTool(policy))
	s.Register(NewGrepTool(policy))
	s.Register(NewWebFetchTool(policy))
	return s
}

// Policy returns the sandbox policy.
func (s *Sandbox) Policy() *Policy { return s.policy }

// Register adds a tool, replacing any previous tool with the same name.
func (s *Sandbox) Register(t Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.Name()] = t
}

// Unregister removes a tool by name.
func (s *Sandbox) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tools, name)
}

// Get returns a tool by name.
func (s *Sandbox) Get(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (s *Sandbox) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns provider tool definitions for every registered tool,
// in name order so request payloads are stable.
func (s *Sandbox) Definitions() []providers.ToolDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]providers.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := s.tools[name]
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// SetRecorder mirrors future log entries into r. Pass nil to detach.
func (s *Sandbox) SetRecorder(r Recorder) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.recorder = r
}

// Execute runs a tool call for an agent. Unknown tools come back as an error
// result; everything else is the tool's own result, truncated to the policy
// cap and appended to the call log.
func (s *Sandbox) Execute(ctx context.Context, agentID string, call providers.ToolCall) *Result {
	s.mu.RLock()
	tool, ok := s.tools[call.Name]
	s.mu.RUnlock()

	var result *Result
	start := time.Now()
	if !ok {
		result = ErrorResult("unknown tool: " + call.Name)
	} else {
		result = tool.Execute(ctx, call.Arguments)
	}

	result.ForLLM = Truncate(result.ForLLM, s.policy.MaxResultBytes)
	if result.ForUser != "" {
		result.ForUser = Truncate(result.ForUser, s.policy.MaxResultBytes)
	}

	slog.Debug("tool executed",
		"tool", call.Name,
		"agent", agentID,
		"duration_ms", time.Since(start).Milliseconds(),
		"ok", result.OK(),
	)

	s.appendLog(LogEntry{
		Time:    start,
		AgentID: agentID,
		Tool:    call.Name,
		Args:    sanitizeArgs(call.Arguments),
		Preview: clipChars(result.ForLLM, maxLoggedChars),
		Success: result.OK(),
	})

	return result
}

func (s *Sandbox) appendLog(e LogEntry) {
	s.logMu.Lock()
	s.log = append(s.log, e)
	rec := s.recorder
	s.logMu.Unlock()
	if rec != nil {
		rec.RecordToolCall(e)
	}
}

// Log returns a copy of the call log.
func (s *Sandbox) Log() []LogEntry {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	out := make([]LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

// ResetLog clears the call log.
func (s *Sandbox) ResetLog() {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.log = nil
}

// Package agent runs one configured LLM persona: a bound provider, a private
// DM history, and a tool loop that dispatches through the shared sandbox.
package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/troupelabs/troupe/internal/providers"
)

// Status is the runtime state of an agent. It is idle before and after every
// completed request, and error only when the last request failed.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusThinking Status = "thinking"
	StatusTool     Status = "tool"
	StatusError    Status = "error"
)

// Config is the persisted shape of an agent inside a team file. APIKey is
// empty when the agent inherits the process-wide config key; the team manager
// writes the "__config__" sentinel in its place so the raw key never lands
// on disk.
type Config struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	SystemPrompt  string `json:"systemPrompt,omitempty"`
	Provider      string `json:"provider"`
	Model         string `json:"model,omitempty"`
	APIKey        string `json:"apiKey,omitempty"`
	OllamaBaseURL string `json:"ollamaBaseUrl,omitempty"`
}

// NewID returns a short unique agent identifier.
func NewID() string {
	return uuid.NewString()[:8]
}

// Agent extends Config with runtime state. One Agent serves one request at a
// time; the team channel guarantees sequential dispatch.
type Agent struct {
	Config Config

	provider          providers.Provider
	inPer1M, outPer1M float64
	maxTokens         int
	temperature       float64

	mu      sync.Mutex
	status  Status
	history []providers.Message
}

// New binds a provider adapter for cfg and returns the runtime. A missing
// API key for a remote provider is a config error: the agent cannot be
// created.
func New(cfg Config, reg *providers.Registry) (*Agent, error) {
	if cfg.ID == "" {
		cfg.ID = NewID()
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}

	p, err := reg.Create(cfg.Provider, cfg.Model, cfg.APIKey, cfg.OllamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("init agent %s: %w", cfg.Name, err)
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel()
	}

	in, out := reg.Rates(cfg.Provider)
	maxTokens, temperature := reg.GenDefaults()
	return &Agent{
		Config:      cfg,
		provider:    p,
		inPer1M:     in,
		outPer1M:    out,
		maxTokens:   maxTokens,
		temperature: temperature,
		status:      StatusIdle,
	}, nil
}

// NewWithProvider binds an explicit provider instance. Tests use it to inject
// scripted providers.
func NewWithProvider(cfg Config, p providers.Provider) *Agent {
	if cfg.ID == "" {
		cfg.ID = NewID()
	}
	return &Agent{Config: cfg, provider: p, status: StatusIdle}
}

// SetRates overrides the cost-table rates applied to the usage footer.
func (a *Agent) SetRates(inPer1M, outPer1M float64) {
	a.inPer1M, a.outPer1M = inPer1M, outPer1M
}

// Provider returns the bound provider adapter.
func (a *Agent) Provider() providers.Provider { return a.provider }

// Status returns the agent's current runtime state.
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Agent) setStatus(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// History returns a copy of the agent's private DM history.
func (a *Agent) History() []providers.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]providers.Message, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory drops the DM history.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

func (a *Agent) appendHistory(msgs ...providers.Message) {
	a.mu.Lock()
	a.history = append(a.history, msgs...)
	a.mu.Unlock()
}

// systemPrompt assembles the system message for one request. The configured
// prompt wins; otherwise a default persona is built from name and role.
func (a *Agent) systemPrompt(directory string, withTools bool) string {
	var sb strings.Builder
	if a.Config.SystemPrompt != "" {
		sb.WriteString(a.Config.SystemPrompt)
	} else {
		fmt.Fprintf(&sb, "You are %s", a.Config.Name)
		if a.Config.Role != "" {
			fmt.Fprintf(&sb, ", %s", a.Config.Role)
		}
		sb.WriteString(". Be concise and practical.")
	}
	if directory != "" {
		fmt.Fprintf(&sb, "\n\nWorking directory: %s", directory)
	}
	if withTools {
		sb.WriteString("\nYou can use tools to read, write, and search files, run shell commands, and fetch web pages. Use them when the task needs them.")
	}
	return sb.String()
}

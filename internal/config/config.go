package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Provider tags accepted in config and team files.
const (
	ProviderGrok   = "grok"
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
)

// ProviderTags lists every supported provider tag in display order.
var ProviderTags = []string{ProviderGrok, ProviderGroq, ProviderGemini, ProviderClaude, ProviderOllama}

// Config is the root configuration for troupe.
type Config struct {
	Defaults  Defaults                   `json:"defaults"`
	Providers ProvidersConfig            `json:"providers"`
	Sandbox   SandboxConfig              `json:"sandbox"`
	MCP       map[string]MCPServerConfig `json:"mcpServers,omitempty"`
	Telemetry TelemetryConfig            `json:"telemetry,omitempty"`
	mu        sync.RWMutex
}

// Defaults are process-wide agent defaults, overridable per agent.
type Defaults struct {
	Provider    string  `json:"provider"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// ProvidersConfig holds one block per supported provider tag.
type ProvidersConfig struct {
	Grok   ProviderConfig `json:"grok"`
	Groq   ProviderConfig `json:"groq"`
	Gemini ProviderConfig `json:"gemini"`
	Claude ProviderConfig `json:"claude"`
	Ollama ProviderConfig `json:"ollama"`
}

// ProviderConfig configures one provider endpoint, including the cost table
// used for the usage footer. Rates are USD per million tokens; Ollama is 0.
type ProviderConfig struct {
	APIKey            string  `json:"api_key,omitempty"`
	BaseURL           string  `json:"base_url,omitempty"`
	Model             string  `json:"model"`
	InputCostPer1M    float64 `json:"input_cost_per_1m"`
	OutputCostPer1M   float64 `json:"output_cost_per_1m"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"` // 0 = unlimited
}

// SandboxConfig bounds tool execution for every agent in the process.
type SandboxConfig struct {
	SafeMode             bool `json:"safe_mode"`
	MaxRounds            int  `json:"max_rounds"`
	MaxToolCallsPerRound int  `json:"max_tool_calls_per_round"`
	BashTimeoutSec       int  `json:"bash_timeout_sec"`
	MaxResultBytes       int  `json:"max_result_bytes"`
}

// MCPServerConfig declares one stdio MCP server to launch and attach.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// TelemetryConfig configures optional OTLP span export.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`     // e.g. "localhost:4317"
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // plaintext export for local collectors
	ServiceName string            `json:"service_name,omitempty"` // default "troupe"
	Headers     map[string]string `json:"headers,omitempty"`
}

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
// Used by the fsnotify watcher to swap in a re-loaded config between turns.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Defaults = src.Defaults
	c.Providers = src.Providers
	c.Sandbox = src.Sandbox
	c.MCP = src.MCP
	c.Telemetry = src.Telemetry
}

// Provider returns the block for a provider tag.
func (c *Config) Provider(tag string) (ProviderConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch tag {
	case ProviderGrok:
		return c.Providers.Grok, nil
	case ProviderGroq:
		return c.Providers.Groq, nil
	case ProviderGemini:
		return c.Providers.Gemini, nil
	case ProviderClaude:
		return c.Providers.Claude, nil
	case ProviderOllama:
		return c.Providers.Ollama, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unknown provider %q", tag)
	}
}

// KeyFor returns the configured API key for a provider tag ("" when unset).
func (c *Config) KeyFor(tag string) string {
	pc, err := c.Provider(tag)
	if err != nil {
		return ""
	}
	return pc.APIKey
}

// GenDefaults returns the process-wide generation parameters.
func (c *Config) GenDefaults() (maxTokens int, temperature float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Defaults.MaxTokens, c.Defaults.Temperature
}

// Dir returns the troupe state directory (~/.troupe).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".troupe"
	}
	return filepath.Join(home, ".troupe")
}

// DefaultPath returns the default config file path.
func DefaultPath() string { return filepath.Join(Dir(), "config.json") }

// TeamsDir returns the directory holding persisted team files.
func TeamsDir() string { return filepath.Join(Dir(), "teams") }

// TodosPath returns the task-list persistence file.
func TodosPath() string { return filepath.Join(Dir(), "todos.json") }

// DBPath returns the sqlite ledger path (tool-call log + usage).
func DBPath() string { return filepath.Join(Dir(), "troupe.db") }

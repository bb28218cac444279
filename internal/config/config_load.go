package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults. Cost rates are the
// published per-million-token prices at the time of release; they are plain
// config so users can correct them when providers reprice.
func Default() *Config {
	return &Config{
		Defaults: Defaults{
			Provider:    ProviderClaude,
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		Providers: ProvidersConfig{
			Grok: ProviderConfig{
				BaseURL:         "https://api.x.ai/v1",
				Model:           "grok-2-latest",
				InputCostPer1M:  2.00,
				OutputCostPer1M: 10.00,
			},
			Groq: ProviderConfig{
				BaseURL:         "https://api.groq.com/openai/v1",
				Model:           "llama-3.3-70b-versatile",
				InputCostPer1M:  0.59,
				OutputCostPer1M: 0.79,
			},
			Gemini: ProviderConfig{
				BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
				Model:           "gemini-2.0-flash",
				InputCostPer1M:  0.10,
				OutputCostPer1M: 0.40,
			},
			Claude: ProviderConfig{
				BaseURL:         "https://api.anthropic.com/v1",
				Model:           "claude-sonnet-4-5-20250929",
				InputCostPer1M:  3.00,
				OutputCostPer1M: 15.00,
			},
			Ollama: ProviderConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3.2",
			},
		},
		Sandbox: SandboxConfig{
			SafeMode:             false,
			MaxRounds:            10,
			MaxToolCallsPerRound: 5,
			BashTimeoutSec:       10,
			MaxResultBytes:       10240,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "troupe",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults + env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	// Provider keys and endpoint overrides.
	envStr("GROK_API_KEY", &c.Providers.Grok.APIKey)
	envStr("GROQ_API_KEY", &c.Providers.Groq.APIKey)
	envStr("GEMINI_API_KEY", &c.Providers.Gemini.APIKey)
	envStr("CLAUDE_API_KEY", &c.Providers.Claude.APIKey)
	envStr("GROK_BASE_URL", &c.Providers.Grok.BaseURL)

	// Telemetry
	envStr("TROUPE_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("TROUPE_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	if v := os.Getenv("TROUPE_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TROUPE_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}

	if v := os.Getenv("TROUPE_SAFE_MODE"); v != "" {
		c.Sandbox.SafeMode = v == "true" || v == "1"
	}
}

// Save writes the config to a JSON file (0600; secrets may be present).
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

const secretMask = "***"

// MaskedCopy returns a deep copy of the config with all API keys masked.
// Used anywhere config is printed so keys never land in terminal scrollback.
func (c *Config) MaskedCopy() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := json.Marshal(c)
	if err != nil {
		return &Config{}
	}
	cp := Default()
	if err := json.Unmarshal(data, cp); err != nil {
		return &Config{}
	}

	maskNonEmpty(&cp.Providers.Grok.APIKey)
	maskNonEmpty(&cp.Providers.Groq.APIKey)
	maskNonEmpty(&cp.Providers.Gemini.APIKey)
	maskNonEmpty(&cp.Providers.Claude.APIKey)
	maskNonEmpty(&cp.Providers.Ollama.APIKey)

	return cp
}

func maskNonEmpty(s *string) {
	if *s != "" {
		*s = secretMask
	}
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.Provider != ProviderClaude {
		t.Errorf("default provider = %q, want %q", cfg.Defaults.Provider, ProviderClaude)
	}
	if cfg.Sandbox.MaxRounds != 10 || cfg.Sandbox.MaxToolCallsPerRound != 5 {
		t.Errorf("sandbox bounds = %d/%d, want 10/5", cfg.Sandbox.MaxRounds, cfg.Sandbox.MaxToolCallsPerRound)
	}
	if cfg.Providers.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("ollama base = %q", cfg.Providers.Ollama.BaseURL)
	}
}

// TestLoad_JSON5 verifies the config parser accepts comments and trailing
// commas, which hand-edited config files accumulate.
func TestLoad_JSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
  // local setup
  "defaults": { "provider": "ollama", "max_tokens": 2048, },
  "providers": {
    "ollama": { "model": "qwen2.5-coder", },
  },
}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.Provider != "ollama" {
		t.Errorf("provider = %q, want ollama", cfg.Defaults.Provider)
	}
	if cfg.Defaults.MaxTokens != 2048 {
		t.Errorf("max_tokens = %d, want 2048", cfg.Defaults.MaxTokens)
	}
	if cfg.Providers.Ollama.Model != "qwen2.5-coder" {
		t.Errorf("ollama model = %q", cfg.Providers.Ollama.Model)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"providers": {"grok": {"api_key": "file-key", "base_url": "https://file.example"}}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GROK_API_KEY", "env-key")
	t.Setenv("GROK_BASE_URL", "https://env.example")
	t.Setenv("CLAUDE_API_KEY", "sk-ant-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.Grok.APIKey != "env-key" {
		t.Errorf("grok key = %q, want env-key", cfg.Providers.Grok.APIKey)
	}
	if cfg.Providers.Grok.BaseURL != "https://env.example" {
		t.Errorf("grok base = %q, want env override", cfg.Providers.Grok.BaseURL)
	}
	if cfg.Providers.Claude.APIKey != "sk-ant-test" {
		t.Errorf("claude key = %q", cfg.Providers.Claude.APIKey)
	}
}

func TestProvider_UnknownTag(t *testing.T) {
	cfg := Default()
	if _, err := cfg.Provider("openrouter"); err == nil {
		t.Error("expected error for unknown provider tag")
	}
}

func TestMaskedCopy(t *testing.T) {
	cfg := Default()
	cfg.Providers.Claude.APIKey = "sk-ant-secret"
	cfg.Providers.Groq.APIKey = ""

	cp := cfg.MaskedCopy()
	if cp.Providers.Claude.APIKey != secretMask {
		t.Errorf("claude key = %q, want mask", cp.Providers.Claude.APIKey)
	}
	if cp.Providers.Groq.APIKey != "" {
		t.Errorf("empty key should stay empty, got %q", cp.Providers.Groq.APIKey)
	}
	// Original untouched.
	if cfg.Providers.Claude.APIKey != "sk-ant-secret" {
		t.Error("MaskedCopy mutated the original")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := Default()
	cfg.Defaults.Provider = ProviderGrok
	cfg.Sandbox.SafeMode = true
	cfg.Providers.Grok.RequestsPerSecond = 2

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Defaults.Provider != ProviderGrok || !got.Sandbox.SafeMode {
		t.Errorf("round trip lost fields: %+v", got.Defaults)
	}
	if got.Providers.Grok.RequestsPerSecond != 2 {
		t.Errorf("rps = %v, want 2", got.Providers.Grok.RequestsPerSecond)
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"~/x/y", filepath.Join(home, "x/y")},
		{"~", home},
		{"/abs/path", "/abs/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); filepath.Clean(got) != filepath.Clean(tt.want) && !(tt.in == "" && got == "") {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDirPaths(t *testing.T) {
	if !strings.HasSuffix(Dir(), ".troupe") {
		t.Errorf("Dir() = %q, want ~/.troupe", Dir())
	}
	if filepath.Dir(TeamsDir()) != Dir() {
		t.Errorf("TeamsDir() = %q not under Dir()", TeamsDir())
	}
}

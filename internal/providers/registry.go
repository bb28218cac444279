package providers

import (
	"fmt"

	"github.com/troupelabs/troupe/internal/config"
)

// ToolCapable reports whether a provider tag participates in the tool loop.
// Single-pass providers (groq, gemini) receive no tool schemas and their
// responses never carry tool calls.
func ToolCapable(tag string) bool {
	switch tag {
	case config.ProviderGrok, config.ProviderClaude, config.ProviderOllama:
		return true
	default:
		return false
	}
}

// Registry builds Provider adapters from config, resolving per-agent
// overrides against config defaults.
type Registry struct {
	cfg *config.Config
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg}
}

// Create binds an adapter for a provider tag. apiKey and baseURL are
// per-agent overrides; empty values fall back to config (and for keys, to the
// environment overlay already applied to config). A missing key for a remote
// provider is a config error: the agent cannot be created.
func (r *Registry) Create(tag, model, apiKey, baseURL string) (Provider, error) {
	pc, err := r.cfg.Provider(tag)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = pc.Model
	}
	if apiKey == "" {
		apiKey = pc.APIKey
	}
	if baseURL == "" {
		baseURL = pc.BaseURL
	}

	if apiKey == "" && tag != config.ProviderOllama {
		return nil, fmt.Errorf("no API key for %s: set %s or providers.%s.api_key in config", tag, envKeyName(tag), tag)
	}

	switch tag {
	case config.ProviderGrok:
		return NewOpenAIProvider("grok", apiKey, baseURL, model, pc.RequestsPerSecond), nil
	case config.ProviderGroq:
		return NewOpenAIProvider("groq", apiKey, baseURL, model, pc.RequestsPerSecond), nil
	case config.ProviderOllama:
		return NewOllamaProvider(baseURL, model), nil
	case config.ProviderClaude:
		return NewAnthropicProvider(apiKey,
			WithAnthropicModel(model),
			WithAnthropicBaseURL(baseURL),
			WithAnthropicRateLimit(pc.RequestsPerSecond),
		), nil
	case config.ProviderGemini:
		return NewGeminiProvider(apiKey, baseURL, model, pc.RequestsPerSecond), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", tag)
	}
}

func envKeyName(tag string) string {
	switch tag {
	case config.ProviderGrok:
		return "GROK_API_KEY"
	case config.ProviderGroq:
		return "GROQ_API_KEY"
	case config.ProviderGemini:
		return "GEMINI_API_KEY"
	case config.ProviderClaude:
		return "CLAUDE_API_KEY"
	default:
		return ""
	}
}

// Rates returns the cost table entry for a provider tag.
func (r *Registry) Rates(tag string) (inPer1M, outPer1M float64) {
	pc, err := r.cfg.Provider(tag)
	if err != nil {
		return 0, 0
	}
	return pc.InputCostPer1M, pc.OutputCostPer1M
}

// GenDefaults returns the configured generation parameters applied to every
// agent bound through this registry.
func (r *Registry) GenDefaults() (maxTokens int, temperature float64) {
	return r.cfg.GenDefaults()
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaBase = "http://localhost:11434"

// NewOllamaProvider builds the adapter for a local Ollama server, which
// exposes the OpenAI dialect under /v1. The API key slot is unused by Ollama
// but must be non-empty for strict OpenAI-compatible proxies in front of it.
func NewOllamaProvider(baseURL, defaultModel string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBase
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return NewOpenAIProvider("ollama", "ollama", baseURL+"/v1", defaultModel, 0)
}

// OllamaModel is one locally installed model from /api/tags.
type OllamaModel struct {
	Name       string             `json:"name"`
	Size       int64              `json:"size"`
	ModifiedAt time.Time          `json:"modified_at"`
	Digest     string             `json:"digest"`
	Details    OllamaModelDetails `json:"details"`
}

// OllamaModelDetails carries the model metadata Ollama reports.
type OllamaModelDetails struct {
	Format            string `json:"format"`
	Family            string `json:"family"`
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
}

// ListOllamaModels queries a local Ollama server for installed models.
func ListOllamaModels(ctx context.Context, baseURL string) ([]OllamaModel, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBase
	}
	baseURL = strings.TrimRight(baseURL, "/")

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: is the server running at %s? %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	var tags struct {
		Models []OllamaModel `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("ollama: decode tags: %w", err)
	}
	return tags.Models, nil
}

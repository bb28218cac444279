package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiProvider implements Provider for the Gemini generateContent API.
// Gemini is a single-pass provider here: tools are never sent, and the
// conversation history is concatenated into a single text part.
type GeminiProvider struct {
	apiKey       string
	apiBase      string
	defaultModel string
	client       *http.Client
	retryConfig  RetryConfig
	limiter      limiter
}

// NewGeminiProvider builds the gemini adapter. rps <= 0 disables
// client-side rate limiting.
func NewGeminiProvider(apiKey, apiBase, defaultModel string, rps float64) *GeminiProvider {
	if apiBase == "" {
		apiBase = "https://generativelanguage.googleapis.com/v1beta"
	}
	apiBase = strings.TrimRight(apiBase, "/")

	return &GeminiProvider{
		apiKey:       apiKey,
		apiBase:      apiBase,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 120 * time.Second},
		retryConfig:  DefaultRetryConfig(),
		limiter:      newLimiter(rps),
	}
}

func (p *GeminiProvider) Name() string         { return "gemini" }
func (p *GeminiProvider) DefaultModel() string { return p.defaultModel }

func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	body := p.buildRequestBody(req)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := RetryDo(ctx, p.retryConfig, func() (*ChatResponse, error) {
		return p.doGenerate(ctx, model, body)
	})
	if err != nil {
		return nil, friendlyError(p.Name(), err)
	}
	return resp, nil
}

// buildRequestBody flattens the history into one user text part. System
// messages become systemInstruction; everything else is joined with role
// labels so the model still sees who said what.
func (p *GeminiProvider) buildRequestBody(req ChatRequest) map[string]interface{} {
	var system []string
	var history []string

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "user":
			history = append(history, "User: "+m.Content)
		case "assistant":
			if m.Content != "" {
				history = append(history, "Assistant: "+m.Content)
			}
		}
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": strings.Join(history, "\n\n")},
				},
			},
		},
	}

	if len(system) > 0 {
		body["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": strings.Join(system, "\n\n")},
			},
		}
	}

	generationConfig := map[string]interface{}{}
	if v, ok := req.Options[OptMaxTokens]; ok {
		generationConfig["maxOutputTokens"] = v
	}
	if v, ok := req.Options[OptTemperature]; ok {
		generationConfig["temperature"] = v
	}
	if len(generationConfig) > 0 {
		body["generationConfig"] = generationConfig
	}

	return body
}

func (p *GeminiProvider) doGenerate(ctx context.Context, model string, body interface{}) (*ChatResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.apiBase, model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			Body:       string(respBody),
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}

	result := &ChatResponse{FinishReason: "stop"}
	if len(gResp.Candidates) > 0 {
		var texts []string
		for _, part := range gResp.Candidates[0].Content.Parts {
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
		result.Content = strings.Join(texts, "")
		if gResp.Candidates[0].FinishReason == "MAX_TOKENS" {
			result.FinishReason = "length"
		}
	}

	if gResp.UsageMetadata != nil {
		result.Usage = &Usage{
			PromptTokens:     gResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: gResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gResp.UsageMetadata.TotalTokenCount,
		}
	}

	return result, nil
}

// Gemini wire types (response side).

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

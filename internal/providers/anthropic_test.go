package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicChat_RequestShape(t *testing.T) {
	var captured map[string]interface{}
	var apiKey, version string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		version = r.Header.Get("anthropic-version")
		if r.URL.Path != "/messages" {
			t.Errorf("path = %q, want /messages", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"done"}],"stop_reason":"end_turn","usage":{"input_tokens":5,"output_tokens":1}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("sk-ant-test", WithAnthropicBaseURL(srv.URL), WithAnthropicModel("claude-test"))
	_, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "list files"},
			{Role: "assistant", Content: "on it", ToolCalls: []ToolCall{{ID: "tu_1", Name: "glob", Arguments: map[string]interface{}{"pattern": "*"}}}},
			{Role: "tool", Content: "a.txt", ToolCallID: "tu_1"},
		},
		Tools: []ToolDefinition{{Type: "function", Function: ToolFunctionSchema{Name: "glob", Description: "find files", Parameters: map[string]interface{}{"type": "object"}}}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if apiKey != "sk-ant-test" {
		t.Errorf("x-api-key = %q", apiKey)
	}
	if version != "2023-06-01" {
		t.Errorf("anthropic-version = %q", version)
	}
	if captured["model"] != "claude-test" {
		t.Errorf("model = %v", captured["model"])
	}

	// System prompts lift out of the messages array.
	sys := captured["system"].([]interface{})
	if sys[0].(map[string]interface{})["text"] != "be brief" {
		t.Errorf("system = %v", sys)
	}
	msgs := captured["messages"].([]interface{})
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3 (system lifted out)", len(msgs))
	}

	// Assistant turn carries text then tool_use blocks.
	asst := msgs[1].(map[string]interface{})
	blocks := asst["content"].([]interface{})
	if len(blocks) != 2 {
		t.Fatalf("assistant blocks = %d, want 2", len(blocks))
	}
	if blocks[0].(map[string]interface{})["type"] != "text" {
		t.Errorf("block 0 = %v", blocks[0])
	}
	tu := blocks[1].(map[string]interface{})
	if tu["type"] != "tool_use" || tu["id"] != "tu_1" || tu["name"] != "glob" {
		t.Errorf("tool_use block = %v", tu)
	}

	// Tool results come back as user messages with tool_result blocks.
	toolMsg := msgs[2].(map[string]interface{})
	if toolMsg["role"] != "user" {
		t.Errorf("tool result role = %v", toolMsg["role"])
	}
	tr := toolMsg["content"].([]interface{})[0].(map[string]interface{})
	if tr["type"] != "tool_result" || tr["tool_use_id"] != "tu_1" || tr["content"] != "a.txt" {
		t.Errorf("tool_result = %v", tr)
	}

	// Tools use the flat name/description/input_schema shape.
	tools := captured["tools"].([]interface{})
	tool := tools[0].(map[string]interface{})
	if tool["name"] != "glob" || tool["input_schema"] == nil {
		t.Errorf("tool = %v", tool)
	}
	if _, nested := tool["function"]; nested {
		t.Error("anthropic tools must not nest under a function key")
	}
}

func TestParseAnthropicResponse(t *testing.T) {
	tests := []struct {
		name       string
		resp       anthropicResponse
		wantText   string
		wantCalls  int
		wantFinish string
	}{
		{
			name: "text only",
			resp: anthropicResponse{
				Content:    []anthropicContentBlock{{Type: "text", Text: "hello"}},
				StopReason: "end_turn",
			},
			wantText:   "hello",
			wantFinish: "stop",
		},
		{
			name: "tool use",
			resp: anthropicResponse{
				Content: []anthropicContentBlock{
					{Type: "text", Text: "checking"},
					{Type: "tool_use", ID: "tu_9", Name: "bash", Input: map[string]interface{}{"command": "ls"}},
				},
				StopReason: "tool_use",
			},
			wantText:   "checking",
			wantCalls:  1,
			wantFinish: "tool_calls",
		},
		{
			name: "truncated",
			resp: anthropicResponse{
				Content:    []anthropicContentBlock{{Type: "text", Text: "long"}},
				StopReason: "max_tokens",
			},
			wantText:   "long",
			wantFinish: "length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAnthropicResponse(&tt.resp)
			if got.Content != tt.wantText {
				t.Errorf("content = %q, want %q", got.Content, tt.wantText)
			}
			if len(got.ToolCalls) != tt.wantCalls {
				t.Errorf("tool calls = %d, want %d", len(got.ToolCalls), tt.wantCalls)
			}
			if got.FinishReason != tt.wantFinish {
				t.Errorf("finish = %q, want %q", got.FinishReason, tt.wantFinish)
			}
		})
	}
}

func TestParseAnthropicResponse_Usage(t *testing.T) {
	got := parseAnthropicResponse(&anthropicResponse{
		Content:    []anthropicContentBlock{{Type: "text", Text: "x"}},
		StopReason: "end_turn",
		Usage:      &anthropicUsage{InputTokens: 100, OutputTokens: 20, CacheReadInputTokens: 7},
	})
	if got.Usage.PromptTokens != 100 || got.Usage.CompletionTokens != 20 {
		t.Errorf("usage = %+v", got.Usage)
	}
	if got.Usage.TotalTokens != 120 {
		t.Errorf("total = %d, want 120", got.Usage.TotalTokens)
	}
	if got.Usage.CacheReadTokens != 7 {
		t.Errorf("cache read = %d", got.Usage.CacheReadTokens)
	}
}

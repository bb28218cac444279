package mcp

import (
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/troupelabs/troupe/internal/permission"
)

func TestBridgeToolNaming(t *testing.T) {
	tests := []struct {
		server string
		tool   string
		want   string
	}{
		{"github", "search_issues", "mcp_github_search_issues"},
		{"github tools!", "search issues", "mcp_github_tools__search_issues"},
		{"fs", "read/file", "mcp_fs_read_file"},
	}
	for _, tt := range tests {
		bt := newBridgeTool(tt.server, mcpgo.Tool{Name: tt.tool}, nil)
		if got := bt.Name(); got != tt.want {
			t.Errorf("name for %q/%q = %q, want %q", tt.server, tt.tool, got, tt.want)
		}
		if bt.OriginalName() != tt.tool {
			t.Errorf("original name = %q, want %q", bt.OriginalName(), tt.tool)
		}
		if !permission.RequiresApproval(bt.Name()) {
			t.Errorf("bridged tool %q should require approval", bt.Name())
		}
	}
}

func TestBridgeToolSchema(t *testing.T) {
	tool := mcpgo.Tool{
		Name:        "search",
		Description: "Search the index",
		InputSchema: mcpgo.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"q": map[string]interface{}{"type": "string"},
			},
			Required: []string{"q"},
		},
	}
	bt := newBridgeTool("idx", tool, nil)

	if bt.Description() != "Search the index" {
		t.Errorf("description = %q", bt.Description())
	}

	schema := bt.Parameters()
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("properties missing: %v", schema)
	}
	q, ok := props["q"].(map[string]interface{})
	if !ok || q["type"] != "string" {
		t.Errorf("q schema = %v", props["q"])
	}
}

func TestBridgeToolEmptySchemaNormalized(t *testing.T) {
	bt := newBridgeTool("s", mcpgo.Tool{Name: "noop"}, nil)

	schema := bt.Parameters()
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}
	if bt.Description() == "" {
		t.Error("fallback description is empty")
	}
	if !strings.Contains(bt.Description(), "noop") {
		t.Errorf("fallback description %q does not name the tool", bt.Description())
	}
}

func TestFlattenContent(t *testing.T) {
	got := flattenContent([]mcpgo.Content{
		mcpgo.TextContent{Type: "text", Text: "first"},
		mcpgo.ImageContent{Type: "image", MIMEType: "image/png"},
		mcpgo.TextContent{Type: "text", Text: "second"},
	})
	want := "first\n[image: image/png]\nsecond"
	if got != want {
		t.Errorf("flattened = %q, want %q", got, want)
	}

	if got := flattenContent(nil); got != "" {
		t.Errorf("flattened nil = %q, want empty", got)
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/troupelabs/troupe/internal/permission"
	"github.com/troupelabs/troupe/internal/tools"
)

// Remote servers can stall; a call never holds the agent loop longer than this.
const callTimeout = 60 * time.Second

var namePattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func sanitizeName(s string) string {
	return namePattern.ReplaceAllString(s, "_")
}

// BridgeTool adapts one remote MCP tool to the sandbox Tool interface.
type BridgeTool struct {
	server   string
	original string
	name     string
	desc     string
	schema   map[string]interface{}
	client   *mcpclient.Client
}

func newBridgeTool(server string, t mcpgo.Tool, client *mcpclient.Client) *BridgeTool {
	var schema map[string]interface{}
	if data, err := json.Marshal(t.InputSchema); err == nil {
		_ = json.Unmarshal(data, &schema)
	}
	if schema == nil {
		schema = map[string]interface{}{"type": "object"}
	}
	// Provider wire formats require an object schema.
	if v, _ := schema["type"].(string); v == "" {
		schema["type"] = "object"
	}

	return &BridgeTool{
		server:   server,
		original: t.Name,
		name:     permission.MCPToolPrefix + sanitizeName(server) + "_" + sanitizeName(t.Name),
		desc:     t.Description,
		schema:   schema,
		client:   client,
	}
}

func (b *BridgeTool) Name() string { return b.name }

// OriginalName returns the tool name as the server advertises it.
func (b *BridgeTool) OriginalName() string { return b.original }

func (b *BridgeTool) Description() string {
	if b.desc != "" {
		return b.desc
	}
	return fmt.Sprintf("MCP tool %s from server %s", b.original, b.server)
}

func (b *BridgeTool) Parameters() map[string]interface{} { return b.schema }

func (b *BridgeTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req := mcpgo.CallToolRequest{}
	req.Params.Name = b.original
	req.Params.Arguments = args

	res, err := b.client.CallTool(ctx, req)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("MCP call %s failed: %v", b.original, err))
	}

	text := flattenContent(res.Content)
	if res.IsError {
		if text == "" {
			text = "MCP tool reported an error"
		}
		return tools.ErrorResult(text)
	}
	if text == "" {
		text = "(no content)"
	}
	return tools.NewResult(text)
}

// flattenContent joins the text blocks of an MCP result. Non-text content
// (images, resources) is summarized rather than inlined.
func flattenContent(content []mcpgo.Content) string {
	var parts []string
	for _, c := range content {
		switch v := c.(type) {
		case mcpgo.TextContent:
			parts = append(parts, v.Text)
		case mcpgo.ImageContent:
			parts = append(parts, fmt.Sprintf("[image: %s]", v.MIMEType))
		default:
			parts = append(parts, fmt.Sprintf("[%T]", c))
		}
	}
	return strings.Join(parts, "\n")
}

// Package permission gates tool invocations that mutate the host: the agent
// runtime asks a Gate before running anything in the gated set, and a denial
// becomes a normal tool result instead of an error.
package permission

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Gate decides whether a tool invocation may proceed.
type Gate interface {
	Allow(toolName, detail string) bool
}

// GateFunc adapts a plain function to the Gate interface.
type GateFunc func(toolName, detail string) bool

// Allow calls f.
func (f GateFunc) Allow(toolName, detail string) bool { return f(toolName, detail) }

// AutoAllow approves every invocation. Team broadcasts run under it so a
// multi-agent turn does not stall on prompts.
func AutoAllow() Gate {
	return GateFunc(func(string, string) bool { return true })
}

// MCPToolPrefix marks tools proxied to an external MCP server. Everything
// behind the prefix runs outside the sandbox, so it is always gated.
const MCPToolPrefix = "mcp_"

var gatedTools = map[string]bool{
	"bash":  true,
	"write": true,
	"edit":  true,
}

// RequiresApproval reports whether the named tool must pass a Gate before
// executing. Read-only tools are ungated.
func RequiresApproval(toolName string) bool {
	return gatedTools[toolName] || strings.HasPrefix(toolName, MCPToolPrefix)
}

// DeniedMessage is the tool result returned when a Gate rejects a call.
func DeniedMessage(toolName string) string {
	return fmt.Sprintf("Permission denied by user for %s", toolName)
}

// Detail summarizes a tool call for the approval prompt: the command and
// working directory for bash, the target path for write/edit, the URL for
// webfetch, and compact JSON for anything else.
func Detail(toolName string, args map[string]interface{}) string {
	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}
	switch toolName {
	case "bash":
		if wd := str("workdir"); wd != "" {
			return fmt.Sprintf("%s  (in %s)", str("command"), wd)
		}
		return str("command")
	case "write", "edit":
		return str("path")
	case "webfetch":
		return str("url")
	}
	b, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(b)
}

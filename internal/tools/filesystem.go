package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultReadLimit is the maximum number of lines a single read returns
// unless the caller narrows it.
const defaultReadLimit = 2000

// ReadTool reads file contents with 1-indexed line prefixes.
type ReadTool struct {
	policy *Policy
}

func NewReadTool(policy *Policy) *ReadTool {
	return &ReadTool{policy: policy}
}

func (t *ReadTool) Name() string        { return "read" }
func (t *ReadTool) Description() string { return "Read a file, returning numbered lines" }

func (t *ReadTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to read",
			},
			"offset": map[string]interface{}{
				"type":        "number",
				"description": "1-indexed line to start from (default 1)",
			},
			"limit": map[string]interface{}{
				"type":        "number",
				"description": "Maximum number of lines to return (default 2000)",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	if path == "" {
		return ErrorResult("path is required")
	}

	// Validation first: a path outside the jail never reaches the filesystem.
	resolved, err := t.policy.ResolvePath(path)
	if err != nil {
		return BlockedResult(err.Error())
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read file: %v", err))
	}
	if len(data) == 0 {
		return SilentResult("(empty file)")
	}

	offset := 1
	if o, ok := args["offset"].(float64); ok && int(o) > 1 {
		offset = int(o)
	}
	limit := defaultReadLimit
	if l, ok := args["limit"].(float64); ok && int(l) > 0 {
		limit = int(l)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if offset > len(lines) {
		return ErrorResult(fmt.Sprintf("offset %d is past the end of the file (%d lines)", offset, len(lines)))
	}
	end := offset - 1 + limit
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for i := offset - 1; i < end; i++ {
		fmt.Fprintf(&sb, "%d→%s\n", i+1, lines[i])
	}
	return SilentResult(strings.TrimSuffix(sb.String(), "\n"))
}

// WriteTool writes file contents, creating parent directories as needed.
type WriteTool struct {
	policy *Policy
}

func NewWriteTool(policy *Policy) *WriteTool {
	return &WriteTool{policy: policy}
}

func (t *WriteTool) Name() string        { return "write" }
func (t *WriteTool) Description() string { return "Write content to a file, creating it if needed" }

func (t *WriteTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to write",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Full content to write",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	if path == "" {
		return ErrorResult("path is required")
	}
	content, ok := args["content"].(string)
	if !ok {
		return ErrorResult("content is required")
	}

	resolved, err := t.policy.ResolvePath(path)
	if err != nil {
		return BlockedResult(err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return ErrorResult(fmt.Sprintf("failed to create parent directory: %v", err))
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return ErrorResult(fmt.Sprintf("failed to write file: %v", err))
	}

	return NewResult("File written successfully")
}

// EditTool performs exact substring replacement in a file.
type EditTool struct {
	policy *Policy
}

func NewEditTool(policy *Policy) *EditTool {
	return &EditTool{policy: policy}
}

func (t *EditTool) Name() string        { return "edit" }
func (t *EditTool) Description() string { return "Replace an exact string in a file" }

func (t *EditTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to edit",
			},
			"oldString": map[string]interface{}{
				"type":        "string",
				"description": "Exact text to replace",
			},
			"newString": map[string]interface{}{
				"type":        "string",
				"description": "Replacement text",
			},
			"replaceAll": map[string]interface{}{
				"type":        "boolean",
				"description": "Replace every occurrence (default: first only)",
			},
		},
		"required": []string{"path", "oldString", "newString"},
	}
}

func (t *EditTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	if path == "" {
		return ErrorResult("path is required")
	}
	oldString, _ := args["oldString"].(string)
	if oldString == "" {
		return ErrorResult("oldString is required")
	}
	newString, _ := args["newString"].(string)
	replaceAll, _ := args["replaceAll"].(bool)

	resolved, err := t.policy.ResolvePath(path)
	if err != nil {
		return BlockedResult(err.Error())
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read file: %v", err))
	}
	content := string(data)

	if !strings.Contains(content, oldString) {
		return ErrorResult("oldString not found in file")
	}

	var updated string
	replacements := 1
	if replaceAll {
		replacements = strings.Count(content, oldString)
		updated = strings.ReplaceAll(content, oldString, newString)
	} else {
		updated = strings.Replace(content, oldString, newString, 1)
	}

	if err := os.WriteFile(resolved, []byte(updated), 0644); err != nil {
		return ErrorResult(fmt.Sprintf("failed to write file: %v", err))
	}

	if replacements == 1 {
		return NewResult("File edited successfully")
	}
	return NewResult(fmt.Sprintf("File edited successfully (%d replacements)", replacements))
}

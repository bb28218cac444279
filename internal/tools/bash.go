package tools

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"time"
)

// Commands denied in every mode. The list guards against the model being
// talked into destroying the machine or piping remote code into a shell;
// Docker or OS level hardening is the host's job, not the sandbox's.
var denyPatterns = []*regexp.Regexp{
	// rm aimed at / or ~
	regexp.MustCompile(`\brm\s+(?:-{1,2}[\w=-]+\s+)*["']?(?:/|~)/?\*?["']?\s*(?:$|[;&|])`),
	regexp.MustCompile(`\bmkfs(?:\.\w+)?\b`),
	regexp.MustCompile(`\bdd\b.*\bof=/dev/(?:sd|hd|nvme|vd|xvd)`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]\b`),
	regexp.MustCompile(`\b(?:shutdown|reboot|poweroff|halt)\b`),
	// pipe-to-shell from a downloader
	regexp.MustCompile(`\bcurl\b[^|;&]*\|\s*(?:ba|z|da)?sh\b`),
	regexp.MustCompile(`\bwget\b[^|;&]*\|\s*(?:ba|z|da)?sh\b`),
	// netcat listeners
	regexp.MustCompile(`\b(?:nc|ncat|netcat)\b[^;&|]*\s-[a-zA-Z]*l`),
	// permission churn on the root tree
	regexp.MustCompile(`\bchmod\s+(?:-[\w]+\s+)*[0-7]{3,4}\s+/(?:\s|$)`),
	regexp.MustCompile(`\bchown\b[^;&|]*\s+/(?:\s|$)`),
	// privilege escalation, bare or chained
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bsu\s+-`),
	regexp.MustCompile(`\bsu\s+root\b`),
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`), // fork bomb
}

// Additional denials when safe mode is on: network utilities and package
// installers.
var safeModeDenyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:curl|wget|nc|ncat|netcat|ssh|scp|sftp)\b`),
	regexp.MustCompile(`\bnpm\s+(?:install|i|add)\b`),
	regexp.MustCompile(`\bpip3?\s+install\b`),
	regexp.MustCompile(`\bapt(?:-get)?\s+(?:\S+\s+)*install\b`),
	regexp.MustCompile(`\byum\s+install\b`),
	regexp.MustCompile(`\bbrew\s+install\b`),
}

// BashTool executes shell commands inside the policy jail.
type BashTool struct {
	policy *Policy
}

func NewBashTool(policy *Policy) *BashTool {
	return &BashTool{policy: policy}
}

func (t *BashTool) Name() string { return "bash" }

func (t *BashTool) Description() string {
	return "Execute a shell command and return its combined stdout and stderr"
}

func (t *BashTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"workdir": map[string]interface{}{
				"type":        "string",
				"description": "Working directory (defaults to the project root)",
			},
			"timeout": map[string]interface{}{
				"type":        "number",
				"description": "Timeout in seconds (capped at 120)",
			},
		},
		"required": []string{"command"},
	}
}

func (t *BashTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	command, _ := args["command"].(string)
	if command == "" {
		return ErrorResult("command is required")
	}

	// Deny check happens before anything is spawned.
	if pattern := deniedBy(command, t.policy.SafeMode); pattern != "" {
		slog.Warn("security.command_blocked", "pattern", pattern, "command", clipChars(command, 120))
		return BlockedResult(fmt.Sprintf("command matches deny pattern %s", pattern))
	}

	cwd := t.policy.ProjectRoot
	if wd, _ := args["workdir"].(string); wd != "" {
		resolved, err := t.policy.ResolvePath(wd)
		if err != nil {
			return BlockedResult(err.Error())
		}
		cwd = resolved
	}

	timeout := t.policy.BashTimeout
	if sec, ok := args["timeout"].(float64); ok && sec > 0 {
		timeout = time.Duration(sec * float64(time.Second))
	}
	if timeout > MaxToolTimeout {
		timeout = MaxToolTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Single-argument pass-through: the command string goes to the shell
	// verbatim, never rebuilt by concatenation.
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var output string
	if stdout.Len() > 0 {
		output = stdout.String()
	}
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += "STDERR:\n" + stderr.String()
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return NewResult(fmt.Sprintf("Command timed out after %s", timeout))
		}
		if output == "" {
			output = err.Error()
		}
		return ErrorResult(output)
	}

	if output == "" {
		output = "(command completed with no output)"
	}

	return SilentResult(output)
}

// deniedBy returns the pattern that rejects command, or "" when allowed.
func deniedBy(command string, safeMode bool) string {
	for _, pattern := range denyPatterns {
		if pattern.MatchString(command) {
			return pattern.String()
		}
	}
	if safeMode {
		for _, pattern := range safeModeDenyPatterns {
			if pattern.MatchString(command) {
				return pattern.String()
			}
		}
	}
	return ""
}

package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/troupelabs/troupe/internal/bus"
	"github.com/troupelabs/troupe/internal/permission"
	"github.com/troupelabs/troupe/internal/providers"
	"github.com/troupelabs/troupe/internal/tools"
	"github.com/troupelabs/troupe/internal/tracing"
)

// Request options applied when the agent carries no configured values.
const (
	defaultMaxTokens   = 8192
	defaultTemperature = 0.7
)

// SendOptions configures one SendMessage call. Everything is optional: a nil
// Sandbox disables tools, a nil Gate auto-allows, nil callbacks are no-ops.
type SendOptions struct {
	// Directory is surfaced to the model as the working directory.
	Directory string

	// IncludeHistory prepends the agent's DM history and, on success,
	// appends the new turn to it. Team broadcasts leave it false.
	IncludeHistory bool

	// Events receives tool-call and tool-result events when set.
	Events bus.EventPublisher

	// Gate approves dangerous tool calls. Nil allows everything.
	Gate permission.Gate

	// Sandbox executes tool calls. Nil disables the tool loop.
	Sandbox *tools.Sandbox

	// Host callbacks, fired per tool call.
	OnToolCall   func(name string, args map[string]interface{})
	OnToolResult func(name string, ok bool)
}

// SendMessage runs the tool loop for one user message and returns the
// accumulated assistant text with the usage footer appended. Provider
// transport errors escape; everything a tool does comes back as a normal
// result string.
func (a *Agent) SendMessage(ctx context.Context, text string, opts SendOptions) (string, error) {
	a.setStatus(StatusThinking)

	ctx, runSpan := tracing.StartRun(ctx, a.Config.Name, a.Config.Provider, a.Config.Model)
	defer runSpan.End()

	runTools := providers.ToolCapable(a.Config.Provider) && opts.Sandbox != nil

	messages := []providers.Message{{Role: "system", Content: a.systemPrompt(opts.Directory, runTools)}}
	if opts.IncludeHistory {
		messages = append(messages, a.History()...)
	}
	messages = append(messages, providers.Message{Role: "user", Content: text})

	var defs []providers.ToolDefinition
	var counters *tools.Counters
	if runTools {
		defs = opts.Sandbox.Definitions()
		counters = tools.NewCounters(opts.Sandbox.Policy())
	}

	maxTokens := a.maxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := a.temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	var parts []string
	var lastUsage *providers.Usage
	limitHit := false
	round := 0

	for {
		round++
		slog.Debug("agent round", "agent", a.Config.ID, "round", round, "messages", len(messages))

		llmCtx, llmSpan := tracing.StartLLM(ctx, a.Config.Provider, a.Config.Model, round)
		resp, err := a.provider.Chat(llmCtx, providers.ChatRequest{
			Messages: messages,
			Tools:    defs,
			Model:    a.Config.Model,
			Options: map[string]interface{}{
				providers.OptMaxTokens:   maxTokens,
				providers.OptTemperature: temperature,
			},
		})
		if err != nil {
			tracing.RecordError(llmSpan, err)
			llmSpan.End()
			tracing.RecordError(runSpan, err)
			a.setStatus(StatusError)
			return "", err
		}
		if resp.Usage != nil {
			tracing.SetLLMUsage(llmSpan, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}
		llmSpan.End()

		lastUsage = resp.Usage
		if txt := strings.TrimSpace(StripReasoning(resp.Content)); txt != "" {
			parts = append(parts, txt)
		}

		if !runTools || len(resp.ToolCalls) == 0 {
			break
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		a.setStatus(StatusTool)
		for _, tc := range resp.ToolCalls {
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    a.runToolCall(ctx, tc, opts, counters),
				ToolCallID: tc.ID,
			})
		}
		a.setStatus(StatusThinking)

		if !counters.EndRound() {
			// Budget exhausted: deliver the results, elicit one final
			// response without tools, then stop.
			limitHit = true
			runTools = false
			defs = nil
		}
	}

	if limitHit {
		parts = append(parts, tools.RoundLimitMessage)
	}

	out := strings.Join(parts, "\n\n")
	if footer := providers.UsageFooter(lastUsage, a.inPer1M, a.outPer1M); footer != "" {
		out += footer
	}

	if opts.IncludeHistory {
		a.appendHistory(
			providers.Message{Role: "user", Content: text},
			providers.Message{Role: "assistant", Content: out},
		)
	}

	a.setStatus(StatusIdle)
	return out, nil
}

// runToolCall produces the result string for one tool call: the budget
// sentinel when the ceiling is hit, a denial when the gate rejects, otherwise
// the sandboxed result. The loop never re-throws from inside a tool.
func (a *Agent) runToolCall(ctx context.Context, tc providers.ToolCall, opts SendOptions, counters *tools.Counters) string {
	argsJSON, _ := json.Marshal(tc.Arguments)
	slog.Info("tool call", "agent", a.Config.ID, "tool", tc.Name, "args_len", len(argsJSON))

	ctx, span := tracing.StartTool(ctx, tc.Name)
	defer span.End()

	if opts.OnToolCall != nil {
		opts.OnToolCall(tc.Name, tc.Arguments)
	}
	if opts.Events != nil {
		opts.Events.Broadcast(bus.Event{Name: bus.EventAgentToolCall, Payload: bus.ToolCallPayload{
			Agent: a.Config.Name,
			Tool:  tc.Name,
			Args:  clip(string(argsJSON), 200),
		}})
	}

	var content string
	var ok bool
	switch {
	case !counters.AllowCall():
		content, ok = tools.ToolCallLimitMessage, false
	case opts.Gate != nil && permission.RequiresApproval(tc.Name) &&
		!opts.Gate.Allow(tc.Name, permission.Detail(tc.Name, tc.Arguments)):
		content, ok = permission.DeniedMessage(tc.Name), false
	default:
		result := opts.Sandbox.Execute(ctx, a.Config.ID, tc)
		content, ok = result.ForLLM, result.OK()
	}

	tracing.SetToolResult(span, ok)

	if opts.OnToolResult != nil {
		opts.OnToolResult(tc.Name, ok)
	}
	if opts.Events != nil {
		opts.Events.Broadcast(bus.Event{Name: bus.EventAgentToolResult, Payload: bus.ToolResultPayload{
			Agent:   a.Config.Name,
			Tool:    tc.Name,
			OK:      ok,
			Preview: clip(content, 200),
		}})
	}
	return content
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

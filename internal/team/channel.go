package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/bus"
	"github.com/troupelabs/troupe/internal/permission"
	"github.com/troupelabs/troupe/internal/tools"
)

// ErrNoAgents is returned when a broadcast targets an empty team.
var ErrNoAgents = errors.New("no agents in team")

// Channel broadcasts one user turn to every team member, strictly in order.
// Each agent's prompt carries the user request plus every earlier teammate
// reply, never a later one. The channel references the team; it does not
// own it.
type Channel struct {
	team       *Team
	transcript *Transcript
	sandbox    *tools.Sandbox
	events     bus.EventPublisher
	directory  string
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithSandbox gives broadcast agents tool access.
func WithSandbox(sb *tools.Sandbox) ChannelOption {
	return func(c *Channel) { c.sandbox = sb }
}

// WithEvents publishes broadcast progress to pub.
func WithEvents(pub bus.EventPublisher) ChannelOption {
	return func(c *Channel) { c.events = pub }
}

// WithDirectory sets the working directory surfaced to agents.
func WithDirectory(dir string) ChannelOption {
	return func(c *Channel) { c.directory = dir }
}

// NewChannel creates a channel over the team with a fresh transcript.
func NewChannel(t *Team, opts ...ChannelOption) *Channel {
	c := &Channel{team: t, transcript: NewTranscript()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcript returns the channel's shared transcript.
func (c *Channel) Transcript() *Transcript { return c.transcript }

// Broadcast sends message to every agent in team order. An agent failure
// becomes an "Error: …" transcript entry and the broadcast continues; a
// canceled context stops the broadcast between agents. The only other error
// returned is an empty team.
func (c *Channel) Broadcast(ctx context.Context, message string) error {
	if len(c.team.Agents) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAgents, c.team.Name)
	}

	c.transcript.AppendUser(message)

	for i, ag := range c.team.Agents {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.emit(bus.EventAgentThinking, bus.AgentActivityPayload{
			Agent: ag.Config.Name,
			Role:  ag.Config.Role,
		})

		prompt := c.buildPrompt(ag, i == 0, message)
		reply, err := ag.SendMessage(ctx, prompt, agent.SendOptions{
			Directory:      c.directory,
			IncludeHistory: false,
			Events:         c.events,
			Gate:           permission.AutoAllow(),
			Sandbox:        c.sandbox,
		})
		if err != nil {
			slog.Warn("agent failed during broadcast",
				"team", c.team.Name, "agent", ag.Config.Name, "error", err)
			c.transcript.AppendAgent(ag.Config.ID, ag.Config.Name, ag.Config.Role, "Error: "+err.Error())
			c.emit(bus.EventAgentError, bus.AgentErrorPayload{
				Agent: ag.Config.Name,
				Error: err.Error(),
			})
			continue
		}

		c.transcript.AppendAgent(ag.Config.ID, ag.Config.Name, ag.Config.Role, reply)
		c.emit(bus.EventAgentResponded, bus.AgentActivityPayload{
			Agent:   ag.Config.Name,
			Role:    ag.Config.Role,
			Content: reply,
		})
	}
	return nil
}

// buildPrompt assembles the three-section broadcast prompt. The teammate
// section is omitted for the first agent; for the rest it replays the agent
// entries within the last PromptEntryCap of the transcript: replies from
// earlier turns plus this turn's earlier agents, never a later one.
func (c *Channel) buildPrompt(a *agent.Agent, first bool, message string) string {
	var sb strings.Builder

	sb.WriteString("== USER REQUEST ==\n")
	sb.WriteString(message)
	sb.WriteString("\n")

	if !first {
		sb.WriteString("\n== TEAMMATE RESPONSES ==\n")
		for _, e := range c.transcript.Last(PromptEntryCap) {
			if e.AuthorID == nil {
				continue
			}
			fmt.Fprintf(&sb, "--- %s (%s) ---\n%s\n\n", e.AuthorName, e.Role, e.Content)
		}
	}

	sb.WriteString("\n== YOUR ASSIGNMENT ==\n")
	fmt.Fprintf(&sb, "You are %s (%s). ", a.Config.Name, a.Config.Role)
	if first {
		sb.WriteString("You go first: produce a detailed plan the rest of the team can execute.")
	} else {
		sb.WriteString("Your teammates above have already responded. Build on their work and do not repeat it.")
	}
	sb.WriteString(" You have tools for reading, writing and searching files, running commands, and fetching pages. Use them to do the work rather than describing it.")
	return sb.String()
}

func (c *Channel) emit(name string, payload interface{}) {
	if c.events == nil {
		return
	}
	c.events.Broadcast(bus.Event{Name: name, Payload: payload})
}

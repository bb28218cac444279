package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/troupelabs/troupe/internal/bus"
	"github.com/troupelabs/troupe/internal/team"
)

// banner prints the session header once at REPL startup.
func (s *session) banner() {
	fmt.Fprintf(os.Stderr, "\ntroupe %s — multi-agent coding assistant\n", Version)
	fmt.Fprintf(os.Stderr, "Directory: %s\n", s.dir)
	if t := s.teams.Current(); t != nil {
		fmt.Fprintf(os.Stderr, "Team: %s (%s)\n", t.Name, teamRoster(t))
	} else {
		fmt.Fprintf(os.Stderr, "Agent: assistant (%s)\n", s.cfg.Defaults.Provider)
	}
	if s.sandbox.Policy().SafeMode {
		fmt.Fprintln(os.Stderr, "Safe mode: on")
	}
	fmt.Fprintln(os.Stderr, `Type "/help" for commands, "exit" to quit.`)
	fmt.Fprintln(os.Stderr)
}

// renderEvent is the single bus subscriber: it narrates team progress and
// tool activity on stderr and prints agent replies on stdout.
func (s *session) renderEvent(e bus.Event) {
	switch e.Name {
	case bus.EventAgentThinking:
		p, ok := e.Payload.(bus.AgentActivityPayload)
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "\n* %s (%s) is thinking...\n", p.Agent, p.Role)

	case bus.EventAgentToolCall:
		p, ok := e.Payload.(bus.ToolCallPayload)
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "  [tool] %s %s\n", p.Tool, clipCell(p.Args, 70))

	case bus.EventAgentToolResult:
		p, ok := e.Payload.(bus.ToolResultPayload)
		if !ok || p.OK {
			return
		}
		fmt.Fprintf(os.Stderr, "  [tool] %s: %s\n", p.Tool, clipCell(p.Preview, 70))

	case bus.EventAgentResponded:
		p, ok := e.Payload.(bus.AgentActivityPayload)
		if !ok {
			return
		}
		fmt.Printf("\n--- %s (%s) ---\n%s\n", p.Agent, p.Role, p.Content)

	case bus.EventAgentError:
		p, ok := e.Payload.(bus.AgentErrorPayload)
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "\n! %s failed: %s\n", p.Agent, p.Error)
	}
}

// teamRoster renders "Architect -> Frontend -> Backend" for a team.
func teamRoster(t *team.Team) string {
	names := make([]string, 0, len(t.Agents))
	for _, a := range t.Agents {
		names = append(names, a.Config.Name)
	}
	return strings.Join(names, " -> ")
}

// clipCell shortens a string to a display width, never mid-glyph.
func clipCell(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "…")
}

// printTable renders rows with width-aware column alignment.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}

	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				parts[i] = runewidth.FillRight(cell, widths[i])
			} else {
				parts[i] = cell
			}
		}
		fmt.Fprintln(w, "  "+strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(headers)
	for _, row := range rows {
		line(row)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/troupelabs/troupe/internal/team"
)

const replHelp = `Commands:
  /team                 show the loaded team
  /team load <name>     load a saved team and broadcast to it
  /team save [name]     save the loaded team
  /team preset          create and load the default five-agent team
  /teams                list saved teams
  /tools                list sandboxed tools
  /transcript           show the shared team transcript
  /todo                 list tasks
  /todo add <text>      add a task
  /todo done <id>       complete a task
  /todo rm <id>         delete a task
  /cost                 show session spend
  /config               print the config with keys masked
  /reset                clear the transcript and DM history
  /help                 this text
  exit                  leave`

// command handles one slash command line.
func (s *session) command(line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		fmt.Fprintln(os.Stderr, replHelp)

	case "/team":
		s.teamCommand(args)

	case "/teams":
		infos, err := s.teams.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if len(infos) == 0 {
			fmt.Fprintln(os.Stderr, "No saved teams. Try /team preset or `troupe team create`.")
			return
		}
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, []string{
				info.Name,
				fmt.Sprintf("%d agents", info.AgentCount),
				info.UpdatedAt.Local().Format("2006-01-02 15:04"),
			})
		}
		printTable(os.Stderr, []string{"NAME", "SIZE", "UPDATED"}, rows)

	case "/tools":
		fmt.Fprintf(os.Stderr, "%s\n", strings.Join(s.sandbox.Names(), ", "))

	case "/transcript":
		if s.channel == nil {
			fmt.Fprintln(os.Stderr, "No team loaded.")
			return
		}
		for _, e := range s.channel.Transcript().Last(team.PromptEntryCap) {
			author := "you"
			if e.AuthorID != nil {
				author = fmt.Sprintf("%s (%s)", e.AuthorName, e.Role)
			}
			fmt.Fprintf(os.Stderr, "--- %s ---\n%s\n\n", author, e.Content)
		}

	case "/todo":
		s.todoCommand(args)

	case "/cost":
		fmt.Fprintf(os.Stderr, "Session spend: $%.6f\n", s.cost)

	case "/config":
		data, err := json.MarshalIndent(s.cfg.MaskedCopy(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "%s\n", data)

	case "/reset":
		if s.channel != nil {
			s.channel.Transcript().Reset()
		}
		if s.dm != nil {
			s.dm.ClearHistory()
		}
		s.sandbox.ResetLog()
		fmt.Fprintln(os.Stderr, "Context cleared.")

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %s — /help lists commands.\n", cmd)
	}
}

func (s *session) teamCommand(args []string) {
	if len(args) == 0 {
		t := s.teams.Current()
		if t == nil {
			fmt.Fprintln(os.Stderr, "No team loaded. /team load <name> or /team preset.")
			return
		}
		fmt.Fprintf(os.Stderr, "Team %q: %s\n", t.Name, teamRoster(t))
		return
	}

	switch args[0] {
	case "load":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: /team load <name>")
			return
		}
		if err := s.loadTeam(strings.Join(args[1:], " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

	case "save":
		name := ""
		if len(args) > 1 {
			name = strings.Join(args[1:], " ")
		}
		if err := s.teams.Save(name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "Team saved to %s\n", team.SafeName(s.teams.Current().Name)+".json")

	case "preset":
		t, err := presetTeam(s.teams, "default", s.cfg.Defaults.Provider, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		s.channel = team.NewChannel(t,
			team.WithSandbox(s.sandbox),
			team.WithEvents(s.events),
			team.WithDirectory(s.dir),
		)
		fmt.Fprintf(os.Stderr, "Team %q ready: %s\n", t.Name, teamRoster(t))

	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand %q — /help lists commands.\n", args[0])
	}
}

func (s *session) todoCommand(args []string) {
	if s.todos == nil {
		fmt.Fprintln(os.Stderr, "Todos unavailable (see startup warnings).")
		return
	}

	if len(args) == 0 || args[0] == "list" {
		items := s.todos.Items()
		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "Nothing to do.")
			return
		}
		for _, it := range items {
			mark := " "
			if it.Done {
				mark = "x"
			}
			fmt.Fprintf(os.Stderr, "  [%s] %d. %s\n", mark, it.ID, it.Text)
		}
		return
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: /todo add <text>")
			return
		}
		it, err := s.todos.Add(strings.Join(args[1:], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "Added #%d.\n", it.ID)

	case "done", "rm":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Usage: /todo %s <id>\n", args[0])
			return
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Not a todo id: %s\n", args[1])
			return
		}
		if args[0] == "done" {
			err = s.todos.Done(id)
		} else {
			err = s.todos.Remove(id)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand %q — /help lists commands.\n", args[0])
	}
}

// presetTeam creates, saves, and selects the five-agent preset team.
func presetTeam(mgr *team.Manager, name, provider, model string) (*team.Team, error) {
	t, err := mgr.Create(name)
	if err != nil {
		return nil, err
	}
	for _, cfg := range team.PresetAgents(provider, model) {
		if _, err := mgr.AddAgent(cfg); err != nil {
			return nil, err
		}
	}
	if err := mgr.Save(""); err != nil {
		return nil, err
	}
	return t, nil
}

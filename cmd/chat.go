package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/bus"
	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/mcp"
	"github.com/troupelabs/troupe/internal/permission"
	"github.com/troupelabs/troupe/internal/providers"
	"github.com/troupelabs/troupe/internal/store"
	"github.com/troupelabs/troupe/internal/team"
	"github.com/troupelabs/troupe/internal/todo"
	"github.com/troupelabs/troupe/internal/tools"
	"github.com/troupelabs/troupe/internal/tracing"
)

type chatOptions struct {
	Dir      string
	Message  string
	TeamName string
	Safe     bool
}

func chatCmd() *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an agent or a team interactively",
		Long: `Start the interactive chat. With no team loaded you talk to a single
default agent with a private history; load a team and every message is
broadcast to all members in order, each seeing its teammates' replies.

Examples:
  troupe chat                        # interactive, single agent
  troupe chat --team squad          # interactive, broadcast to "squad"
  troupe chat -m "explain main.go"  # one-shot message
  troupe chat --safe                 # deny network utilities and installers in bash`,
		Run: func(cmd *cobra.Command, args []string) {
			runChat(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "project directory agents work in (default: current directory)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "one-shot message (omit for interactive mode)")
	cmd.Flags().StringVarP(&opts.TeamName, "team", "t", "", "team to load before the first message")
	cmd.Flags().BoolVar(&opts.Safe, "safe", false, "enable sandbox safe mode")

	return cmd
}

// session is the state of one interactive chat: the shared sandbox, the
// optional team channel, the lazily created single agent, and the accounting
// accumulated across turns.
type session struct {
	cfg      *config.Config
	registry *providers.Registry
	sandbox  *tools.Sandbox
	events   *bus.Bus
	teams    *team.Manager
	ledger   *store.Store // nil when the ledger could not be opened
	todos    *todo.List   // nil when todos.json is malformed
	dir      string

	channel *team.Channel // nil until a team is loaded
	dm      *agent.Agent  // nil until first single-agent turn

	cost float64 // session spend parsed from usage footers
}

func runChat(opts chatOptions) {
	setupLogging()
	cfg := loadConfig()

	dir := opts.Dir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving directory: %v\n", err)
		os.Exit(1)
	}

	policy := tools.PolicyFromConfig(dir, cfg.Sandbox)
	if opts.Safe {
		policy.SafeMode = true
	}
	sandbox := tools.NewSandbox(policy)

	registry := providers.NewRegistry(cfg)
	s := &session{
		cfg:      cfg,
		registry: registry,
		sandbox:  sandbox,
		events:   bus.New(),
		teams:    team.NewManager(config.TeamsDir(), registry),
		dir:      dir,
	}
	s.events.Subscribe("repl", s.renderEvent)

	// Tracing is optional; a collector that is down must not block chatting.
	shutdown, err := tracing.Init(context.Background(), cfg.Telemetry)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer shutdown(context.Background())
	}

	// The ledger is accounting only: losing it degrades /stats, not chat.
	if ledger, err := store.Open(config.DBPath()); err != nil {
		slog.Warn("ledger unavailable", "error", err)
	} else {
		s.ledger = ledger
		sandbox.SetRecorder(ledger)
		defer ledger.Close()
	}

	if todos, err := todo.Load(config.TodosPath()); err != nil {
		slog.Warn("todos unavailable", "error", err)
	} else {
		s.todos = todos
	}

	if len(cfg.MCP) > 0 {
		mgr := mcp.NewManager(sandbox)
		if err := mgr.Start(context.Background(), cfg.MCP); err != nil {
			slog.Warn("some MCP servers failed", "error", err)
		}
		defer mgr.Stop()
	}

	// Hot reload: config edits swap provider defaults between turns.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		path := resolveConfigPath()
		if err := config.Watch(watchCtx, path, cfg, func(*config.Config) {
			fmt.Fprintln(os.Stderr, "(config reloaded)")
		}); err != nil && watchCtx.Err() == nil {
			slog.Debug("config watch stopped", "error", err)
		}
	}()

	if opts.TeamName != "" {
		if err := s.loadTeam(opts.TeamName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if opts.Message != "" {
		s.turn(opts.Message)
		return
	}

	s.banner()
	s.repl()
}

// repl reads lines until exit. Ctrl+C during a turn aborts that turn only;
// at the prompt it ends the process.
func (s *session) repl() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(os.Stderr, "You: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if strings.HasPrefix(line, "/") {
			s.command(line)
			continue
		}
		s.turn(line)
	}

	if s.cost > 0 {
		fmt.Fprintf(os.Stderr, "Session spend: $%.6f\n", s.cost)
	}
	fmt.Fprintln(os.Stderr, "Goodbye!")
}

// turn dispatches one user message: a team broadcast when a team is loaded,
// a single-agent DM otherwise. A SIGINT while the turn is in flight cancels
// its context and the REPL keeps going.
func (s *session) turn(message string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if s.channel != nil {
		before := s.channel.Transcript().Len()
		if err := s.channel.Broadcast(ctx, message); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(os.Stderr, "\n(turn interrupted)")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
		s.recordBroadcastUsage(before)
		return
	}

	a, err := s.singleAgent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\nRun `troupe onboard` to configure a provider.\n", err)
		return
	}

	reply, err := a.SendMessage(ctx, message, agent.SendOptions{
		Directory:      s.dir,
		IncludeHistory: true,
		Events:         s.events,
		Gate:           permission.Interactive{},
		Sandbox:        s.sandbox,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\n(turn interrupted)")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return
	}

	fmt.Printf("\n%s\n\n", reply)
	s.recordUsage(a.Config, reply)
}

// singleAgent lazily builds the default DM agent from config defaults.
func (s *session) singleAgent() (*agent.Agent, error) {
	if s.dm != nil {
		return s.dm, nil
	}
	a, err := agent.New(agent.Config{
		Name:     "assistant",
		Role:     "coding assistant",
		Provider: s.cfg.Defaults.Provider,
	}, s.registry)
	if err != nil {
		return nil, err
	}
	s.dm = a
	return a, nil
}

// loadTeam loads a saved team and opens a fresh channel over it.
func (s *session) loadTeam(name string) error {
	t, err := s.teams.Load(name)
	if err != nil {
		return err
	}
	s.channel = team.NewChannel(t,
		team.WithSandbox(s.sandbox),
		team.WithEvents(s.events),
		team.WithDirectory(s.dir),
	)
	fmt.Fprintf(os.Stderr, "Team %q loaded: %s\n", t.Name, teamRoster(t))
	return nil
}

// recordUsage parses the usage footer out of a reply and accounts for it.
func (s *session) recordUsage(cfg agent.Config, reply string) {
	cost, ok := providers.ParseCost(reply)
	if !ok {
		return
	}
	s.cost += cost
	if s.ledger == nil {
		return
	}
	u, _ := providers.ParseTokens(reply)
	if u == nil {
		u = &providers.Usage{}
	}
	s.ledger.RecordUsage(store.UsageRecord{
		Agent:        cfg.Name,
		Provider:     cfg.Provider,
		Model:        cfg.Model,
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		Cost:         cost,
	})
}

// recordBroadcastUsage accounts for every agent entry the broadcast appended
// after the given transcript offset.
func (s *session) recordBroadcastUsage(offset int) {
	t := s.teams.Current()
	if t == nil || s.channel == nil {
		return
	}
	entries := s.channel.Transcript().Entries()
	for _, e := range entries[min(offset, len(entries)):] {
		if e.AuthorID == nil {
			continue
		}
		if a := t.AgentByID(*e.AuthorID); a != nil {
			s.recordUsage(a.Config, e.Content)
		}
	}
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/providers"
	"github.com/troupelabs/troupe/internal/team"
)

func teamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Create, inspect, and delete saved teams",
	}
	cmd.AddCommand(teamListCmd())
	cmd.AddCommand(teamShowCmd())
	cmd.AddCommand(teamCreateCmd())
	cmd.AddCommand(teamPresetCmd())
	cmd.AddCommand(teamDeleteCmd())
	return cmd
}

func newTeamManager() (*team.Manager, *config.Config) {
	cfg := loadConfig()
	return team.NewManager(config.TeamsDir(), providers.NewRegistry(cfg)), cfg
}

func teamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved teams",
		Run: func(cmd *cobra.Command, args []string) {
			mgr, _ := newTeamManager()
			infos, err := mgr.List()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if len(infos) == 0 {
				fmt.Println("No saved teams. Try `troupe team preset` or `troupe team create <name>`.")
				return
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{
					info.Name,
					fmt.Sprintf("%d", info.AgentCount),
					info.CreatedAt.Local().Format("2006-01-02"),
					info.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			printTable(os.Stdout, []string{"NAME", "AGENTS", "CREATED", "UPDATED"}, rows)
		},
	}
}

func teamShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a team's agents in broadcast order",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mgr, _ := newTeamManager()
			info, agents, err := mgr.Peek(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s — %d agents, updated %s\n\n",
				info.Name, info.AgentCount, info.UpdatedAt.Local().Format("2006-01-02 15:04"))
			rows := make([][]string, 0, len(agents))
			for i, a := range agents {
				key := "config default"
				if a.APIKey != team.ConfigKeySentinel && a.APIKey != "" {
					key = "own key"
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1), a.Name, a.Role, a.Provider, a.Model, key,
				})
			}
			printTable(os.Stdout, []string{"#", "NAME", "ROLE", "PROVIDER", "MODEL", "KEY"}, rows)
		},
	}
}

func teamPresetCmd() *cobra.Command {
	var providerTag, model string

	cmd := &cobra.Command{
		Use:   "preset [name]",
		Short: "Create the default Architect/Frontend/Backend/Reviewer/DevOps team",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mgr, cfg := newTeamManager()
			if providerTag == "" {
				providerTag = cfg.Defaults.Provider
			}
			name := "default"
			if len(args) == 1 {
				name = args[0]
			}

			t, err := presetTeam(mgr, name, providerTag, model)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Team %q saved: %s\n", t.Name, teamRoster(t))
		},
	}

	cmd.Flags().StringVar(&providerTag, "provider", "", "provider for every preset agent (default: config default)")
	cmd.Flags().StringVar(&model, "model", "", "model for every preset agent (default: provider default)")
	return cmd
}

func teamDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved team",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mgr, _ := newTeamManager()
			if err := mgr.Delete(args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Team %q deleted.\n", args[0])
		},
	}
}

func teamCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Build a team interactively",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mgr, cfg := newTeamManager()
			if _, err := mgr.Create(args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			for {
				agCfg, err := promptAgent(cfg)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Aborted: %v\n", err)
					os.Exit(1)
				}
				if _, err := mgr.AddAgent(agCfg); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					continue
				}
				fmt.Printf("Added %s (%s on %s).\n", agCfg.Name, agCfg.Role, agCfg.Provider)

				more := false
				confirm := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().Title("Add another agent?").Value(&more),
				))
				if err := confirm.Run(); err != nil || !more {
					break
				}
			}

			t := mgr.Current()
			if t == nil || len(t.Agents) == 0 {
				fmt.Fprintln(os.Stderr, "No agents added; nothing saved.")
				os.Exit(1)
			}
			if err := mgr.Save(""); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Team %q saved: %s\n", t.Name, teamRoster(t))
		},
	}
}

// promptAgent collects one agent's config. An empty key and model fall back
// to the config default key and the provider default model.
func promptAgent(cfg *config.Config) (agent.Config, error) {
	var (
		name, role, prompt string
		providerTag        = cfg.Defaults.Provider
		model, apiKey      string
	)

	opts := make([]huh.Option[string], 0, len(config.ProviderTags))
	for _, tag := range config.ProviderTags {
		opts = append(opts, huh.NewOption(tag, tag))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Agent name").Value(&name).Validate(nonEmpty("name")),
			huh.NewInput().Title("Role").Placeholder("backend engineer").Value(&role).Validate(nonEmpty("role")),
			huh.NewSelect[string]().Title("Provider").Options(opts...).Value(&providerTag),
		),
		huh.NewGroup(
			huh.NewInput().Title("Model").Placeholder("empty = provider default").Value(&model),
			huh.NewInput().Title("API key").Placeholder("empty = config default").EchoMode(huh.EchoModePassword).Value(&apiKey),
			huh.NewText().Title("System prompt").Placeholder("empty = built from name and role").Value(&prompt),
		),
	)
	if err := form.Run(); err != nil {
		return agent.Config{}, err
	}

	return agent.Config{
		ID:           agent.NewID(),
		Name:         strings.TrimSpace(name),
		Role:         strings.TrimSpace(role),
		SystemPrompt: strings.TrimSpace(prompt),
		Provider:     providerTag,
		Model:        strings.TrimSpace(model),
		APIKey:       strings.TrimSpace(apiKey),
	}, nil
}

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
)

// Version is set at build time via -ldflags "-X github.com/troupelabs/troupe/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "troupe",
	Short: "troupe — multi-agent terminal coding assistant",
	Long: `troupe runs a team of LLM agents in your terminal. Each agent has its own
provider, model, and role; a user request is broadcast to the team in order,
and every agent sees its teammates' earlier replies. Agents work on the local
project directory through a sandboxed tool set (bash, read, write, edit,
glob, grep, webfetch).

Run with no arguments to start the interactive chat.`,
	Run: func(cmd *cobra.Command, args []string) {
		runChat(chatOptions{})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.troupe/config.json or $TROUPE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(onboardCmd())
	rootCmd.AddCommand(versionCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("troupe %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("TROUPE_CONFIG"); v != "" {
		return v
	}
	return config.DefaultPath()
}

// setupLogging installs the process-wide slog handler. Logs go to stderr so
// they never interleave with agent replies on stdout.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig loads the config file and applies the env overlay, exiting on a
// malformed file. A missing file is fine: defaults plus env apply.
func loadConfig() *config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

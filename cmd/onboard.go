package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
)

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Write an initial config file interactively",
		Run: func(cmd *cobra.Command, args []string) {
			runOnboard()
		},
	}
}

func runOnboard() {
	cfgPath := resolveConfigPath()
	if _, err := os.Stat(cfgPath); err == nil {
		overwrite := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite?", cfgPath)).
				Value(&overwrite),
		))
		if err := form.Run(); err != nil || !overwrite {
			fmt.Println("Keeping the existing config.")
			return
		}
	}

	cfg := config.Default()
	providerTag := cfg.Defaults.Provider
	var apiKey, model, ollamaURL string

	opts := make([]huh.Option[string], 0, len(config.ProviderTags))
	for _, tag := range config.ProviderTags {
		opts = append(opts, huh.NewOption(tag, tag))
	}

	pick := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Default provider").
			Description("Every new agent uses this unless its team file says otherwise.").
			Options(opts...).
			Value(&providerTag),
	))
	if err := pick.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Aborted.")
		os.Exit(1)
	}

	pc, _ := cfg.Provider(providerTag)
	var detail *huh.Form
	if providerTag == config.ProviderOllama {
		ollamaURL = pc.BaseURL
		detail = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Ollama base URL").Value(&ollamaURL),
			huh.NewInput().Title("Model").Placeholder(pc.Model).Value(&model),
		))
	} else {
		detail = huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API key", providerTag)).
				Description("Leave empty to rely on the environment variable.").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().Title("Model").Placeholder(pc.Model).Value(&model),
		))
	}
	if err := detail.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Aborted.")
		os.Exit(1)
	}

	cfg.Defaults.Provider = providerTag
	applyProviderAnswers(cfg, providerTag, apiKey, model, ollamaURL)

	if err := config.Save(cfgPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", cfgPath)
	fmt.Println("Next: `troupe team preset` to build the default team, then `troupe` to chat.")
}

func applyProviderAnswers(cfg *config.Config, tag, apiKey, model, ollamaURL string) {
	set := func(pc *config.ProviderConfig) {
		if apiKey != "" {
			pc.APIKey = apiKey
		}
		if model != "" {
			pc.Model = model
		}
	}
	switch tag {
	case config.ProviderGrok:
		set(&cfg.Providers.Grok)
	case config.ProviderGroq:
		set(&cfg.Providers.Groq)
	case config.ProviderGemini:
		set(&cfg.Providers.Gemini)
	case config.ProviderClaude:
		set(&cfg.Providers.Claude)
	case config.ProviderOllama:
		set(&cfg.Providers.Ollama)
		if ollamaURL != "" {
			cfg.Providers.Ollama.BaseURL = ollamaURL
		}
	}
}

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/providers"
)

func doctorCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and provider health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor(probe)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", true, "probe configured provider endpoints")
	return cmd
}

func runDoctor(probe bool) {
	setupLogging()

	fmt.Println("troupe doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND — defaults + env apply)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Providers:")
	results := probeProviders(cfg, probe)
	for i, tag := range config.ProviderTags {
		pc, _ := cfg.Provider(tag)
		status := "(not configured)"
		if pc.APIKey != "" {
			status = maskKey(pc.APIKey)
		} else if tag == config.ProviderOllama {
			status = pc.BaseURL
		}
		if results[i] != "" {
			status += "  " + results[i]
		}
		fmt.Printf("    %-8s %s\n", tag+":", status)
	}

	fmt.Println()
	teamsDir := config.TeamsDir()
	fmt.Printf("  Teams:    %s", teamsDir)
	if entries, err := os.ReadDir(teamsDir); err != nil {
		fmt.Println(" (empty)")
	} else {
		n := 0
		for _, e := range entries {
			if !e.IsDir() {
				n++
			}
		}
		fmt.Printf(" (%d saved)\n", n)
	}

	fmt.Printf("  Ledger:   %s", config.DBPath())
	if _, err := os.Stat(config.DBPath()); err != nil {
		fmt.Println(" (will be created on first chat)")
	} else {
		fmt.Println(" (OK)")
	}

	if len(cfg.MCP) > 0 {
		fmt.Printf("  MCP:      %d server(s) configured\n", len(cfg.MCP))
	}

	fmt.Println()
	fmt.Println("  External tools:")
	checkBinary("sh")
	checkBinary("git")

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

// probeProviders checks each configured endpoint concurrently and returns one
// status string per config.ProviderTags slot ("" when skipped).
func probeProviders(cfg *config.Config, enabled bool) []string {
	results := make([]string, len(config.ProviderTags))
	if !enabled {
		return results
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i, tag := range config.ProviderTags {
		pc, _ := cfg.Provider(tag)
		if pc.APIKey == "" && tag != config.ProviderOllama {
			continue
		}
		g.Go(func() error {
			if err := probeProvider(ctx, tag, pc); err != nil {
				results[i] = fmt.Sprintf("[probe: %v]", err)
			} else {
				results[i] = "[probe: OK]"
			}
			return nil
		})
	}
	g.Wait()
	return results
}

// probeProvider hits the provider's free model-listing endpoint, which
// validates both reachability and the API key without spending tokens.
func probeProvider(ctx context.Context, tag string, pc config.ProviderConfig) error {
	if tag == config.ProviderOllama {
		_, err := providers.ListOllamaModels(ctx, pc.BaseURL)
		return err
	}

	var req *http.Request
	var err error
	switch tag {
	case config.ProviderClaude:
		req, err = http.NewRequestWithContext(ctx, "GET", pc.BaseURL+"/models", nil)
		if err == nil {
			req.Header.Set("x-api-key", pc.APIKey)
			req.Header.Set("anthropic-version", "2023-06-01")
		}
	case config.ProviderGemini:
		req, err = http.NewRequestWithContext(ctx, "GET", pc.BaseURL+"/models?key="+pc.APIKey, nil)
	default: // OpenAI-compatible
		req, err = http.NewRequestWithContext(ctx, "GET", pc.BaseURL+"/models", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+pc.APIKey)
		}
	}
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("unauthorized — check the API key")
	default:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

func maskKey(key string) string {
	if len(key) < 9 {
		return "***"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

func checkBinary(name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("    %-8s NOT FOUND\n", name+":")
	} else {
		fmt.Printf("    %-8s %s\n", name+":", path)
	}
}

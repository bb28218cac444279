package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/providers"
)

func modelsCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List locally installed Ollama models",
		Run: func(cmd *cobra.Command, args []string) {
			setupLogging()
			cfg := loadConfig()
			if baseURL == "" {
				pc, _ := cfg.Provider(config.ProviderOllama)
				baseURL = pc.BaseURL
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			models, err := providers.ListOllamaModels(ctx, baseURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if len(models) == 0 {
				fmt.Println("No models installed. Pull one with `ollama pull <model>`.")
				return
			}

			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{
					m.Name,
					formatBytes(m.Size),
					m.Details.ParameterSize,
					m.Details.QuantizationLevel,
					m.ModifiedAt.Local().Format("2006-01-02"),
				})
			}
			printTable(os.Stdout, []string{"NAME", "SIZE", "PARAMS", "QUANT", "MODIFIED"}, rows)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Ollama server base URL (default: config)")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

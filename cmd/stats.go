package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/troupelabs/troupe/internal/config"
	"github.com/troupelabs/troupe/internal/store"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show tool usage and spend from the ledger",
		Run: func(cmd *cobra.Command, args []string) {
			setupLogging()

			ledger, err := store.Open(config.DBPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer ledger.Close()

			ctx := context.Background()

			toolStats, err := ledger.ToolStats(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Tool calls:")
			if len(toolStats) == 0 {
				fmt.Println("  (none recorded)")
			} else {
				rows := make([][]string, 0, len(toolStats))
				for _, t := range toolStats {
					rows = append(rows, []string{
						t.Tool,
						fmt.Sprintf("%d", t.Calls),
						fmt.Sprintf("%d", t.Failures),
						fmt.Sprintf("%.0f%%", t.SuccessRate()*100),
					})
				}
				printTable(os.Stdout, []string{"TOOL", "CALLS", "FAILURES", "SUCCESS"}, rows)
			}

			usage, err := ledger.UsageByAgent(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println()
			fmt.Println("Agent usage:")
			if len(usage) == 0 {
				fmt.Println("  (none recorded)")
				return
			}
			var total float64
			rows := make([][]string, 0, len(usage))
			for _, u := range usage {
				total += u.Cost
				rows = append(rows, []string{
					u.Agent,
					fmt.Sprintf("%d", u.Runs),
					fmt.Sprintf("%d", u.InputTokens),
					fmt.Sprintf("%d", u.OutputTokens),
					fmt.Sprintf("$%.4f", u.Cost),
				})
			}
			printTable(os.Stdout, []string{"AGENT", "RUNS", "TOKENS IN", "TOKENS OUT", "COST"}, rows)
			fmt.Printf("\nTotal spend: $%.4f\n", total)
		},
	}
}

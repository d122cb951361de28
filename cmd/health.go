package cmd

import (
	"Lodestar/utils"
	"fmt"

	"github.com/spf13/cobra"
)

var healthShowCaches bool

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show provider health, breaker states and cache counters",
	Long: `Show the live health snapshot of every provider: composite score,
success rate, response time, circuit breaker state, cooldowns and the
reliability rank computed from observed fallbacks.`,
	Run: func(cmd *cobra.Command, args []string) {
		report := appEngine.HealthReport()

		if apiMode {
			utils.OutputJSON("success", report, nil)
			return
		}

		formatter.PrintHeader("Provider health")

		headers := []string{"ID", "STATE", "SCORE", "SUCCESS", "REQUESTS", "AVG MS", "COOLDOWN", "RANK"}
		rows := make([][]string, 0, len(report.Providers))
		for _, ph := range report.Providers {
			cooldown := "-"
			if ph.CooldownRemainingMs > 0 {
				cooldown = fmt.Sprintf("%.1fs", float64(ph.CooldownRemainingMs)/1000)
			}
			rows = append(rows, []string{
				ph.ID,
				formatter.FormatState(ph.State),
				formatter.FormatScore(ph.Score),
				fmt.Sprintf("%.1f%%", ph.SuccessRate),
				fmt.Sprintf("%d", ph.Requests),
				fmt.Sprintf("%d", ph.AvgResponseMs),
				cooldown,
				fmt.Sprintf("%.3f", ph.Rank),
			})
		}
		formatter.PrintTable(headers, rows)

		formatter.PrintNewLine()
		formatter.PrintDetail("Breakers", fmt.Sprintf("%d closed, %d half-open, %d open",
			report.Breakers.Closed, report.Breakers.HalfOpen, report.Breakers.Open))

		if healthShowCaches {
			formatter.PrintSection("Caches")
			cacheHeaders := []string{"CACHE", "ENTRIES", "HITS", "MISSES", "EVICTIONS"}
			cacheRows := make([][]string, 0, len(report.Caches))
			for _, st := range report.Caches {
				cacheRows = append(cacheRows, []string{
					st.Name,
					fmt.Sprintf("%d", st.Entries),
					fmt.Sprintf("%d", st.Hits),
					fmt.Sprintf("%d", st.Misses),
					fmt.Sprintf("%d", st.Evictions),
				})
			}
			formatter.PrintTable(cacheHeaders, cacheRows)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)

	// Flags
	healthCmd.Flags().BoolVar(&healthShowCaches, "caches", false, "Also show per-cache counters")
}

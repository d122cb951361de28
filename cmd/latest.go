package cmd

import (
	"Lodestar/utils"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	latestProvider string
	latestPage     int
)

// latestCmd represents the latest command
var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "List recently updated manga",
	Long: `List recently updated manga. With --provider the list comes from that
provider alone; without it the healthiest provider that supports latest
listings answers.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		results, err := appEngine.Latest(ctx, latestProvider, latestPage)
		if err != nil {
			if apiMode {
				utils.OutputJSON("error", nil, err)
				return
			}
			formatter.HandleError(err)
			return
		}

		if apiMode {
			utils.OutputJSON("success", map[string]interface{}{
				"page":  latestPage,
				"items": results,
				"count": len(results),
			}, nil)
			return
		}

		if len(results) == 0 {
			formatter.PrintWarning("No results found")
			return
		}

		formatter.PrintTitle(fmt.Sprintf("Recently updated manga (page %d):", latestPage))
		if latestProvider != "" {
			displayMangaList(results, latestProvider)
			return
		}
		for i, manga := range results {
			fmt.Printf("  %d. %s\n", i+1, manga.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(latestCmd)

	// Flags
	latestCmd.Flags().StringVar(&latestProvider, "provider", "", "List from a specific provider")
	latestCmd.Flags().IntVar(&latestPage, "page", 1, "Result page to fetch")
}

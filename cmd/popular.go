package cmd

import (
	"Lodestar/utils"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	popularProvider string
	popularPage     int
)

// popularCmd represents the popular command
var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List currently popular manga",
	Long: `List currently popular manga. With --provider the list comes from that
provider alone; without it the healthiest provider that supports popular
listings answers.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		results, err := appEngine.Popular(ctx, popularProvider, popularPage)
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
				"page":  popularPage,
				"items": results,
				"count": len(results),
			}, nil)
			return
		}

		if len(results) == 0 {
			formatter.PrintWarning("No results found")
			return
		}

		formatter.PrintTitle(fmt.Sprintf("Popular manga (page %d):", popularPage))
		if popularProvider != "" {
			displayMangaList(results, popularProvider)
			return
		}
		for i, manga := range results {
			fmt.Printf("  %d. %s\n", i+1, manga.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(popularCmd)

	// Flags
	popularCmd.Flags().StringVar(&popularProvider, "provider", "", "List from a specific provider")
	popularCmd.Flags().IntVar(&popularPage, "page", 1, "Result page to fetch")
}

package cmd

import (
	"Lodestar/search"
	"Lodestar/utils"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	smartLimit     int
	smartProviders []string
	smartEnrich    bool
)

// smartSearchCmd represents the smartsearch command
var smartSearchCmd = &cobra.Command{
	Use:   "smartsearch [query]",
	Short: "Search all providers and merge duplicates",
	Long: `Search across all providers in parallel and merge hits that refer to
the same series into one result. Each merged result lists every provider
that carries the series, with the healthiest one picked as primary.
With --enrich the leading results also get unified metadata attached.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := args[0]
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		results, err := appEngine.SmartSearch(ctx, search.Request{
			Query:     query,
			Limit:     smartLimit,
			Providers: smartProviders,
			Enrich:    smartEnrich,
		})
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
				"query":   query,
				"results": results,
				"count":   len(results),
			}, nil)
			return
		}

		if len(results) == 0 {
			formatter.PrintWarning("No results found")
			return
		}

		formatter.PrintHeader(fmt.Sprintf("Unified results for %q", query))
		for i, res := range results {
			fmt.Printf("%d. %s  (confidence %.2f)\n", i+1, res.Title, res.Confidence)
			fmt.Printf("   Primary: %s\n", formatter.FormatID(utils.FormatMangaID(res.Primary.ProviderID, res.Primary.MangaID)))

			if len(res.Sources) > 1 {
				ids := make([]string, 0, len(res.Sources))
				for _, src := range res.Sources {
					ids = append(ids, utils.FormatMangaID(src.ProviderID, src.MangaID))
				}
				fmt.Printf("   Available on: %s\n", strings.Join(ids, ", "))
			}
			if meta := res.Metadata; meta != nil {
				if meta.Status != "" {
					formatter.PrintDetail("   Status", meta.Status)
				}
				if meta.Chapters > 0 {
					formatter.PrintDetail("   Chapters", fmt.Sprintf("%d", meta.Chapters))
				}
				if meta.Aggregate > 0 {
					formatter.PrintDetail("   Rating", fmt.Sprintf("%.1f/100", meta.Aggregate))
				}
				if len(meta.Genres) > 0 {
					formatter.PrintDetail("   Genres", strings.Join(meta.Genres, ", "))
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(smartSearchCmd)

	// Flags
	smartSearchCmd.Flags().IntVar(&smartLimit, "limit", 0, "Maximum merged results (0 uses the configured default)")
	smartSearchCmd.Flags().StringSliceVar(&smartProviders, "providers", nil, "Restrict the fan-out to these provider IDs")
	smartSearchCmd.Flags().BoolVar(&smartEnrich, "enrich", false, "Attach unified metadata to the leading results")
}

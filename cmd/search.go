package cmd

import (
	"Lodestar/providers"
	"Lodestar/utils"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	searchProvider string
	searchPage     int
)

// MangaSearchResult represents a manga search result for API output
type MangaSearchResult struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Provider     string   `json:"provider,omitempty"`
	ProviderName string   `json:"provider_name,omitempty"`
	AltTitles    []string `json:"alt_titles,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for manga",
	Long: `Search for manga by title.

With --provider the query goes to that provider alone and errors surface
directly. Without it the query fans out to the healthiest providers in
parallel and results are grouped per provider. Use smartsearch for a
single deduplicated list instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := args[0]
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if searchProvider != "" {
			runProviderSearch(ctx, query)
			return
		}
		runFanOutSearch(ctx, query)
	},
}

func runProviderSearch(ctx context.Context, query string) {
	p, ok := appEngine.Sources.Get(searchProvider)
	if !ok {
		err := fmt.Errorf("provider '%s' not found", searchProvider)
		if apiMode {
			utils.OutputJSON("error", nil, err)
			return
		}
		formatter.PrintError(err.Error())
		fmt.Println("Available providers:")
		for _, prov := range appEngine.Providers() {
			fmt.Printf("  - %s (%s)\n", prov.ID(), prov.Name())
		}
		return
	}

	results, err := appEngine.Search(ctx, searchProvider, query, searchPage)
	if err != nil {
		if apiMode {
			utils.OutputJSON("error", nil, err)
			return
		}
		formatter.HandleError(err)
		return
	}

	if apiMode {
		outputSearchResults(query, toSearchResults(results, searchProvider, p.Name()))
		return
	}

	formatter.PrintTitle(fmt.Sprintf("Results from %s (%s):", p.ID(), p.Name()))
	displayMangaList(results, searchProvider)
}

func runFanOutSearch(ctx context.Context, query string) {
	groups := appEngine.Sources.SearchAll(ctx, query, searchPage, nil)

	if apiMode {
		var all []MangaSearchResult
		for _, group := range groups {
			all = append(all, toSearchResults(group.Items, group.ProviderID, group.ProviderName)...)
		}
		outputSearchResults(query, all)
		return
	}

	if len(groups) == 0 {
		formatter.PrintWarning("No results found")
		return
	}

	total := 0
	for _, group := range groups {
		total += len(group.Items)
	}
	fmt.Printf("Searching for: %s\n", query)
	fmt.Printf("Total results found: %d\n\n", total)

	for _, group := range groups {
		formatter.PrintTitle(fmt.Sprintf("Results from %s (%s):", group.ProviderID, group.ProviderName))
		displayMangaList(group.Items, group.ProviderID)
		fmt.Println()
	}
}

func toSearchResults(results []providers.Manga, providerID, providerName string) []MangaSearchResult {
	out := make([]MangaSearchResult, 0, len(results))
	for _, manga := range results {
		out = append(out, MangaSearchResult{
			ID:           utils.FormatMangaID(providerID, manga.ID),
			Title:        manga.Title,
			Provider:     providerID,
			ProviderName: providerName,
			AltTitles:    manga.AltTitles,
			Authors:      manga.Authors,
			Tags:         manga.Tags,
		})
	}
	return out
}

func outputSearchResults(query string, results []MangaSearchResult) {
	utils.OutputJSON("success", map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	}, nil)
}

// displayMangaList prints manga in a user-friendly format
func displayMangaList(results []providers.Manga, providerID string) {
	if len(results) == 0 {
		fmt.Println("  No results found")
		return
	}

	for i, manga := range results {
		fmt.Printf("  %d. %s (ID: %s)\n", i+1, manga.Title, formatter.FormatID(utils.FormatMangaID(providerID, manga.ID)))

		if len(manga.AltTitles) > 0 {
			shown := manga.AltTitles[:minInt(3, len(manga.AltTitles))]
			fmt.Printf("     Also known as: %s\n", strings.Join(shown, ", "))
			if len(manga.AltTitles) > 3 {
				fmt.Printf("     ...and %d more alternative titles\n", len(manga.AltTitles)-3)
			}
		}
		if len(manga.Authors) > 0 {
			fmt.Printf("     Authors: %s\n", strings.Join(manga.Authors, ", "))
		}
		if len(manga.Tags) > 0 {
			fmt.Printf("     Tags: %s\n", strings.Join(manga.Tags[:minInt(5, len(manga.Tags))], ", "))
			if len(manga.Tags) > 5 {
				fmt.Printf("     ...and %d more tags\n", len(manga.Tags)-5)
			}
		}
	}
}

// Helper function for min of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func init() {
	rootCmd.AddCommand(searchCmd)

	// Flags
	searchCmd.Flags().StringVar(&searchProvider, "provider", "", "Search using a specific provider")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page to fetch")
}

package cmd

import (
	"Lodestar/utils"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// ProviderInfo represents a provider entry for API output
type ProviderInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	SiteURL         string `json:"site_url,omitempty"`
	Available       bool   `json:"available"`
	SupportsPopular bool   `json:"supports_popular"`
	SupportsLatest  bool   `json:"supports_latest"`
}

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List all available manga source providers",
	Long:  `Display a list of all configured manga source providers that Lodestar can use to search and read manga.`,
	Run: func(cmd *cobra.Command, args []string) {
		allProviders := appEngine.Providers()

		if apiMode {
			out := make([]ProviderInfo, 0, len(allProviders))
			for _, p := range allProviders {
				out = append(out, ProviderInfo{
					ID:              p.ID(),
					Name:            p.Name(),
					Description:     p.Description(),
					SiteURL:         p.SiteURL(),
					Available:       p.Available(),
					SupportsPopular: p.SupportsPopular(),
					SupportsLatest:  p.SupportsLatest(),
				})
			}
			utils.OutputJSON("success", map[string]interface{}{
				"providers": out,
				"count":     len(out),
			}, nil)
			return
		}

		// Sort providers alphabetically
		sort.Slice(allProviders, func(i, j int) bool {
			return allProviders[i].Name() < allProviders[j].Name()
		})

		fmt.Println("Available manga source providers:")
		fmt.Println("")

		format := "%-12s %-20s %s\n"
		fmt.Printf(format, "ID", "NAME", "DESCRIPTION")
		fmt.Println(strings.Repeat("-", 80))

		for _, provider := range allProviders {
			fmt.Printf(format,
				provider.ID(),
				provider.Name(),
				provider.Description())
		}

		fmt.Println("")
		fmt.Println("Use --provider flag with the search command to specify a particular provider")
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

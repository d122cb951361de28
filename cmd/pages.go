package cmd

import (
	"Lodestar/utils"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// pagesCmd represents the pages command
var pagesCmd = &cobra.Command{
	Use:   "pages [provider:chapter-id]",
	Short: "List the page image URLs of a chapter",
	Long:  `List the page image URLs of a chapter on one provider, in reading order.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		providerID, chapterID, err := utils.ParseMangaID(args[0])
		if err != nil {
			if apiMode {
				utils.OutputJSON("error", nil, err)
				return
			}
			formatter.PrintError("Error: Invalid chapter ID format, must be 'provider:id'")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		pages, err := appEngine.Pages(ctx, providerID, chapterID)
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
				"provider": providerID,
				"chapter":  chapterID,
				"pages":    pages,
				"count":    len(pages),
			}, nil)
			return
		}

		if len(pages) == 0 {
			formatter.PrintWarning("No pages found")
			return
		}

		formatter.PrintTitle(fmt.Sprintf("Pages of %s:%s (%d):", providerID, chapterID, len(pages)))
		for _, page := range pages {
			fmt.Printf("  %3d  %s\n", page.Index+1, page.URL)
		}
	},
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}

package cmd

import (
	"Lodestar/utils"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var chaptersLanguage string

// chaptersCmd represents the chapters command
var chaptersCmd = &cobra.Command{
	Use:   "chapters [provider:manga-id]",
	Short: "List the chapters of a manga",
	Long:  `List all chapters of a manga on one provider, optionally filtered by language.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		providerID, mangaID, err := utils.ParseMangaID(args[0])
		if err != nil {
			if apiMode {
				utils.OutputJSON("error", nil, err)
				return
			}
			formatter.PrintError("Error: Invalid manga ID format, must be 'provider:id'")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		chapters, err := appEngine.Chapters(ctx, providerID, mangaID, chaptersLanguage)
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
				"manga":    mangaID,
				"chapters": chapters,
				"count":    len(chapters),
			}, nil)
			return
		}

		if len(chapters) == 0 {
			formatter.PrintWarning("No chapters found")
			return
		}

		formatter.PrintTitle(fmt.Sprintf("Chapters of %s:%s (%d):", providerID, mangaID, len(chapters)))
		for _, ch := range chapters {
			line := fmt.Sprintf("  %s %s", formatter.FormatNumber(ch.Number), ch.Title)
			if ch.Language != "" {
				line += fmt.Sprintf(" [%s]", ch.Language)
			}
			if !ch.Date.IsZero() {
				line += fmt.Sprintf(" (%s)", ch.Date.Format("2006-01-02"))
			}
			fmt.Println(line)
			fmt.Printf("     ID: %s\n", formatter.FormatID(utils.FormatMangaID(providerID, ch.ID)))
		}
	},
}

func init() {
	rootCmd.AddCommand(chaptersCmd)

	// Flags
	chaptersCmd.Flags().StringVar(&chaptersLanguage, "lang", "", "Filter chapters by language code (e.g. 'en')")
}

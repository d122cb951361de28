package cmd

import (
	"Lodestar/utils"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// metadataCmd represents the metadata command
var metadataCmd = &cobra.Command{
	Use:   "metadata [title]",
	Short: "Show unified metadata for a manga title",
	Long: `Look a title up across the registered metadata services and merge the
answers into one record: cross-service IDs, ratings, genres, synopsis and
publication status.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := args[0]
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		record, err := appEngine.MangaDetails(ctx, title)
		if err != nil {
			if apiMode {
				utils.OutputJSON("error", nil, err)
				return
			}
			formatter.HandleError(err)
			return
		}

		if apiMode {
			utils.OutputJSON("success", record, nil)
			return
		}

		formatter.PrintHeader(record.Title)
		if len(record.Synonyms) > 0 {
			formatter.PrintDetail("Also known as", strings.Join(record.Synonyms[:minInt(3, len(record.Synonyms))], ", "))
		}
		if record.Status != "" {
			formatter.PrintDetail("Status", record.Status)
		}
		if record.Chapters > 0 {
			formatter.PrintDetail("Chapters", fmt.Sprintf("%d", record.Chapters))
		}
		if record.Volumes > 0 {
			formatter.PrintDetail("Volumes", fmt.Sprintf("%d", record.Volumes))
		}
		if record.Aggregate > 0 {
			formatter.PrintDetail("Rating", fmt.Sprintf("%.1f/100", record.Aggregate))
		}
		if len(record.Genres) > 0 {
			formatter.PrintDetail("Genres", strings.Join(record.Genres, ", "))
		}
		if len(record.Tags) > 0 {
			formatter.PrintDetail("Tags", strings.Join(record.Tags[:minInt(8, len(record.Tags))], ", "))
		}
		if record.Synopsis != "" {
			formatter.PrintSection("Synopsis")
			fmt.Println(truncate(record.Synopsis, 500))
		}

		if len(record.IDs) > 0 {
			formatter.PrintSection("Service IDs")
			services := make([]string, 0, len(record.IDs))
			for svc := range record.IDs {
				services = append(services, svc)
			}
			sort.Strings(services)
			for _, svc := range services {
				formatter.PrintDetail(svc, record.IDs[svc])
			}
		}
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	rootCmd.AddCommand(metadataCmd)
}

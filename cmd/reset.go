package cmd

import (
	"Lodestar/utils"
	"fmt"

	"github.com/spf13/cobra"
)

var resetProvider string

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset provider health state",
	Long: `Clear recorded health metrics, circuit breakers and cooldowns. With
--provider only that provider is reset; without it everything is cleared,
including caches and the reliability graph.`,
	Run: func(cmd *cobra.Command, args []string) {
		if resetProvider != "" {
			if err := appEngine.ResetProvider(resetProvider); err != nil {
				if apiMode {
					utils.OutputJSON("error", nil, err)
					return
				}
				formatter.HandleError(err)
				return
			}
			if apiMode {
				utils.OutputJSON("success", map[string]string{"reset": resetProvider}, nil)
				return
			}
			formatter.PrintSuccess(fmt.Sprintf("Provider %s reset", resetProvider))
			return
		}

		appEngine.ResetAll()
		if apiMode {
			utils.OutputJSON("success", map[string]string{"reset": "all"}, nil)
			return
		}
		formatter.PrintSuccess("All provider state reset")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	// Flags
	resetCmd.Flags().StringVar(&resetProvider, "provider", "", "Reset only this provider")
}

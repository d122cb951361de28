package cmd

import (
	"Lodestar/engine"
	"Lodestar/pkg/cli"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	apiMode        bool
	maxConcurrency int
	noColor        bool
	verbose        bool
	debugMode      bool
	appEngine      *engine.Engine
	registerFn     func(*engine.Engine)
	formatter      *cli.Formatter
	version        string
)

var rootCmd = &cobra.Command{
	Use:   "lodestar",
	Short: "Lodestar is a CLI tool for searching manga across providers.",
	Long:  "Lodestar is a CLI tool for searching manga across multiple source providers. It routes every request to the healthiest provider, falls back automatically when one misbehaves, and can merge results from all providers into a single deduplicated list.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
		if formatter == nil {
			formatter = cli.NewFormatter()
		}

		// Initialize engine if not already injected via SetupEngine
		if appEngine == nil {
			cfg := engine.Load()
			if verbose {
				cfg.Verbose = true
			}
			if debugMode {
				cfg.Debug = true
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Source.Concurrency = maxConcurrency
				cfg.Search.Concurrency = maxConcurrency
				cfg.Metadata.Concurrency = maxConcurrency
			}

			e, err := engine.New(cfg)
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize engine: %v\n", err)
				os.Exit(1)
			}
			appEngine = e
			if registerFn != nil {
				registerFn(appEngine)
			}
			return
		}

		// An injected engine is already built; flags still tune logging.
		if verbose {
			appEngine.Logger.Verbose = true
		}
		if debugMode {
			appEngine.Logger.DebugMode = true
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		// When no command is specified, display help
		if err := cmd.Help(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, err := fmt.Fprintf(os.Stderr, "Oops. An error while executing Lodestar '%s'\n", err)
		if err != nil {
			return
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVar(&apiMode, "api", false, "Output machine-readable JSON only")
	rootCmd.PersistentFlags().IntVar(&maxConcurrency, "concurrency", 5, "Maximum number of concurrent provider requests")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug output")
}

package cmd

import (
	"Lodestar/internal/api"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server exposing search, routing, health and metadata
endpoints. The server drains in-flight requests on SIGINT or SIGTERM
before exiting.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr := serveAddr
		if !cmd.Flags().Changed("addr") && appEngine.Config.APIAddr != "" {
			addr = appEngine.Config.APIAddr
		}

		server := api.NewServer(appEngine)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Run(addr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
				os.Exit(1)
			}
		case sig := <-quit:
			appEngine.Logger.Info("Received %s, shutting down", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				appEngine.Logger.Error("Shutdown incomplete: %v", err)
			}
			appEngine.Shutdown()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address for the HTTP API")
}

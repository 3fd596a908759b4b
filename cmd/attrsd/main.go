package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "attrsd",
		Short: "Serve a reactive attribute model over HTTP and WebSocket",
		Long: `attrsd serves a reactive key/value model with computed properties.

The model's initial properties come from a JSON configuration file.
Clients read and write properties over HTTP, or subscribe to live change
notifications over WebSocket. State can be persisted as snapshots to
memory, SQLite or S3.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "graphview",
		Short: "Interactive force-directed network diagrams",
		Long: `Graphview renders network snapshots as interactive force-directed
diagrams. Serve a graph file in the browser with live reload, or render it
once to static SVG.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newRenderCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

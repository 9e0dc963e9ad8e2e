package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "xmltok",
	Short: "Stream contextual XML fragments out of large documents",
	Long: `xmltok cuts a large XML document into standalone fragments, one per
match of an element path such as /orders/order or //item, without ever
holding the whole document in memory. Each fragment keeps the namespace
bindings it inherited from its ancestors, so it stays parseable on its own.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

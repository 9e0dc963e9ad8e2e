package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/wilkmaciej/xpath"

	"github.com/wilkmaciej/xmltokenizer/internal/tree"
)

var (
	treeElement string
	treeXPath   string
)

// treeCmd is the ahead-of-time counterpart to tokenize: it materializes the
// named elements as full in-memory trees and runs an XPath query over each,
// useful for prototyping a selector before streaming a large document.
var treeCmd = &cobra.Command{
	Use:   "tree [xml_file]",
	Short: "Materialize elements in memory and run an XPath query over each",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		expr, err := xpath.Compile(treeXPath)
		if err != nil {
			return fmt.Errorf("compiling xpath %q: %w", treeXPath, err)
		}

		count := 0
		builder := tree.NewBuilder(cmd.Context(), f, []string{treeElement}, 0)
		for node := range builder.Nodes() {
			fmt.Println(node.Text(expr))
			count++
		}
		slog.Debug("tree finished", "elements", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().StringVarP(&treeElement, "element", "e", "", "element name to materialize")
	treeCmd.Flags().StringVarP(&treeXPath, "xpath", "x", ".", "XPath expression evaluated against each materialized element")
	_ = treeCmd.MarkFlagRequired("element")
}

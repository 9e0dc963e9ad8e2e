package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	xmltokenizer "github.com/wilkmaciej/xmltokenizer"
)

var (
	tokenizePath string
	tokenizeWrap bool
	tokenizeNS   []string
)

// tokenizeCmd streams fragments to stdout, one per match.
var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [xml_file]",
	Short: "Print one standalone fragment per matched element",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var prefixes map[string]string
		if len(tokenizeNS) > 0 {
			prefixes = make(map[string]string, len(tokenizeNS))
			for _, binding := range tokenizeNS {
				prefix, uri, ok := strings.Cut(binding, "=")
				if !ok {
					return fmt.Errorf("invalid namespace binding %q, want prefix=uri", binding)
				}
				prefixes[prefix] = uri
			}
		}

		cur, err := xmltokenizer.Tokenize(xmltokenizer.StaticMessage{Reader: f}, tokenizePath, prefixes, tokenizeWrap)
		if err != nil {
			return err
		}
		defer cur.Close()

		count := 0
		for cur.HasNext() {
			fmt.Println(cur.Next())
			count++
		}
		if err := cur.LastError(); err != nil {
			return err
		}
		slog.Debug("tokenize finished", "fragments", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)

	tokenizeCmd.Flags().StringVarP(&tokenizePath, "path", "p", "", "element path, e.g. /orders/order or //item")
	tokenizeCmd.Flags().BoolVarP(&tokenizeWrap, "wrap", "w", false, "reproduce ancestor tags around each fragment instead of injecting xmlns declarations")
	tokenizeCmd.Flags().StringArrayVarP(&tokenizeNS, "namespace", "n", nil, "prefix=uri binding for prefixed path segments (repeatable)")
	_ = tokenizeCmd.MarkFlagRequired("path")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/analyzer"
	"github.com/sherwoodwang/rededup/difftree"
	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/rerrcode"
)

var (
	diffTreeHideContentMatch bool
	diffTreeMaxDepth         int
	diffTreeUnlimited        bool
	diffTreeShow             string
)

func init() {
	diffTreeCmd.Flags().BoolVar(&diffTreeHideContentMatch, "hide-content-match", false, "omit entries whose content matches but metadata does not")
	diffTreeCmd.Flags().IntVar(&diffTreeMaxDepth, "max-depth", 0, "limit recursion to this many directory levels (0 means unlimited; a positive value overrides --unlimited)")
	diffTreeCmd.Flags().BoolVar(&diffTreeUnlimited, "unlimited", true, "recurse without a depth limit")
	diffTreeCmd.Flags().StringVar(&diffTreeShow, "show", "both", "which side of an unmatched entry to report: both, analyzed, repository")
}

var diffTreeCmd = &cobra.Command{
	Use:   "diff-tree <analyzed> <repository>",
	Short: "compare an analyzed directory against a known repository duplicate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := commandContext()
		if err != nil {
			return err
		}

		if diffTreeMaxDepth > 0 {
			diffTreeUnlimited = false
		}

		opts := difftree.Options{
			HideContentMatch: diffTreeHideContentMatch,
			MaxDepth:         diffTreeMaxDepth,
			Unlimited:        diffTreeUnlimited,
			Show:             difftree.Show(diffTreeShow),
			Policy:           analyzer.DefaultPolicy(),
			Algorithm:        hasher.DefaultAlgorithm,
		}

		root, err := difftree.Diff(ctx, args[0], args[1], opts)
		if err != nil {
			return rerrcode.ErrorCodeIO.WithArgs(err.Error())
		}

		printEntries(root.Children, 0)
		return nil
	},
}

func printEntries(entries []difftree.Entry, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	for _, e := range entries {
		if e.IsDir {
			fmt.Printf("%s%s/\n", indent, e.RelPath)
			printEntries(e.Children, depth+1)
			continue
		}
		fmt.Printf("%s%s\t%s\n", indent, e.RelPath, e.Classification)
	}
}

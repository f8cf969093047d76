package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/analyzer"
	"github.com/sherwoodwang/rededup/describe"
	"github.com/sherwoodwang/rededup/rerrcode"
)

var (
	describeDirectory      bool
	describeAll            bool
	describeLimit          int
	describeSortBy         string
	describeSortChildren   string
	describeKeepInputOrder bool
	describeBytes          bool
	describeDetails        bool
)

func init() {
	describeCmd.Flags().BoolVar(&describeDirectory, "directory", false, "expand a directory report's per-file children")
	describeCmd.Flags().BoolVar(&describeAll, "all", false, "include content-only matches, not just identical ones")
	describeCmd.Flags().IntVar(&describeLimit, "limit", 0, "limit the number of records shown (0 means unlimited)")
	describeCmd.Flags().StringVar(&describeSortBy, "sort-by", "path", "sort records by: size, items, identical, path")
	describeCmd.Flags().StringVar(&describeSortChildren, "sort-children", "name", "sort expanded children by: dup-size, dup-items, total-size, name")
	describeCmd.Flags().BoolVar(&describeKeepInputOrder, "keep-input-order", false, "do not sort; keep the order records were recorded in")
	describeCmd.Flags().BoolVar(&describeBytes, "bytes", false, "show sizes as raw byte counts instead of human-readable ones")
	describeCmd.Flags().BoolVar(&describeDetails, "details", false, "also print each file record's equivalent-class id")
}

var describeCmd = &cobra.Command{
	Use:   "describe [<paths...>]",
	Short: "render a report previously produced by analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := commandContext(); err != nil {
			return err
		}

		opts := describe.Options{
			Directory:      describeDirectory,
			All:            describeAll,
			Limit:          describeLimit,
			SortBy:         describe.SortKey(describeSortBy),
			SortChildren:   describe.ChildSortKey(describeSortChildren),
			KeepInputOrder: describeKeepInputOrder,
		}

		paths := args
		if len(paths) == 0 {
			paths = []string{"."}
		}

		for _, path := range paths {
			report, err := describe.Describe(path, opts)
			if err != nil {
				return rerrcode.ErrorCodeIO.WithArgs(err.Error())
			}
			printReport(path, report)
		}
		return nil
	},
}

func printReport(path string, report describe.Report) {
	fmt.Printf("%s:\n", path)
	if report.Meta.IsDirectory {
		for _, d := range report.DirRecords {
			fmt.Printf("  %s\titems=%d\tsize=%s\tidentical=%t\n",
				d.RepositoryDir, d.DuplicatedItems, formatSize(d.DuplicatedSize), d.Identical)
		}
		for _, child := range report.Children {
			fmt.Printf("  files/%s:\n", child.RelPath)
			for _, r := range child.Records {
				printFileRecord("    ", r)
			}
		}
		return
	}
	for _, r := range report.FileRecords {
		printFileRecord("  ", r)
	}
}

func printFileRecord(indent string, r analyzer.DuplicateRecord) {
	if describeDetails {
		fmt.Printf("%s%s\tsize=%s\tidentical=%t\tec_id=%d\n", indent, r.RepositoryPath, formatSize(r.Size), r.Identical, r.ECID)
		return
	}
	fmt.Printf("%s%s\tsize=%s\tidentical=%t\n", indent, r.RepositoryPath, formatSize(r.Size), r.Identical)
}

func formatSize(n int64) string {
	if describeBytes {
		return fmt.Sprintf("%d", n)
	}
	return describe.FormatBytes(n)
}

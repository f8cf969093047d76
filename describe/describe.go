// Package describe implements the read-only report reader: it
// locates the report nearest (and enclosing, by upward search) a
// requested path, decodes its meta/duplicates files, and returns
// sorted, filtered, limited slices for a CLI layer to render.
package describe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fxamacker/cbor/v2"
	"github.com/sherwoodwang/rededup/analyzer"
)

// SortKey names the field a file report's duplicate records are
// ordered by.
type SortKey string

const (
	SortBySize      SortKey = "size"
	SortByItems     SortKey = "items"
	SortByIdentical SortKey = "identical"
	SortByPath      SortKey = "path"
)

// ChildSortKey names the field a directory report's per-file children
// are ordered by when --directory expands them.
type ChildSortKey string

const (
	SortChildrenDupSize   ChildSortKey = "dup-size"
	SortChildrenDupItems  ChildSortKey = "dup-items"
	SortChildrenTotalSize ChildSortKey = "total-size"
	SortChildrenName      ChildSortKey = "name"
)

// Options controls filtering, ordering, and limiting of a Describe
// call, mirroring the describe subcommand's flag contract.
type Options struct {
	Directory      bool
	All            bool
	Limit          int
	SortBy         SortKey
	SortChildren   ChildSortKey
	KeepInputOrder bool
}

// Report is the decoded, filtered result of locating and reading a
// report directory.
type Report struct {
	Meta        analyzer.Meta
	FileRecords []analyzer.DuplicateRecord // populated when Meta.IsDirectory is false
	DirRecords  []analyzer.DirRecord       // populated when Meta.IsDirectory is true
	Children    []ChildReport              // populated when Options.Directory expands a directory report
}

// ChildReport is one per-file entry of a directory report's "files/"
// mirror tree, surfaced when Options.Directory requests expansion.
type ChildReport struct {
	RelPath string
	Records []analyzer.DuplicateRecord
}

// Describe finds the report nearest (and enclosing) path by searching
// upward from it, decodes it, and applies opts' filter/sort/limit.
func Describe(path string, opts Options) (Report, error) {
	reportDir, err := findEnclosingReport(path)
	if err != nil {
		return Report{}, err
	}
	return readReport(reportDir, opts)
}

// findEnclosingReport searches path and each of its ancestors for a
// "<candidate>.report/" directory, returning the first one found.
func findEnclosingReport(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("describe: resolve %q: %w", path, err)
	}

	for candidate := abs; ; {
		reportDir := candidate + ".report"
		if info, err := os.Stat(reportDir); err == nil && info.IsDir() {
			return reportDir, nil
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			break
		}
		candidate = parent
	}
	return "", fmt.Errorf("describe: no report found enclosing %q", path)
}

func readReport(reportDir string, opts Options) (Report, error) {
	var meta analyzer.Meta
	if err := readCBOR(filepath.Join(reportDir, "meta"), &meta); err != nil {
		return Report{}, err
	}

	out := Report{Meta: meta}

	if meta.IsDirectory {
		var dirs []analyzer.DirRecord
		if err := readCBOR(filepath.Join(reportDir, "duplicates"), &dirs); err != nil {
			return Report{}, err
		}
		out.DirRecords = filterAndSortDirs(dirs, opts)

		if opts.Directory {
			children, err := readChildren(filepath.Join(reportDir, "files"), opts)
			if err != nil {
				return Report{}, err
			}
			out.Children = children
		}
		return out, nil
	}

	var files []analyzer.DuplicateRecord
	if err := readCBOR(filepath.Join(reportDir, "duplicates"), &files); err != nil {
		return Report{}, err
	}
	out.FileRecords = filterAndSortFiles(files, opts)
	return out, nil
}

func readChildren(filesDir string, opts Options) ([]ChildReport, error) {
	var children []ChildReport
	err := filepath.WalkDir(filesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		var records []analyzer.DuplicateRecord
		if err := readCBOR(path, &records); err != nil {
			return err
		}
		rel, err := filepath.Rel(filesDir, path)
		if err != nil {
			return err
		}
		children = append(children, ChildReport{RelPath: filepath.ToSlash(rel), Records: filterAndSortFiles(records, opts)})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("describe: read children: %w", err)
	}

	sortChildren(children, opts.SortChildren)
	return children, nil
}

func filterAndSortFiles(records []analyzer.DuplicateRecord, opts Options) []analyzer.DuplicateRecord {
	out := make([]analyzer.DuplicateRecord, 0, len(records))
	for _, r := range records {
		if !opts.All && !r.Identical {
			continue
		}
		out = append(out, r)
	}
	if !opts.KeepInputOrder {
		sortFiles(out, opts.SortBy)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func filterAndSortDirs(records []analyzer.DirRecord, opts Options) []analyzer.DirRecord {
	out := make([]analyzer.DirRecord, 0, len(records))
	for _, r := range records {
		if !opts.All && !r.Identical {
			continue
		}
		out = append(out, r)
	}
	if !opts.KeepInputOrder {
		sortDirs(out, opts.SortBy)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func sortFiles(records []analyzer.DuplicateRecord, key SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch key {
		case SortBySize:
			return a.Size > b.Size
		case SortByIdentical:
			return a.Identical && !b.Identical
		case SortByPath:
			return a.RepositoryPath < b.RepositoryPath
		default:
			return a.RepositoryPath < b.RepositoryPath
		}
	})
}

func sortDirs(records []analyzer.DirRecord, key SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch key {
		case SortBySize:
			return a.DuplicatedSize > b.DuplicatedSize
		case SortByItems:
			return a.DuplicatedItems > b.DuplicatedItems
		case SortByIdentical:
			return a.Identical && !b.Identical
		case SortByPath:
			return a.RepositoryDir < b.RepositoryDir
		default:
			return a.RepositoryDir < b.RepositoryDir
		}
	})
}

func sortChildren(children []ChildReport, key ChildSortKey) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		switch key {
		case SortChildrenDupSize:
			return sumSize(a.Records) > sumSize(b.Records)
		case SortChildrenDupItems:
			return len(a.Records) > len(b.Records)
		case SortChildrenTotalSize:
			return sumSize(a.Records) > sumSize(b.Records)
		case SortChildrenName:
			return a.RelPath < b.RelPath
		default:
			return a.RelPath < b.RelPath
		}
	})
}

func sumSize(records []analyzer.DuplicateRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Size
	}
	return total
}

func readCBOR(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("describe: read %q: %w", path, err)
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("describe: decode %q: %w", path, err)
	}
	return nil
}

// FormatBytes renders n as a human-readable byte count: the rendering
// detail the --bytes flag's absence calls for, since the flag itself
// only toggles whether raw byte counts are shown instead.
func FormatBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}

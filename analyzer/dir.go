package analyzer

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/walker"
)

// DirRecord is one row of a directory-input report's "duplicates"
// sequence: a repository directory that structurally mirrors the
// analyzed tree, and the extent to which it does.
type DirRecord struct {
	RepositoryDir   string `cbor:"repository_dir"`
	DuplicatedItems int    `cbor:"duplicated_items"`
	DuplicatedSize  int64  `cbor:"duplicated_size"`
	Identical       bool   `cbor:"identical"`
}

// Tree is the result of analyzing a directory input: per-file
// duplicate records keyed by the file's path relative to the input
// root, and the directory-level aggregates built on top of them.
type Tree struct {
	Files map[string][]DuplicateRecord
	Dirs  []DirRecord
}

// AnalyzeDirectory recursively analyzes every regular file under
// inputRoot and aggregates directory-level duplicate candidates.
func AnalyzeDirectory(ctx context.Context, store kvstore.Store, repoRoot string, inputRoot string, alg hasher.Algorithm, policy PolicyOptions) (Tree, error) {
	files := make(map[string][]DuplicateRecord)
	totalFiles := 0

	err := walker.Walk(ctx, inputRoot, func(e walker.Entry) error {
		if e.IsDir {
			return nil
		}
		totalFiles++
		absPath := filepath.Join(inputRoot, filepath.FromSlash(e.RelPath))
		records, err := AnalyzeFile(ctx, store, repoRoot, absPath, alg, policy)
		if err != nil {
			return err
		}
		files[e.RelPath] = records
		return nil
	})
	if err != nil {
		return Tree{}, err
	}

	return Tree{Files: files, Dirs: aggregateDirectories(files, totalFiles)}, nil
}

type dirAgg struct {
	items    map[string]struct{}
	size     int64
	allMatch bool
}

// aggregateDirectories groups per-file duplicate records by candidate
// repository directory, using "the candidate directory structurally
// mirrors at least one analyzed file" as the coverage threshold. A
// repository directory D is a candidate for analyzed file
// F at relative offset "a/b" when D's matched member path ends in
// "/a/b" — i.e. D contains a file at the same relative position F
// occupies in the input tree.
func aggregateDirectories(files map[string][]DuplicateRecord, totalFiles int) []DirRecord {
	aggs := make(map[string]*dirAgg)

	for inputRelPath, records := range files {
		for _, rec := range records {
			dir, ok := structuralDir(inputRelPath, rec.RepositoryPath)
			if !ok {
				continue
			}
			a, exists := aggs[dir]
			if !exists {
				a = &dirAgg{items: make(map[string]struct{}), allMatch: true}
				aggs[dir] = a
			}
			if _, already := a.items[inputRelPath]; already {
				continue
			}
			a.items[inputRelPath] = struct{}{}
			a.size += rec.Size
			if !rec.Identical {
				a.allMatch = false
			}
		}
	}

	out := make([]DirRecord, 0, len(aggs))
	for dir, a := range aggs {
		out = append(out, DirRecord{
			RepositoryDir:   dir,
			DuplicatedItems: len(a.items),
			DuplicatedSize:  a.size,
			Identical:       a.allMatch && len(a.items) == totalFiles,
		})
	}

	sort.Slice(out, func(i, k int) bool { return out[i].RepositoryDir < out[k].RepositoryDir })
	return out
}

// structuralDir reports whether repoPath mirrors inputRelPath at some
// directory offset, returning the directory prefix that would make D
// structurally correspond to the analyzed tree.
func structuralDir(inputRelPath, repoPath string) (string, bool) {
	if repoPath == inputRelPath {
		return "", true
	}
	suffix := "/" + inputRelPath
	if strings.HasSuffix(repoPath, suffix) {
		return strings.TrimSuffix(repoPath, suffix), true
	}
	return "", false
}

// Package difftree implements the diff-tree read-only post-processor:
// it walks two directories in lock-step — an analyzed tree
// and a known repository duplicate — joining entries by base name at
// each level and classifying every join.
package difftree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/sherwoodwang/rededup/analyzer"
	"github.com/sherwoodwang/rededup/hasher"
)

// Classification names how one joined entry compares.
type Classification string

const (
	OnlyAnalyzed     Classification = "only-analyzed"
	OnlyRepository   Classification = "only-repository"
	ContentMatch     Classification = "content-match"
	ContentMetaMatch Classification = "content+metadata-match"
)

// Entry is one joined node of the two trees, at a shared relative
// path.
type Entry struct {
	RelPath        string
	IsDir          bool
	Classification Classification
	Children       []Entry
}

// Show names which side of an unmatched (only-analyzed or
// only-repository) pair Diff reports.
type Show string

const (
	ShowBoth       Show = "both"
	ShowAnalyzed   Show = "analyzed"
	ShowRepository Show = "repository"
)

// Options controls depth limiting and which side of an unmatched pair
// is reported, mirroring the diff-tree subcommand's flag contract.
type Options struct {
	HideContentMatch bool
	MaxDepth         int // 0 means unlimited; a positive value limits depth only when Unlimited is false
	Unlimited        bool
	Show             Show // "" behaves like ShowBoth
	Policy           analyzer.PolicyOptions
	Algorithm        hasher.Algorithm
}

// Diff walks analyzedRoot and repoRoot in lock-step, classifying every
// joined entry.
func Diff(ctx context.Context, analyzedRoot, repoRoot string, opts Options) (Entry, error) {
	root := Entry{RelPath: "", IsDir: true}
	children, err := diffDir(ctx, analyzedRoot, repoRoot, "", 0, opts)
	if err != nil {
		return Entry{}, err
	}
	root.Children = children
	return root, nil
}

func diffDir(ctx context.Context, analyzedRoot, repoRoot, relPath string, depth int, opts Options) ([]Entry, error) {
	if !opts.Unlimited && opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return nil, nil
	}

	analyzedAbs := filepath.Join(analyzedRoot, filepath.FromSlash(relPath))
	repoAbs := filepath.Join(repoRoot, filepath.FromSlash(relPath))

	analyzedNames, err := listDir(analyzedAbs)
	if err != nil {
		return nil, err
	}
	repoNames, err := listDir(repoAbs)
	if err != nil {
		return nil, err
	}

	names := unionSorted(analyzedNames, repoNames)

	var out []Entry
	for _, name := range names {
		childRel := name
		if relPath != "" {
			childRel = relPath + "/" + name
		}

		_, inAnalyzed := analyzedNames[name]
		_, inRepo := repoNames[name]

		switch {
		case inAnalyzed && !inRepo:
			if opts.HideContentMatch || opts.Show == ShowRepository {
				continue
			}
			out = append(out, Entry{RelPath: childRel, Classification: OnlyAnalyzed})
		case inRepo && !inAnalyzed:
			if opts.HideContentMatch || opts.Show == ShowAnalyzed {
				continue
			}
			out = append(out, Entry{RelPath: childRel, Classification: OnlyRepository})
		default:
			entry, err := joinEntry(ctx, analyzedRoot, repoRoot, childRel, depth, opts)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				out = append(out, *entry)
			}
		}
	}
	return out, nil
}

func joinEntry(ctx context.Context, analyzedRoot, repoRoot, relPath string, depth int, opts Options) (*Entry, error) {
	analyzedAbs := filepath.Join(analyzedRoot, filepath.FromSlash(relPath))
	repoAbs := filepath.Join(repoRoot, filepath.FromSlash(relPath))

	aInfo, err := os.Lstat(analyzedAbs)
	if err != nil {
		return nil, fmt.Errorf("difftree: stat %q: %w", analyzedAbs, err)
	}
	bInfo, err := os.Lstat(repoAbs)
	if err != nil {
		return nil, fmt.Errorf("difftree: stat %q: %w", repoAbs, err)
	}

	if aInfo.IsDir() && bInfo.IsDir() {
		children, err := diffDir(ctx, analyzedRoot, repoRoot, relPath, depth+1, opts)
		if err != nil {
			return nil, err
		}
		return &Entry{RelPath: relPath, IsDir: true, Children: children}, nil
	}
	if aInfo.IsDir() != bInfo.IsDir() {
		// A directory joined against a file: not a content-comparable
		// pair; it is reported as a single only-analyzed entry, and no
		// only-repository entry is emitted for it.
		return &Entry{RelPath: relPath, Classification: OnlyAnalyzed}, nil
	}

	equal, err := filesEqual(analyzedAbs, repoAbs)
	if err != nil {
		return nil, err
	}
	if !equal {
		return nil, nil
	}

	classification := ContentMatch
	aSys, aOK := aInfo.Sys().(*syscall.Stat_t)
	bSys, bOK := bInfo.Sys().(*syscall.Stat_t)
	if aOK && bOK && analyzer.MetadataMatches(aInfo, bInfo, aSys, bSys, opts.Policy) {
		classification = ContentMetaMatch
	}
	if classification == ContentMatch && opts.HideContentMatch {
		return nil, nil
	}
	return &Entry{RelPath: relPath, Classification: classification}, nil
}

func filesEqual(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, fmt.Errorf("difftree: open %q: %w", a, err)
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, fmt.Errorf("difftree: open %q: %w", b, err)
	}
	defer fb.Close()

	const chunk = 256 * 1024
	bufA := make([]byte, chunk)
	bufB := make([]byte, chunk)
	for {
		na, errA := fa.Read(bufA)
		nb, errB := fb.Read(bufB)
		if na != nb {
			return false, nil
		}
		if na > 0 && string(bufA[:na]) != string(bufB[:nb]) {
			return false, nil
		}
		aDone := errA != nil
		bDone := errB != nil
		if aDone != bDone {
			return false, nil
		}
		if aDone {
			return true, nil
		}
	}
}

func listDir(abs string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("difftree: read dir %q: %w", abs, err)
	}
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		out[e.Name()] = struct{}{}
	}
	return out, nil
}

func unionSorted(a, b map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		seen[name] = struct{}{}
	}
	for name := range b {
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

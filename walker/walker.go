// Package walker performs a recursive, depth-first, lexicographically
// sorted traversal of a repository on the local filesystem, in the
// manner of distribution's storage driver walk but driven directly by
// os.ReadDir/os.Lstat instead of a StorageDriver, and without ever
// following symlinks.
package walker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sherwoodwang/rededup/internal/dcontext"
)

// ErrSkipDir is returned from a WalkFunc to indicate that the
// directory named in the call should not be entered. It is never
// returned as an error from Walk itself.
var ErrSkipDir = errors.New("walker: skip this directory")

// dotDir is the repository metadata directory, always excluded from a
// walk when it sits at the repository root.
const dotDir = ".rededup"

// Entry describes one filesystem entry visited during a walk.
type Entry struct {
	// RelPath is the path relative to the walk root, using "/"
	// separators regardless of OS.
	RelPath string
	IsDir   bool
	Info    os.FileInfo
}

// WalkFunc is called once per entry. Returning ErrSkipDir on a
// directory entry prevents descent into it; any other non-nil error
// aborts the walk.
type WalkFunc func(entry Entry) error

// Walk traverses root depth-first, children visited in lexicographic
// order, calling f for every directory and regular file. Non-regular,
// non-directory entries (symlinks, sockets, devices) are skipped
// silently: rededup's content model only covers regular files.
// Per-entry I/O errors (a file removed mid-walk, a permission denial)
// are logged through the logger carried by ctx, and the walk
// continues rather than aborting. Only a failure to read root itself
// is returned as an error.
func Walk(ctx context.Context, root string, f WalkFunc) error {
	return walkDir(ctx, root, "", f)
}

func walkDir(ctx context.Context, absDir, relDir string, f WalkFunc) error {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		if relDir != "" {
			dcontext.GetLoggerWithField(ctx, "path", relDir).Warnf("walker: ignoring unreadable directory: %v", err)
			return nil
		}
		return fmt.Errorf("walker: read dir %q: %w", absDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if relDir == "" && e.Name() == dotDir {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		absPath := filepath.Join(absDir, name)
		relPath := name
		if relDir != "" {
			relPath = relDir + "/" + name
		}

		info, err := os.Lstat(absPath)
		if err != nil {
			dcontext.GetLoggerWithField(ctx, "path", relPath).Warnf("walker: ignoring unreadable entry: %v", err)
			continue
		}

		mode := info.Mode()
		switch {
		case mode.IsDir():
			err := f(Entry{RelPath: relPath, IsDir: true, Info: info})
			if errors.Is(err, ErrSkipDir) {
				continue
			}
			if err != nil {
				return err
			}
			if err := walkDir(ctx, absPath, relPath, f); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := f(Entry{RelPath: relPath, IsDir: false, Info: info}); err != nil {
				return err
			}
		default:
			// Symlinks and other special files are not part of the
			// content model; never followed, never hashed.
			continue
		}
	}

	return nil
}
